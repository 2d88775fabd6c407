/*
Package app contains the building blocks of an application: the message
Router, the decorator chain, common decorators (Recovery, Logging,
Savepoint), genesis initialization and BaseApp, which exposes a Handler stack
over the ABCI interface.
*/
package app

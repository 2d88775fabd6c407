/*
Package weavetest provides mocks and helpers for testing extensions.

Auth and CtxAuth authenticate addresses without any transaction data. Handler
and Decorator count calls and can be configured to fail. Tx and Msg are
minimal transaction and message implementations for handler tests, and Runner
drives a complete application through its ABCI interface.
*/
package weavetest

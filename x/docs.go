/*
Package x contains the extensions of the quorum application and the
authentication helpers they share.

Extensions implement common functionality (Handler, Decorator,
Initializer) and are combined together by walletapp. Handlers never
look up the transaction caller directly. They receive an Authenticator in
their constructor, so that the identity source can be swapped.
*/
package x

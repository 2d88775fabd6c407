/*
Package walletapp links together all the various components to construct
the walletd application: cash accounts and quorum gated wallets.

A transaction declares its caller and carries exactly one message. Wallet
transactions carry an opaque payload that is decoded with DecodePayload
into one of the messages this application can dispatch.
*/
package walletapp

/*
Package msig implements a quorum-gated multi-signature wallet.

A wallet is a set of owners and a threshold. Any owner can submit a
transaction: a value transfer and an optional payload message, addressed to a
destination. Owners confirm the transaction and as soon as the number of
confirmations made by current owners reaches the threshold, the transaction
is executed exactly once.

The wallet administers itself through the same pipeline. Owner and threshold
changes are payload messages of a transaction addressed to the wallet
itself. Their handlers refuse to run unless dispatched by the execution of
such a transaction.

A failed execution does not fail the submission or confirmation that
triggered it. It is reported through tags and metrics and the transaction
stays pending, so that it can be retried by revoking and confirming again.
*/
package msig

/*
Package quorum is the root of a quorum-gated transaction authorization
engine. It declares the interfaces shared by all extensions: addresses and
conditions, key value stores, messages, transactions and handlers.

Extensions live under x/. The multi-signature wallet itself is x/msig, and
walletapp wires all extensions into a runnable application.

We pass context through context.Context between app, middleware, and
handlers. To do so, quorum defines some common keys to store info, such as
block height and chain id. Each extension, such as identity, may add its own
keys to enrich the context with specific data.

There should exist two functions for every XYZ of type T that we want to
support in Context:

  WithXYZ(Context, T) Context
  GetXYZ(Context) (val T, ok bool)

WithXYZ may error/panic if the value was previously set to avoid lower-level
modules overwriting the value (eg. height, chain id)
*/
package quorum

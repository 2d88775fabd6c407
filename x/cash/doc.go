/*
Package cash keeps the balances of all accounts and moves value between
them.

Every account holds a set of coins, at most one per ticker, and the balance
of any coin may never go below zero. All arithmetic is checked, an operation
that would overflow or underflow fails and changes nothing.

A wallet address is an ordinary account. Sending value to it only credits
its balance.
*/
package cash

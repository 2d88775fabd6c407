/*
Package orm provides typed model storage on top of a KVStore.

A ModelBucket stores a single model type under a bucket prefix. Keys are
opaque bytes chosen by the caller or generated by a Sequence. Iteration
over keys sharing a prefix is supported in both directions, which is what
composite keys (ie. parent id followed by child id) are used for.
*/
package orm

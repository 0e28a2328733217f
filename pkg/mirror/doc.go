// Package mirror provides a small Hedera Mirror Node REST client. The HIP-542
// workflow uses it to resolve alias accounts by EVM address and to read the
// token relationships (and balances) of an account.
//
// The mirror node is a read-only view of the ledger and trails consensus by a
// few seconds; callers that need a just-written value should poll.
package mirror

// Package hip542_go demonstrates HIP-542 account auto-creation on the
// Hedera public ledger: a fungible HTS token transfer to an ECDSA public key
// alias creates the receiving account.
//
// # Packages
//
//   - pkg/shared: network normalization, operator configuration, key parsing
//   - pkg/mirror: mirror node REST client for alias lookups and token balances
//   - pkg/hip542: ledger client handle, token and account operations, and the
//     account creation workflow
//
// # Running
//
//	export OPERATOR_ACCOUNT_ID=0.0.1234
//	export OPERATOR_PRIVATE_KEY=302e...
//	go run ./cmd/hip542 run
package hip542_go

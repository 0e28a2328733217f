// Package shared provides the helpers every part of the HIP-542 demo relies
// on: network normalization, Hedera client construction, explorer links,
// operator credential loading, and private key parsing.
//
// # Environment Variables
//
// OperatorConfigFromEnv reads OPERATOR_ACCOUNT_ID and OPERATOR_PRIVATE_KEY
// (falling back to HEDERA_ACCOUNT_ID/OPERATOR_ID and
// HEDERA_PRIVATE_KEY/OPERATOR_KEY), plus the optional HEDERA_NETWORK,
// MIRROR_NODE_URL, and MIRROR_API_KEY. A .env file in the working directory
// or any parent is loaded first; variables already present in the process
// environment take precedence.
//
// Missing or unparsable credentials are reported as ConfigurationError.
package shared

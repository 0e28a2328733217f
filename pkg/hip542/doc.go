// Package hip542 demonstrates HIP-542 on the Hedera public ledger: sending
// fungible HTS tokens to an ECDSA public key alias causes the network to
// create an account for that alias.
//
// The package provides a ledger client handle (Connect/Close), transaction
// builders, the account, token, alias, and balance operations the
// demonstration needs, and Run, which sequences them:
//
//  1. create a treasury account
//  2. create a fungible token held by the treasury
//  3. derive an ECDSA key and its alias account reference
//  4. transfer tokens to the alias, creating the account
//  5. resolve the alias to the new account ID
//  6. verify the new account holds the transferred tokens
//
// Each step feeds the next and the first failure ends the run. Ledger
// rejections surface as ProvisioningError, TokenCreationError, TransferError,
// or AliasNotFoundError. A balance that does not match is reported as a
// VerificationFailure in the WorkflowReport and only returned as an error
// when WorkflowOptions.StrictVerification is set.
//
// # HIP-542
//
// https://hips.hedera.com/hip/hip-542
package hip542

package hip542

import (
	"time"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// Transaction memos set on each submission unless overridden.
const (
	AccountCreateTransactionMemo = "hip-542:op:account_create"
	TokenCreateTransactionMemo   = "hip-542:op:token_create"
	TokenTransferTransactionMemo = "hip-542:op:token_transfer"
)

// Alias lookup paths for ClientConfig.AliasResolution.
const (
	AliasResolutionConsensus = "consensus"
	AliasResolutionMirror    = "mirror"
)

// ClientConfig holds the operator identity and network for Connect.
type ClientConfig struct {
	OperatorAccountID  string
	OperatorPrivateKey string
	Network            string
	MirrorBaseURL      string
	MirrorAPIKey       string
	// AliasResolution selects how GetAccountIDByAlias looks up the
	// canonical account: AliasResolutionConsensus (default) or
	// AliasResolutionMirror.
	AliasResolution string
	AliasRetry      RetryPolicy
}

// RetryPolicy bounds polling of lookups that trail a confirmed write.
// A zero value uses DefaultRetryPolicy.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy covers the usual few seconds of record propagation.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:     8,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     4 * time.Second,
}

// Identity is an account together with the key that controls it.
type Identity struct {
	AccountID  hedera.AccountID
	PrivateKey hedera.PrivateKey
}

// AliasIdentity is a locally generated ECDSA key and the alias account
// reference it implies. The alias has no canonical account until value is
// transferred to it.
type AliasIdentity struct {
	PrivateKey hedera.PrivateKey
	PublicKey  hedera.PublicKey
	AccountID  hedera.AccountID
	EVMAddress string
}

// FungibleTokenOptions describes a token whose initial supply is minted to
// the treasury. TreasuryKey signs the creation.
type FungibleTokenOptions struct {
	TreasuryAccountID hedera.AccountID
	TreasuryKey       hedera.PrivateKey
	SupplyKey         hedera.PrivateKey
	AdminKey          *hedera.PrivateKey
	InitialSupply     uint64
	Decimals          uint
	Name              string
	Symbol            string
	TokenMemo         string
	TransactionMemo   string
}

// TokenTransfer moves Amount units of TokenID from From to To, signed by
// FromKey. To may be an alias account reference.
type TokenTransfer struct {
	TokenID         hedera.TokenID
	From            hedera.AccountID
	To              hedera.AccountID
	Amount          int64
	FromKey         hedera.PrivateKey
	TransactionMemo string
}

// TransferResult is the outcome of a confirmed transfer.
type TransferResult struct {
	TransactionID string
	Status        string
	// ChildAccountIDs lists accounts created as a side effect of the
	// transfer, as reported by its child records. Empty when the record
	// query failed or nothing was created.
	ChildAccountIDs []hedera.AccountID
}

// TokenBalances maps token ID strings (shard.realm.num) to integral
// quantities. It is a snapshot taken at query time.
type TokenBalances map[string]uint64

// Of returns the quantity held of tokenID and whether the account has a
// relationship with the token at all.
func (balances TokenBalances) Of(tokenID hedera.TokenID) (uint64, bool) {
	quantity, ok := balances[tokenID.String()]
	return quantity, ok
}

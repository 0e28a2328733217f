package hip542

import (
	"fmt"
	"math"
	"strings"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// AccountCreateTxParams configures BuildAccountCreateTx.
type AccountCreateTxParams struct {
	PublicKey          hedera.PublicKey
	InitialBalanceHbar float64
	AccountMemo        string
	TransactionMemo    string
}

// FungibleTokenCreateTxParams configures BuildFungibleTokenCreateTx.
type FungibleTokenCreateTxParams struct {
	TreasuryAccountID hedera.AccountID
	SupplyKey         hedera.PublicKey
	AdminKey          *hedera.PublicKey
	InitialSupply     uint64
	Decimals          uint
	Name              string
	Symbol            string
	TokenMemo         string
	TransactionMemo   string
}

// TokenTransferTxParams configures BuildTokenTransferTx.
type TokenTransferTxParams struct {
	TokenID         hedera.TokenID
	From            hedera.AccountID
	To              hedera.AccountID
	Amount          int64
	TransactionMemo string
}

// BuildAccountCreateTx builds an unsigned account creation funded by the
// payer with InitialBalanceHbar.
func BuildAccountCreateTx(params AccountCreateTxParams) (*hedera.AccountCreateTransaction, error) {
	if params.PublicKey.String() == "" {
		return nil, fmt.Errorf("public key is required")
	}
	if params.InitialBalanceHbar < 0 || math.IsNaN(params.InitialBalanceHbar) || math.IsInf(params.InitialBalanceHbar, 0) {
		return nil, fmt.Errorf("initial balance must be a non-negative number of hbar, got %v", params.InitialBalanceHbar)
	}

	transaction := hedera.NewAccountCreateTransaction().
		SetKey(params.PublicKey).
		SetInitialBalance(hedera.NewHbar(params.InitialBalanceHbar)).
		SetTransactionMemo(normalizeMemo(params.TransactionMemo, AccountCreateTransactionMemo))

	if strings.TrimSpace(params.AccountMemo) != "" {
		transaction.SetAccountMemo(strings.TrimSpace(params.AccountMemo))
	}

	return transaction, nil
}

// BuildFungibleTokenCreateTx builds an unsigned fungible token creation with
// an infinite supply held entirely by the treasury.
func BuildFungibleTokenCreateTx(params FungibleTokenCreateTxParams) (*hedera.TokenCreateTransaction, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, fmt.Errorf("token name is required")
	}
	symbol := strings.TrimSpace(params.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("token symbol is required")
	}
	if params.TreasuryAccountID.String() == "0.0.0" {
		return nil, fmt.Errorf("treasury account ID is required")
	}
	if params.SupplyKey.String() == "" {
		return nil, fmt.Errorf("supply key is required")
	}

	transaction := hedera.NewTokenCreateTransaction().
		SetTokenName(name).
		SetTokenSymbol(symbol).
		SetTokenType(hedera.TokenTypeFungibleCommon).
		SetSupplyType(hedera.TokenSupplyTypeInfinite).
		SetDecimals(params.Decimals).
		SetInitialSupply(params.InitialSupply).
		SetTreasuryAccountID(params.TreasuryAccountID).
		SetSupplyKey(params.SupplyKey).
		SetTransactionMemo(normalizeMemo(params.TransactionMemo, TokenCreateTransactionMemo))

	if params.AdminKey != nil {
		transaction.SetAdminKey(*params.AdminKey)
	}
	if strings.TrimSpace(params.TokenMemo) != "" {
		transaction.SetTokenMemo(strings.TrimSpace(params.TokenMemo))
	}

	return transaction, nil
}

// BuildTokenTransferTx builds a balanced two-leg fungible transfer. To may be
// an alias reference.
func BuildTokenTransferTx(params TokenTransferTxParams) (*hedera.TransferTransaction, error) {
	if params.Amount <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive, got %d", params.Amount)
	}
	if params.TokenID.String() == "0.0.0" {
		return nil, fmt.Errorf("token ID is required")
	}
	if params.From.String() == "0.0.0" {
		return nil, fmt.Errorf("sender account ID is required")
	}
	if params.To.AliasKey == nil && params.To.String() == "0.0.0" {
		return nil, fmt.Errorf("receiver account ID or alias is required")
	}
	if params.To.AliasKey == nil && params.To.String() == params.From.String() {
		return nil, fmt.Errorf("sender and receiver must differ")
	}

	return hedera.NewTransferTransaction().
		AddTokenTransfer(params.TokenID, params.From, -params.Amount).
		AddTokenTransfer(params.TokenID, params.To, params.Amount).
		SetTransactionMemo(normalizeMemo(params.TransactionMemo, TokenTransferTransactionMemo)), nil
}

func normalizeMemo(value string, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}

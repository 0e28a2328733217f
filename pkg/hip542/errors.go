package hip542

import "fmt"

// HIP542Error is the base embedded in every error this package returns. All
// of them are values; match with errors.As on the value type.
type HIP542Error struct {
	Message string
	Cause   error
}

func (errorValue HIP542Error) Error() string {
	if errorValue.Cause != nil {
		return fmt.Sprintf("%s: %v", errorValue.Message, errorValue.Cause)
	}
	return errorValue.Message
}

func (errorValue HIP542Error) Unwrap() error {
	return errorValue.Cause
}

// ProvisioningError reports a rejected or invalid account creation.
type ProvisioningError struct {
	HIP542Error
	InitialBalanceHbar float64
}

// TokenCreationError reports a rejected or invalid token creation.
type TokenCreationError struct {
	HIP542Error
	Name   string
	Symbol string
}

// TransferError reports a rejected or invalid token transfer.
type TransferError struct {
	HIP542Error
	TokenID string
	From    string
	To      string
	Amount  int64
}

// AliasNotFoundError means no canonical account is bound to the alias,
// usually because no transfer to it has been confirmed yet.
type AliasNotFoundError struct {
	HIP542Error
	Alias string
}

// VerificationFailure is a business-level mismatch between the expected and
// observed token balance. The workflow reports it rather than returning it
// unless strict verification is enabled.
type VerificationFailure struct {
	HIP542Error
	AccountID string
	TokenID   string
	Expected  uint64
	Actual    uint64
	Found     bool
}

func newProvisioningError(initialBalance float64, cause error, format string, args ...any) ProvisioningError {
	return ProvisioningError{
		HIP542Error:        HIP542Error{Message: fmt.Sprintf(format, args...), Cause: cause},
		InitialBalanceHbar: initialBalance,
	}
}

func newTokenCreationError(options FungibleTokenOptions, cause error, format string, args ...any) TokenCreationError {
	return TokenCreationError{
		HIP542Error: HIP542Error{Message: fmt.Sprintf(format, args...), Cause: cause},
		Name:        options.Name,
		Symbol:      options.Symbol,
	}
}

func newTransferError(transfer TokenTransfer, cause error, format string, args ...any) TransferError {
	return TransferError{
		HIP542Error: HIP542Error{Message: fmt.Sprintf(format, args...), Cause: cause},
		TokenID:     transfer.TokenID.String(),
		From:        transfer.From.String(),
		To:          transfer.To.String(),
		Amount:      transfer.Amount,
	}
}

func newAliasNotFoundError(alias string, cause error) AliasNotFoundError {
	return AliasNotFoundError{
		HIP542Error: HIP542Error{Message: fmt.Sprintf("no account is bound to alias %s", alias), Cause: cause},
		Alias:       alias,
	}
}

func newVerificationFailure(accountID string, tokenID string, expected uint64, actual uint64, found bool) *VerificationFailure {
	message := fmt.Sprintf("account %s holds %d of token %s, expected %d", accountID, actual, tokenID, expected)
	if !found {
		message = fmt.Sprintf("account %s has no balance for token %s, expected %d", accountID, tokenID, expected)
	}
	return &VerificationFailure{
		HIP542Error: HIP542Error{Message: message},
		AccountID:   accountID,
		TokenID:     tokenID,
		Expected:    expected,
		Actual:      actual,
		Found:       found,
	}
}

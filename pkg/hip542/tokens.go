package hip542

import (
	"context"
	"fmt"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

const mirrorTokenPageSize = 100

// CreateFungibleToken creates a fungible token whose entire initial supply is
// held by the treasury. The treasury key signs alongside the operator.
func (c *Client) CreateFungibleToken(ctx context.Context, options FungibleTokenOptions) (hedera.TokenID, error) {
	var adminKey *hedera.PublicKey
	if options.AdminKey != nil {
		publicKey := options.AdminKey.PublicKey()
		adminKey = &publicKey
	}

	transaction, err := BuildFungibleTokenCreateTx(FungibleTokenCreateTxParams{
		TreasuryAccountID: options.TreasuryAccountID,
		SupplyKey:         options.SupplyKey.PublicKey(),
		AdminKey:          adminKey,
		InitialSupply:     options.InitialSupply,
		Decimals:          options.Decimals,
		Name:              options.Name,
		Symbol:            options.Symbol,
		TokenMemo:         options.TokenMemo,
		TransactionMemo:   options.TransactionMemo,
	})
	if err != nil {
		return hedera.TokenID{}, newTokenCreationError(options, err, "invalid token create request")
	}

	frozenTransaction, err := transaction.FreezeWith(c.hederaClient)
	if err != nil {
		return hedera.TokenID{}, newTokenCreationError(options, err, "failed to freeze token create transaction")
	}
	frozenTransaction = frozenTransaction.Sign(options.TreasuryKey)
	if options.AdminKey != nil {
		frozenTransaction = frozenTransaction.Sign(*options.AdminKey)
	}

	response, err := await(ctx, func() (hedera.TransactionResponse, error) {
		return frozenTransaction.Execute(c.hederaClient)
	})
	if err != nil {
		return hedera.TokenID{}, newTokenCreationError(options, err, "failed to execute token create transaction")
	}
	receipt, err := await(ctx, func() (hedera.TransactionReceipt, error) {
		return response.GetReceipt(c.hederaClient)
	})
	if err != nil {
		return hedera.TokenID{}, newTokenCreationError(options, err, "failed to retrieve token create receipt")
	}
	if receipt.TokenID == nil {
		return hedera.TokenID{}, newTokenCreationError(options, nil, "token create receipt did not include a token ID")
	}

	return *receipt.TokenID, nil
}

// SendToken moves Amount units of a fungible token from From to To, signed by
// FromKey. When To is an alias without an account, the network creates one as
// part of the transfer; its ID is reported in ChildAccountIDs when the record
// can be read.
func (c *Client) SendToken(ctx context.Context, transfer TokenTransfer) (TransferResult, error) {
	transaction, err := BuildTokenTransferTx(TokenTransferTxParams{
		TokenID:         transfer.TokenID,
		From:            transfer.From,
		To:              transfer.To,
		Amount:          transfer.Amount,
		TransactionMemo: transfer.TransactionMemo,
	})
	if err != nil {
		return TransferResult{}, newTransferError(transfer, err, "invalid token transfer request")
	}

	frozenTransaction, err := transaction.FreezeWith(c.hederaClient)
	if err != nil {
		return TransferResult{}, newTransferError(transfer, err, "failed to freeze token transfer transaction")
	}
	frozenTransaction = frozenTransaction.Sign(transfer.FromKey)

	response, err := await(ctx, func() (hedera.TransactionResponse, error) {
		return frozenTransaction.Execute(c.hederaClient)
	})
	if err != nil {
		return TransferResult{}, newTransferError(transfer, err, "failed to execute token transfer transaction")
	}
	receipt, err := await(ctx, func() (hedera.TransactionReceipt, error) {
		return response.GetReceipt(c.hederaClient)
	})
	if err != nil {
		return TransferResult{}, newTransferError(transfer, err, "failed to retrieve token transfer receipt")
	}

	result := TransferResult{
		TransactionID: response.TransactionID.String(),
		Status:        receipt.Status.String(),
	}

	record, recordErr := await(ctx, func() (hedera.TransactionRecord, error) {
		return hedera.NewTransactionRecordQuery().
			SetTransactionID(response.TransactionID).
			SetIncludeChildren(true).
			Execute(c.hederaClient)
	})
	if recordErr == nil {
		result.ChildAccountIDs = childAccountIDs(record)
	}

	return result, nil
}

// GetBalance returns the token balances of accountID as reported by the
// mirror node. It has no side effects.
func (c *Client) GetBalance(ctx context.Context, accountID hedera.AccountID) (TokenBalances, error) {
	relationships, err := c.mirrorClient.GetAccountTokens(ctx, accountID.String(), mirrorTokenPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query token balances for %s: %w", accountID.String(), err)
	}

	balances := make(TokenBalances, len(relationships))
	for _, relationship := range relationships {
		balances[relationship.TokenID] = relationship.Balance
	}
	return balances, nil
}

func childAccountIDs(record hedera.TransactionRecord) []hedera.AccountID {
	accountIDs := make([]hedera.AccountID, 0, len(record.Children))
	for _, child := range record.Children {
		if child.Receipt.AccountID != nil {
			accountIDs = append(accountIDs, *child.Receipt.AccountID)
		}
	}
	return accountIDs
}

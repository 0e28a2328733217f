package hip542

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/hashgraph-online/hip542-go/pkg/mirror"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// CreateAccount generates an ECDSA key, creates an account for it funded by
// the operator, and returns the new identity.
func (c *Client) CreateAccount(ctx context.Context, initialBalanceHbar float64) (Identity, error) {
	privateKey, err := hedera.PrivateKeyGenerateEcdsa()
	if err != nil {
		return Identity{}, newProvisioningError(initialBalanceHbar, err, "failed to generate ecdsa private key")
	}

	transaction, err := BuildAccountCreateTx(AccountCreateTxParams{
		PublicKey:          privateKey.PublicKey(),
		InitialBalanceHbar: initialBalanceHbar,
	})
	if err != nil {
		return Identity{}, newProvisioningError(initialBalanceHbar, err, "invalid account create request")
	}

	response, err := await(ctx, func() (hedera.TransactionResponse, error) {
		return transaction.Execute(c.hederaClient)
	})
	if err != nil {
		return Identity{}, newProvisioningError(initialBalanceHbar, err, "failed to execute account create transaction")
	}
	receipt, err := await(ctx, func() (hedera.TransactionReceipt, error) {
		return response.GetReceipt(c.hederaClient)
	})
	if err != nil {
		return Identity{}, newProvisioningError(initialBalanceHbar, err, "failed to retrieve account create receipt")
	}
	if receipt.AccountID == nil {
		return Identity{}, newProvisioningError(initialBalanceHbar, nil, "account create receipt did not include an account ID")
	}

	return Identity{
		AccountID:  *receipt.AccountID,
		PrivateKey: privateKey,
	}, nil
}

// DeriveAlias generates a key with generate (hedera.PrivateKeyGenerateEcdsa
// when nil) and returns the alias account reference it implies in the given
// shard and realm. Only secp256k1 keys qualify.
func DeriveAlias(generate func() (hedera.PrivateKey, error), shard uint64, realm uint64) (AliasIdentity, error) {
	if generate == nil {
		generate = hedera.PrivateKeyGenerateEcdsa
	}

	privateKey, err := generate()
	if err != nil {
		return AliasIdentity{}, fmt.Errorf("failed to generate alias key: %w", err)
	}
	publicKey := privateKey.PublicKey()

	if _, err := btcec.ParsePubKey(publicKey.BytesRaw()); err != nil {
		return AliasIdentity{}, fmt.Errorf("alias key must be an ECDSA secp256k1 key: %w", err)
	}

	aliasAccountID := publicKey.ToAccountID(shard, realm)
	if aliasAccountID == nil || aliasAccountID.AliasKey == nil {
		return AliasIdentity{}, fmt.Errorf("alias key is empty")
	}

	evmAddress := normalizeEVMAddress(publicKey.ToEvmAddress())
	if !isEVMAddress(evmAddress) {
		return AliasIdentity{}, fmt.Errorf("alias key produced invalid EVM address %q", evmAddress)
	}

	return AliasIdentity{
		PrivateKey: privateKey,
		PublicKey:  publicKey,
		AccountID:  *aliasAccountID,
		EVMAddress: evmAddress,
	}, nil
}

// GetAccountIDByAlias returns the canonical account bound to alias. Lookups
// that find nothing are retried under the client's alias retry policy, then
// reported as AliasNotFoundError.
func (c *Client) GetAccountIDByAlias(ctx context.Context, alias hedera.AccountID) (hedera.AccountID, error) {
	if alias.AliasKey == nil {
		return hedera.AccountID{}, fmt.Errorf("account %s is not an alias reference", alias.String())
	}
	if c.aliasResolution == AliasResolutionMirror {
		return c.ResolveAliasViaMirror(ctx, alias)
	}

	accountID, err := resolveAlias(ctx, c.aliasRetry, alias, func() (hedera.AccountID, error) {
		info, err := await(ctx, func() (hedera.AccountInfo, error) {
			return hedera.NewAccountInfoQuery().
				SetAccountID(alias).
				Execute(c.hederaClient)
		})
		return info.AccountID, err
	}, isAccountNotFound)
	if err != nil && !isAliasNotFound(err) {
		return hedera.AccountID{}, fmt.Errorf("failed to query account info for alias %s: %w", alias.String(), err)
	}
	return accountID, err
}

// ResolveAliasViaMirror resolves alias through the mirror node by the EVM
// address its key implies. It shares the not-found retry policy.
func (c *Client) ResolveAliasViaMirror(ctx context.Context, alias hedera.AccountID) (hedera.AccountID, error) {
	if alias.AliasKey == nil {
		return hedera.AccountID{}, fmt.Errorf("account %s is not an alias reference", alias.String())
	}
	evmAddress := normalizeEVMAddress(alias.AliasKey.ToEvmAddress())

	accountID, err := resolveAlias(ctx, c.aliasRetry, alias, func() (hedera.AccountID, error) {
		info, err := c.mirrorClient.GetAccount(ctx, evmAddress)
		if err != nil {
			return hedera.AccountID{}, err
		}
		accountID, err := hedera.AccountIDFromString(info.Account)
		if err != nil {
			return hedera.AccountID{}, fmt.Errorf("mirror node returned invalid account ID %q: %w", info.Account, err)
		}
		return accountID, nil
	}, isMirrorNotFound)
	if err != nil && !isAliasNotFound(err) {
		return hedera.AccountID{}, fmt.Errorf("failed to resolve alias %s via mirror node: %w", alias.String(), err)
	}
	return accountID, err
}

// resolveAlias runs lookup under policy, retrying while notFound matches. A
// lookup still not found after the last attempt becomes AliasNotFoundError;
// other errors are returned as they are.
func resolveAlias(
	ctx context.Context,
	policy RetryPolicy,
	alias hedera.AccountID,
	lookup func() (hedera.AccountID, error),
	notFound func(error) bool,
) (hedera.AccountID, error) {
	var resolved hedera.AccountID
	err := retryWhile(ctx, policy, func() error {
		accountID, err := lookup()
		if err != nil {
			return err
		}
		resolved = accountID
		return nil
	}, notFound, nil)
	if err != nil {
		if notFound(err) {
			return hedera.AccountID{}, newAliasNotFoundError(alias.String(), err)
		}
		return hedera.AccountID{}, err
	}
	return resolved, nil
}

func isAliasNotFound(err error) bool {
	var notFound AliasNotFoundError
	return errors.As(err, &notFound)
}

func isAccountNotFound(err error) bool {
	var precheck hedera.ErrHederaPreCheckStatus
	if errors.As(err, &precheck) {
		return precheck.Status == hedera.StatusInvalidAccountID ||
			precheck.Status == hedera.StatusAccountIDDoesNotExist
	}
	return false
}

func isMirrorNotFound(err error) bool {
	return errors.Is(err, mirror.ErrNotFound)
}

func normalizeEVMAddress(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		return "0x" + strings.ToLower(trimmed[2:])
	}
	return "0x" + strings.ToLower(trimmed)
}

func isEVMAddress(value string) bool {
	trimmed := strings.TrimPrefix(normalizeEVMAddress(value), "0x")
	decoded, err := hex.DecodeString(trimmed)
	return err == nil && len(decoded) == 20
}

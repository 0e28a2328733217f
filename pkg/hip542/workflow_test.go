package hip542

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hashgraph-online/hip542-go/pkg/mirror"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLedger is an in-memory ledger that auto-creates accounts for aliases on
// token transfer, the way the network does.
type fakeLedger struct {
	operator   hedera.AccountID
	nextNumber uint64
	balances   map[string]TokenBalances
	aliases    map[string]hedera.AccountID

	failStep      string
	creditSkew    int64
	hideNewTokens bool
	blockTransfer bool
	mirrorLag     int

	created      []hedera.AccountID
	fundings     []float64
	transfers    []int64
	balanceReads int
	resolveCalls int
	closeCount   int
	closeErr     error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		operator:   hedera.AccountID{Account: 2},
		nextNumber: 1000,
		balances:   map[string]TokenBalances{},
		aliases:    map[string]hedera.AccountID{},
	}
}

func (f *fakeLedger) newAccount() hedera.AccountID {
	f.nextNumber++
	accountID := hedera.AccountID{Account: f.nextNumber}
	f.balances[accountID.String()] = TokenBalances{}
	f.created = append(f.created, accountID)
	return accountID
}

func (f *fakeLedger) CreateAccount(ctx context.Context, initialBalanceHbar float64) (Identity, error) {
	if f.failStep == "account" {
		return Identity{}, newProvisioningError(initialBalanceHbar, errors.New("INSUFFICIENT_PAYER_BALANCE"), "failed to execute account create transaction")
	}
	if initialBalanceHbar < 0 {
		return Identity{}, newProvisioningError(initialBalanceHbar, nil, "invalid account create request")
	}
	privateKey, err := hedera.PrivateKeyGenerateEcdsa()
	if err != nil {
		return Identity{}, err
	}
	f.fundings = append(f.fundings, initialBalanceHbar)
	return Identity{AccountID: f.newAccount(), PrivateKey: privateKey}, nil
}

func (f *fakeLedger) CreateFungibleToken(ctx context.Context, options FungibleTokenOptions) (hedera.TokenID, error) {
	if f.failStep == "token" {
		return hedera.TokenID{}, newTokenCreationError(options, errors.New("INVALID_SIGNATURE"), "failed to retrieve token create receipt")
	}
	f.nextNumber++
	tokenID := hedera.TokenID{Token: f.nextNumber}
	f.balances[options.TreasuryAccountID.String()][tokenID.String()] = options.InitialSupply
	return tokenID, nil
}

func (f *fakeLedger) SendToken(ctx context.Context, transfer TokenTransfer) (TransferResult, error) {
	if f.blockTransfer {
		<-ctx.Done()
		return TransferResult{}, newTransferError(transfer, ctx.Err(), "failed to execute token transfer transaction")
	}
	if f.failStep == "transfer" {
		return TransferResult{}, newTransferError(transfer, errors.New("INSUFFICIENT_TOKEN_BALANCE"), "failed to retrieve token transfer receipt")
	}

	f.transfers = append(f.transfers, transfer.Amount)
	tokenKey := transfer.TokenID.String()
	fromBalances := f.balances[transfer.From.String()]
	if int64(fromBalances[tokenKey]) < transfer.Amount {
		return TransferResult{}, newTransferError(transfer, nil, "insufficient balance")
	}

	result := TransferResult{TransactionID: fmt.Sprintf("%s@1700000000.%d", transfer.From.String(), f.nextNumber), Status: "SUCCESS"}
	receiver := transfer.To
	if transfer.To.AliasKey != nil {
		aliasKey := transfer.To.AliasKey.String()
		bound, ok := f.aliases[aliasKey]
		if !ok {
			bound = f.newAccount()
			f.aliases[aliasKey] = bound
			result.ChildAccountIDs = []hedera.AccountID{bound}
		}
		receiver = bound
	}

	fromBalances[tokenKey] -= uint64(transfer.Amount)
	receiverBalances := f.balances[receiver.String()]
	receiverBalances[tokenKey] += uint64(transfer.Amount + f.creditSkew)
	return result, nil
}

func (f *fakeLedger) GetAccountIDByAlias(ctx context.Context, alias hedera.AccountID) (hedera.AccountID, error) {
	f.resolveCalls++
	if alias.AliasKey == nil {
		return hedera.AccountID{}, fmt.Errorf("account %s is not an alias reference", alias.String())
	}
	bound, ok := f.aliases[alias.AliasKey.String()]
	if !ok || f.failStep == "resolve" {
		return hedera.AccountID{}, newAliasNotFoundError(alias.String(), nil)
	}
	return bound, nil
}

func (f *fakeLedger) GetBalance(ctx context.Context, accountID hedera.AccountID) (TokenBalances, error) {
	f.balanceReads++
	if f.failStep == "balance" {
		return nil, errors.New("mirror node request failed with status 503")
	}
	if f.mirrorLag > 0 && f.isCreatedByAlias(accountID) {
		f.mirrorLag--
		return nil, fmt.Errorf("failed to query token balances for %s: %w", accountID.String(),
			fmt.Errorf("%w: /api/v1/accounts/%s/tokens", mirror.ErrNotFound, accountID.String()))
	}
	snapshot := TokenBalances{}
	for tokenID, quantity := range f.balances[accountID.String()] {
		snapshot[tokenID] = quantity
	}
	if f.hideNewTokens && f.isCreatedByAlias(accountID) {
		return TokenBalances{}, nil
	}
	return snapshot, nil
}

func (f *fakeLedger) isCreatedByAlias(accountID hedera.AccountID) bool {
	for _, bound := range f.aliases {
		if bound.String() == accountID.String() {
			return true
		}
	}
	return false
}

func (f *fakeLedger) Close() error {
	f.closeCount++
	return f.closeErr
}

func fastOptions() WorkflowOptions {
	options := DefaultWorkflowOptions()
	options.StepTimeout = time.Second
	options.BalanceRetry = RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}
	return options
}

func TestRunEndToEnd(t *testing.T) {
	ledger := newFakeLedger()
	var states []State
	options := fastOptions()
	options.OnProgress = func(progress Progress) {
		states = append(states, progress.State)
	}

	report, err := Run(context.Background(), ledger, options)
	require.NoError(t, err)

	assert.Equal(t, StateDone, report.State)
	assert.True(t, report.Verified)
	assert.Nil(t, report.Failure)
	assert.Equal(t, []State{
		StateTreasuryCreated,
		StateTokenCreated,
		StateAliasDerived,
		StateTransferSubmitted,
		StateAliasResolved,
		StateBalanceVerified,
		StateDone,
	}, states)

	quantity, found := report.Balances.Of(report.TokenID)
	require.True(t, found)
	assert.Equal(t, uint64(DefaultTransferAmount), quantity)

	assert.NotEqual(t, report.Treasury.AccountID.String(), report.ResolvedAccountID.String())
	assert.NotEqual(t, ledger.operator.String(), report.ResolvedAccountID.String())
	require.Len(t, report.Transfer.ChildAccountIDs, 1)
	assert.Equal(t, report.ResolvedAccountID.String(), report.Transfer.ChildAccountIDs[0].String())
	assert.NotNil(t, report.Alias.AccountID.AliasKey)
}

func TestRunBalanceConservation(t *testing.T) {
	ledger := newFakeLedger()

	report, err := Run(context.Background(), ledger, fastOptions())
	require.NoError(t, err)

	treasuryBalances, err := ledger.GetBalance(context.Background(), report.Treasury.AccountID)
	require.NoError(t, err)
	treasuryQuantity, _ := treasuryBalances.Of(report.TokenID)
	receiverQuantity, _ := report.Balances.Of(report.TokenID)

	assert.Equal(t, uint64(DefaultInitialSupply-DefaultTransferAmount), treasuryQuantity)
	assert.Equal(t, uint64(DefaultInitialSupply), treasuryQuantity+receiverQuantity)
}

func TestTokenCreationCreditsTreasury(t *testing.T) {
	ledger := newFakeLedger()
	ctx := context.Background()

	treasury, err := ledger.CreateAccount(ctx, 100)
	require.NoError(t, err)
	supplyKey, err := hedera.PrivateKeyGenerateEcdsa()
	require.NoError(t, err)

	tokenID, err := ledger.CreateFungibleToken(ctx, FungibleTokenOptions{
		TreasuryAccountID: treasury.AccountID,
		TreasuryKey:       treasury.PrivateKey,
		SupplyKey:         supplyKey,
		InitialSupply:     10000,
		Name:              DefaultTokenName,
		Symbol:            DefaultTokenSymbol,
	})
	require.NoError(t, err)

	balances, err := ledger.GetBalance(ctx, treasury.AccountID)
	require.NoError(t, err)
	quantity, found := balances.Of(tokenID)
	require.True(t, found)
	assert.Equal(t, uint64(10000), quantity)
}

func TestCreatedAccountsAreDistinct(t *testing.T) {
	ledger := newFakeLedger()
	seen := map[string]bool{ledger.operator.String(): true}

	for _, initialBalance := range []float64{0, 1, 100} {
		identity, err := ledger.CreateAccount(context.Background(), initialBalance)
		require.NoError(t, err)
		assert.False(t, seen[identity.AccountID.String()], "duplicate account %s", identity.AccountID.String())
		seen[identity.AccountID.String()] = true
	}
}

func TestResolveAliasIsStable(t *testing.T) {
	ledger := newFakeLedger()
	report, err := Run(context.Background(), ledger, fastOptions())
	require.NoError(t, err)

	again, err := ledger.GetAccountIDByAlias(context.Background(), report.Alias.AccountID)
	require.NoError(t, err)
	assert.Equal(t, report.ResolvedAccountID.String(), again.String())
}

func TestResolveUnusedAliasFails(t *testing.T) {
	ledger := newFakeLedger()
	alias, err := DeriveAlias(nil, 0, 0)
	require.NoError(t, err)

	_, err = ledger.GetAccountIDByAlias(context.Background(), alias.AccountID)
	var notFound AliasNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, alias.AccountID.String(), notFound.Alias)
}

func TestRunReportsMismatchWithoutError(t *testing.T) {
	ledger := newFakeLedger()
	ledger.creditSkew = -1

	report, err := Run(context.Background(), ledger, fastOptions())
	require.NoError(t, err)

	assert.Equal(t, StateDone, report.State)
	assert.False(t, report.Verified)
	require.NotNil(t, report.Failure)
	assert.Equal(t, uint64(10), report.Failure.Expected)
	assert.Equal(t, uint64(9), report.Failure.Actual)
	assert.True(t, report.Failure.Found)
}

func TestRunStrictVerificationReturnsFailure(t *testing.T) {
	ledger := newFakeLedger()
	ledger.creditSkew = 5
	options := fastOptions()
	options.StrictVerification = true

	report, err := Run(context.Background(), ledger, options)
	var failure VerificationFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, uint64(15), failure.Actual)
	assert.Equal(t, StateAliasResolved, report.State)
}

func TestRunPollsUntilTokenVisible(t *testing.T) {
	ledger := newFakeLedger()
	ledger.hideNewTokens = true

	report, err := Run(context.Background(), ledger, fastOptions())
	require.NoError(t, err)

	require.NotNil(t, report.Failure)
	assert.False(t, report.Failure.Found)
	assert.Equal(t, 3, ledger.balanceReads)
}

func TestRunWaitsForMirrorToIngestAccount(t *testing.T) {
	ledger := newFakeLedger()
	ledger.mirrorLag = 2

	report, err := Run(context.Background(), ledger, fastOptions())
	require.NoError(t, err)

	assert.Equal(t, StateDone, report.State)
	assert.True(t, report.Verified)
	assert.Nil(t, report.Failure)
	assert.Equal(t, 3, ledger.balanceReads)
}

func TestRunReportsAccountNeverIngested(t *testing.T) {
	ledger := newFakeLedger()
	ledger.mirrorLag = 100

	report, err := Run(context.Background(), ledger, fastOptions())
	require.NoError(t, err)

	assert.Equal(t, StateDone, report.State)
	assert.False(t, report.Verified)
	require.NotNil(t, report.Failure)
	assert.False(t, report.Failure.Found)
	assert.Equal(t, uint64(DefaultTransferAmount), report.Failure.Expected)
	assert.Empty(t, report.Balances)
}

func TestRunStrictFailsWhenAccountNeverIngested(t *testing.T) {
	ledger := newFakeLedger()
	ledger.mirrorLag = 100
	options := fastOptions()
	options.StrictVerification = true

	report, err := Run(context.Background(), ledger, options)
	var failure VerificationFailure
	require.ErrorAs(t, err, &failure)
	assert.False(t, failure.Found)
	assert.Equal(t, StateAliasResolved, report.State)
}

func TestRunKeepsZeroTreasuryBalance(t *testing.T) {
	ledger := newFakeLedger()
	options := fastOptions()
	options.TreasuryBalanceHbar = 0

	_, err := Run(context.Background(), ledger, options)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, ledger.fundings)
}

func TestRunRejectsNonPositiveAmount(t *testing.T) {
	for _, amount := range []int64{0, -3} {
		t.Run(fmt.Sprintf("amount=%d", amount), func(t *testing.T) {
			ledger := newFakeLedger()
			options := fastOptions()
			options.TransferAmount = amount

			report, err := Run(context.Background(), ledger, options)
			var target TransferError
			require.ErrorAs(t, err, &target)
			assert.Equal(t, amount, target.Amount)
			assert.Equal(t, StateIdle, report.State)
			assert.Empty(t, ledger.created)
			assert.Empty(t, ledger.transfers)
		})
	}
}

func TestRunRejectsZeroSupply(t *testing.T) {
	ledger := newFakeLedger()
	options := fastOptions()
	options.InitialSupply = 0

	_, err := Run(context.Background(), ledger, options)
	var target TransferError
	require.ErrorAs(t, err, &target)
	assert.Empty(t, ledger.created)
}

func TestRunHaltsOnFirstError(t *testing.T) {
	tests := []struct {
		name      string
		failStep  string
		wantState State
		check     func(t *testing.T, err error)
	}{
		{
			name:      "provisioning",
			failStep:  "account",
			wantState: StateIdle,
			check: func(t *testing.T, err error) {
				var target ProvisioningError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name:      "token creation",
			failStep:  "token",
			wantState: StateTreasuryCreated,
			check: func(t *testing.T, err error) {
				var target TokenCreationError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, DefaultTokenSymbol, target.Symbol)
			},
		},
		{
			name:      "transfer",
			failStep:  "transfer",
			wantState: StateAliasDerived,
			check: func(t *testing.T, err error) {
				var target TransferError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, int64(DefaultTransferAmount), target.Amount)
			},
		},
		{
			name:      "alias resolution",
			failStep:  "resolve",
			wantState: StateTransferSubmitted,
			check: func(t *testing.T, err error) {
				var target AliasNotFoundError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name:      "balance query",
			failStep:  "balance",
			wantState: StateAliasResolved,
			check: func(t *testing.T, err error) {
				require.ErrorContains(t, err, "503")
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			ledger := newFakeLedger()
			ledger.failStep = testCase.failStep

			report, err := Run(context.Background(), ledger, fastOptions())
			require.Error(t, err)
			testCase.check(t, err)
			assert.Equal(t, testCase.wantState, report.State)
		})
	}
}

func TestRunResolvesOnlyAfterTransfer(t *testing.T) {
	ledger := newFakeLedger()
	ledger.failStep = "transfer"

	_, err := Run(context.Background(), ledger, fastOptions())
	require.Error(t, err)
	assert.Zero(t, ledger.resolveCalls)
}

func TestRunStepTimeout(t *testing.T) {
	ledger := newFakeLedger()
	ledger.blockTransfer = true
	options := fastOptions()
	options.StepTimeout = 20 * time.Millisecond

	report, err := Run(context.Background(), ledger, options)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateAliasDerived, report.State)
}

func TestRunRejectsTransferAboveSupply(t *testing.T) {
	ledger := newFakeLedger()
	options := fastOptions()
	options.InitialSupply = 5
	options.TransferAmount = 6

	report, err := Run(context.Background(), ledger, options)
	var target TransferError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, StateIdle, report.State)
	assert.Empty(t, ledger.created)
}

func TestRunSessionClosesOnEveryPath(t *testing.T) {
	for _, failStep := range []string{"", "account", "token", "transfer", "resolve"} {
		t.Run(fmt.Sprintf("fail=%q", failStep), func(t *testing.T) {
			ledger := newFakeLedger()
			ledger.failStep = failStep

			_, err := RunSession(context.Background(), ledger, fastOptions())
			if failStep == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
			assert.Equal(t, 1, ledger.closeCount)
		})
	}
}

func TestRunSessionJoinsCloseError(t *testing.T) {
	ledger := newFakeLedger()
	ledger.failStep = "token"
	ledger.closeErr = errors.New("connection reset")

	_, err := RunSession(context.Background(), ledger, fastOptions())
	var tokenErr TokenCreationError
	require.ErrorAs(t, err, &tokenErr)
	require.ErrorContains(t, err, "connection reset")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Idle", StateIdle.String())
	assert.Equal(t, "TransferSubmitted", StateTransferSubmitted.String())
	assert.Equal(t, "Done", StateDone.String())
	assert.Equal(t, "State(42)", State(42).String())
}

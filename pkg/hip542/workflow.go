package hip542

import (
	"context"
	"errors"
	"fmt"
	"time"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/rs/zerolog"
)

// Demonstration defaults, used by DefaultWorkflowOptions and the CLI flags.
const (
	DefaultTreasuryBalanceHbar = 100
	DefaultTokenName           = "HIP-542 Token"
	DefaultTokenSymbol         = "H542"
	DefaultInitialSupply       = 10000
	DefaultTransferAmount      = 10
	DefaultStepTimeout         = 2 * time.Minute
)

// State is the position of a run in the account creation workflow. States
// only ever advance, one step at a time.
type State int

const (
	StateIdle State = iota
	StateTreasuryCreated
	StateTokenCreated
	StateAliasDerived
	StateTransferSubmitted
	StateAliasResolved
	StateBalanceVerified
	StateDone
)

func (state State) String() string {
	switch state {
	case StateIdle:
		return "Idle"
	case StateTreasuryCreated:
		return "TreasuryCreated"
	case StateTokenCreated:
		return "TokenCreated"
	case StateAliasDerived:
		return "AliasDerived"
	case StateTransferSubmitted:
		return "TransferSubmitted"
	case StateAliasResolved:
		return "AliasResolved"
	case StateBalanceVerified:
		return "BalanceVerified"
	case StateDone:
		return "Done"
	default:
		return fmt.Sprintf("State(%d)", int(state))
	}
}

// Ledger is the set of ledger operations the workflow sequences. *Client
// implements it.
type Ledger interface {
	CreateAccount(ctx context.Context, initialBalanceHbar float64) (Identity, error)
	CreateFungibleToken(ctx context.Context, options FungibleTokenOptions) (hedera.TokenID, error)
	SendToken(ctx context.Context, transfer TokenTransfer) (TransferResult, error)
	GetAccountIDByAlias(ctx context.Context, alias hedera.AccountID) (hedera.AccountID, error)
	GetBalance(ctx context.Context, accountID hedera.AccountID) (TokenBalances, error)
}

// Session is a Ledger that owns network resources.
type Session interface {
	Ledger
	Close() error
}

// WorkflowOptions parameterizes Run. Start from DefaultWorkflowOptions; a zero
// TreasuryBalanceHbar funds the treasury with nothing and a zero
// TransferAmount is rejected.
type WorkflowOptions struct {
	TreasuryBalanceHbar float64
	TokenName           string
	TokenSymbol         string
	InitialSupply       uint64
	TransferAmount      int64
	Shard               uint64
	Realm               uint64
	// StepTimeout bounds every individual ledger step.
	StepTimeout time.Duration
	// BalanceRetry bounds polling for the token to appear on the new
	// account. Only a missing token entry is retried, never a mismatch.
	BalanceRetry RetryPolicy
	// StrictVerification makes a balance mismatch a returned error instead
	// of a reported outcome.
	StrictVerification bool
	GenerateKey        func() (hedera.PrivateKey, error)
	OnProgress         func(Progress)
	Logger             *zerolog.Logger
}

// Progress is emitted each time the workflow reaches a new state.
type Progress struct {
	State   State
	Message string
}

// WorkflowReport holds everything the run created or observed, up to the
// state it reached.
type WorkflowReport struct {
	State             State
	Treasury          Identity
	SupplyKey         hedera.PrivateKey
	TokenID           hedera.TokenID
	Alias             AliasIdentity
	Transfer          TransferResult
	ResolvedAccountID hedera.AccountID
	Balances          TokenBalances
	Verified          bool
	Failure           *VerificationFailure
}

// DefaultWorkflowOptions returns the demonstration parameters: a 100 HBAR
// treasury, a 10000 unit H542 token, and a transfer of 10 units.
func DefaultWorkflowOptions() WorkflowOptions {
	return WorkflowOptions{
		TreasuryBalanceHbar: DefaultTreasuryBalanceHbar,
		TokenName:           DefaultTokenName,
		TokenSymbol:         DefaultTokenSymbol,
		InitialSupply:       DefaultInitialSupply,
		TransferAmount:      DefaultTransferAmount,
		StepTimeout:         DefaultStepTimeout,
	}
}

// withDefaults fills the fields whose zero value is never meaningful. Numeric
// amounts are taken as given.
func (options WorkflowOptions) withDefaults() WorkflowOptions {
	if options.TokenName == "" {
		options.TokenName = DefaultTokenName
	}
	if options.TokenSymbol == "" {
		options.TokenSymbol = DefaultTokenSymbol
	}
	if options.StepTimeout <= 0 {
		options.StepTimeout = DefaultStepTimeout
	}
	if options.GenerateKey == nil {
		options.GenerateKey = hedera.PrivateKeyGenerateEcdsa
	}
	if options.Logger == nil {
		nop := zerolog.Nop()
		options.Logger = &nop
	}
	return options
}

// RunSession runs the workflow and closes session on every exit path. A close
// failure is joined to the workflow error.
func RunSession(ctx context.Context, session Session, options WorkflowOptions) (report WorkflowReport, err error) {
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close ledger client: %w", closeErr))
		}
	}()
	return Run(ctx, session, options)
}

// Run executes the HIP-542 account creation workflow against ledger:
// treasury account, fungible token, alias derivation, transfer to the alias,
// alias resolution, and balance verification. The first error halts the run
// and is returned unchanged alongside the partial report. Nothing created
// before the failure is rolled back.
func Run(ctx context.Context, ledger Ledger, options WorkflowOptions) (WorkflowReport, error) {
	options = options.withDefaults()
	logger := options.Logger
	report := WorkflowReport{State: StateIdle}

	if options.TransferAmount <= 0 {
		return report, newTransferError(TokenTransfer{Amount: options.TransferAmount}, nil,
			"transfer amount must be positive, got %d", options.TransferAmount)
	}
	if uint64(options.TransferAmount) > options.InitialSupply {
		return report, newTransferError(TokenTransfer{Amount: options.TransferAmount}, nil,
			"transfer amount %d exceeds initial supply %d", options.TransferAmount, options.InitialSupply)
	}

	advance := func(state State, message string) {
		report.State = state
		logger.Info().Str("state", state.String()).Msg(message)
		if options.OnProgress != nil {
			options.OnProgress(Progress{State: state, Message: message})
		}
	}

	treasury, err := runStep(ctx, options.StepTimeout, func(stepCtx context.Context) (Identity, error) {
		return ledger.CreateAccount(stepCtx, options.TreasuryBalanceHbar)
	})
	if err != nil {
		return report, err
	}
	report.Treasury = treasury
	logger.Debug().Str("private_key", treasury.PrivateKey.String()).Msg("treasury key")
	advance(StateTreasuryCreated, fmt.Sprintf("treasury account %s created", treasury.AccountID.String()))

	supplyKey, err := options.GenerateKey()
	if err != nil {
		return report, newTokenCreationError(FungibleTokenOptions{Name: options.TokenName, Symbol: options.TokenSymbol},
			err, "failed to generate supply key")
	}
	report.SupplyKey = supplyKey

	tokenID, err := runStep(ctx, options.StepTimeout, func(stepCtx context.Context) (hedera.TokenID, error) {
		return ledger.CreateFungibleToken(stepCtx, FungibleTokenOptions{
			TreasuryAccountID: treasury.AccountID,
			TreasuryKey:       treasury.PrivateKey,
			SupplyKey:         supplyKey,
			InitialSupply:     options.InitialSupply,
			Name:              options.TokenName,
			Symbol:            options.TokenSymbol,
		})
	})
	if err != nil {
		return report, err
	}
	report.TokenID = tokenID
	advance(StateTokenCreated, fmt.Sprintf("token %s (%s) created with supply %d", tokenID.String(), options.TokenSymbol, options.InitialSupply))

	alias, err := DeriveAlias(options.GenerateKey, options.Shard, options.Realm)
	if err != nil {
		return report, err
	}
	report.Alias = alias
	logger.Debug().Str("alias_key", alias.PublicKey.StringRaw()).Str("evm_address", alias.EVMAddress).Msg("alias derived")
	advance(StateAliasDerived, fmt.Sprintf("alias account reference %s derived", alias.AccountID.String()))

	transfer, err := runStep(ctx, options.StepTimeout, func(stepCtx context.Context) (TransferResult, error) {
		return ledger.SendToken(stepCtx, TokenTransfer{
			TokenID: tokenID,
			From:    treasury.AccountID,
			To:      alias.AccountID,
			Amount:  options.TransferAmount,
			FromKey: treasury.PrivateKey,
		})
	})
	if err != nil {
		return report, err
	}
	report.Transfer = transfer
	advance(StateTransferSubmitted, fmt.Sprintf("transferred %d %s to alias in %s", options.TransferAmount, options.TokenSymbol, transfer.TransactionID))

	resolved, err := runStep(ctx, options.StepTimeout, func(stepCtx context.Context) (hedera.AccountID, error) {
		return ledger.GetAccountIDByAlias(stepCtx, alias.AccountID)
	})
	if err != nil {
		return report, err
	}
	report.ResolvedAccountID = resolved
	if len(transfer.ChildAccountIDs) > 0 && !containsAccountID(transfer.ChildAccountIDs, resolved) {
		logger.Warn().
			Str("resolved", resolved.String()).
			Interface("child_records", accountIDStrings(transfer.ChildAccountIDs)).
			Msg("resolved account is not among the transfer child records")
	}
	advance(StateAliasResolved, fmt.Sprintf("alias resolved to account %s", resolved.String()))

	balances, err := runStep(ctx, options.StepTimeout, func(stepCtx context.Context) (TokenBalances, error) {
		return pollTokenBalance(stepCtx, ledger, resolved, tokenID, options.BalanceRetry)
	})
	if err != nil {
		return report, err
	}
	report.Balances = balances

	expected := uint64(options.TransferAmount)
	actual, found := balances.Of(tokenID)
	if found && actual == expected {
		report.Verified = true
		advance(StateBalanceVerified, fmt.Sprintf("account %s holds %d %s", resolved.String(), actual, options.TokenSymbol))
	} else {
		report.Failure = newVerificationFailure(resolved.String(), tokenID.String(), expected, actual, found)
		logger.Warn().Err(report.Failure).Msg("balance verification failed")
		if options.StrictVerification {
			return report, *report.Failure
		}
		advance(StateBalanceVerified, report.Failure.Error())
	}

	advance(StateDone, "workflow complete")
	return report, nil
}

// runStep bounds one ledger step by timeout, derived from ctx.
func runStep[T any](ctx context.Context, timeout time.Duration, step func(context.Context) (T, error)) (T, error) {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return step(stepCtx)
}

// pollTokenBalance reads balances until tokenID shows up for accountID or the
// policy is exhausted. The mirror node answers not found for an account it has
// not ingested yet; that is retried like a missing token entry and ends as an
// empty snapshot. The last snapshot is returned either way.
func pollTokenBalance(
	ctx context.Context,
	ledger Ledger,
	accountID hedera.AccountID,
	tokenID hedera.TokenID,
	policy RetryPolicy,
) (TokenBalances, error) {
	var balances TokenBalances
	errTokenMissing := errors.New("token relationship not visible yet")
	notVisible := func(err error) bool {
		return errors.Is(err, errTokenMissing) || isMirrorNotFound(err)
	}

	err := retryWhile(ctx, policy, func() error {
		snapshot, err := ledger.GetBalance(ctx, accountID)
		if err != nil {
			return err
		}
		balances = snapshot
		if _, found := snapshot.Of(tokenID); !found {
			return errTokenMissing
		}
		return nil
	}, notVisible, nil)
	if err != nil && !notVisible(err) {
		return nil, err
	}
	if balances == nil {
		balances = TokenBalances{}
	}
	return balances, nil
}

func containsAccountID(accountIDs []hedera.AccountID, target hedera.AccountID) bool {
	for _, accountID := range accountIDs {
		if accountID.String() == target.String() {
			return true
		}
	}
	return false
}

func accountIDStrings(accountIDs []hedera.AccountID) []string {
	values := make([]string, 0, len(accountIDs))
	for _, accountID := range accountIDs {
		values = append(values, accountID.String())
	}
	return values
}

package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hashgraph-online/hip542-go/pkg/hip542"
	"github.com/hashgraph-online/hip542-go/pkg/shared"
	"github.com/spf13/cobra"
)

type runOptions struct {
	network         string
	treasuryBalance float64
	supply          uint64
	amount          int64
	tokenName       string
	tokenSymbol     string
	timeout         time.Duration
	stepTimeout     time.Duration
	aliasResolution string
	strict          bool
}

// run: create a treasury and token, send tokens to a fresh ECDSA alias, and
// verify the auto-created account.
func runCmd(root *rootOptions) *cobra.Command {
	options := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the HIP-542 alias auto-creation workflow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			operatorConfig, err := shared.OperatorConfigFromEnv()
			if err != nil {
				return err
			}
			network := operatorConfig.Network
			if cmd.Flags().Changed("network") {
				network = options.network
			}

			client, err := hip542.Connect(hip542.ClientConfig{
				OperatorAccountID:  operatorConfig.AccountID,
				OperatorPrivateKey: operatorConfig.PrivateKey,
				Network:            network,
				MirrorBaseURL:      operatorConfig.MirrorBaseURL,
				MirrorAPIKey:       operatorConfig.MirrorAPIKey,
				AliasResolution:    options.aliasResolution,
			})
			if err != nil {
				return err
			}
			root.logger.Info().
				Str("network", client.Network()).
				Str("operator", client.OperatorAccountID().String()).
				Msg("connected")

			ctx, cancel := context.WithTimeout(cmd.Context(), options.timeout)
			defer cancel()

			out := cmd.OutOrStdout()
			report, err := hip542.RunSession(ctx, client, hip542.WorkflowOptions{
				TreasuryBalanceHbar: options.treasuryBalance,
				TokenName:           options.tokenName,
				TokenSymbol:         options.tokenSymbol,
				InitialSupply:       options.supply,
				TransferAmount:      options.amount,
				StepTimeout:         options.stepTimeout,
				StrictVerification:  options.strict,
				Logger:              &root.logger,
				OnProgress: func(progress hip542.Progress) {
					fmt.Fprintf(out, "[%s] %s\n", progress.State, progress.Message)
				},
			})
			printReport(out, client.Network(), report)
			if err != nil {
				return fmt.Errorf("workflow stopped after %s: %w", report.State, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&options.network, "network", shared.NetworkTestnet, "network (testnet, mainnet, previewnet); overrides HEDERA_NETWORK")
	cmd.Flags().Float64Var(&options.treasuryBalance, "treasury-balance", hip542.DefaultTreasuryBalanceHbar, "initial treasury balance in HBAR")
	cmd.Flags().Uint64Var(&options.supply, "supply", hip542.DefaultInitialSupply, "initial token supply")
	cmd.Flags().Int64Var(&options.amount, "amount", hip542.DefaultTransferAmount, "token amount sent to the alias")
	cmd.Flags().StringVar(&options.tokenName, "token-name", hip542.DefaultTokenName, "token name")
	cmd.Flags().StringVar(&options.tokenSymbol, "token-symbol", hip542.DefaultTokenSymbol, "token symbol")
	cmd.Flags().DurationVar(&options.timeout, "timeout", 10*time.Minute, "overall workflow deadline")
	cmd.Flags().DurationVar(&options.stepTimeout, "step-timeout", hip542.DefaultStepTimeout, "deadline for each ledger step")
	cmd.Flags().StringVar(&options.aliasResolution, "alias-resolution", hip542.AliasResolutionConsensus, "alias lookup path (consensus or mirror)")
	cmd.Flags().BoolVar(&options.strict, "strict", false, "fail when the alias balance does not match the transfer")
	return cmd
}

func printReport(out io.Writer, network string, report hip542.WorkflowReport) {
	if report.State == hip542.StateIdle {
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Treasury:  %s\n", shared.HashScanAccountURL(network, report.Treasury.AccountID.String()))
	if report.State >= hip542.StateTokenCreated {
		fmt.Fprintf(out, "Token:     %s\n", shared.HashScanTokenURL(network, report.TokenID.String()))
	}
	if report.State >= hip542.StateAliasDerived {
		fmt.Fprintf(out, "Alias:     %s (%s)\n", report.Alias.PublicKey.StringRaw(), report.Alias.EVMAddress)
	}
	if report.State >= hip542.StateTransferSubmitted {
		fmt.Fprintf(out, "Transfer:  %s\n", report.Transfer.TransactionID)
	}
	if report.State >= hip542.StateAliasResolved {
		fmt.Fprintf(out, "Account:   %s\n", shared.HashScanAccountURL(network, report.ResolvedAccountID.String()))
	}
	switch {
	case report.Verified:
		fmt.Fprintln(out, "Balance:   verified")
	case report.Failure != nil:
		fmt.Fprintf(out, "Balance:   %s\n", report.Failure.Error())
	}
}

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel string
	jsonLogs bool

	stdout io.Writer
	stderr io.Writer
	logger zerolog.Logger
}

func Execute() error {
	options := &rootOptions{stdout: os.Stdout, stderr: os.Stderr}
	root := newRootCmd(options)

	err := root.ExecuteContext(context.Background())
	if err != nil {
		options.logger.Error().Err(err).Msg("hip542 failed")
	}
	return err
}

func newRootCmd(options *rootOptions) *cobra.Command {
	options.logger = consoleLogger(options.stderr, zerolog.InfoLevel)

	root := &cobra.Command{
		Use:           "hip542",
		Short:         "Demonstrate HIP-542 account auto-creation on Hedera",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(options.logLevel)))
			if err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", options.logLevel, err)
			}
			if level == zerolog.NoLevel {
				level = zerolog.InfoLevel
			}
			if options.jsonLogs {
				options.logger = zerolog.New(options.stderr).Level(level).With().Timestamp().Logger()
			} else {
				options.logger = consoleLogger(options.stderr, level)
			}
			return nil
		},
	}
	root.SetOut(options.stdout)
	root.SetErr(options.stderr)

	root.PersistentFlags().StringVar(&options.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&options.jsonLogs, "json-logs", false, "emit JSON logs instead of console output")

	root.AddCommand(runCmd(options))
	return root
}

func consoleLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

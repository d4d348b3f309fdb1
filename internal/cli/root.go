// Package cli wires the sqlxgen command surface, adapted from
// leapstack-labs-leapsql's internal/cli/root.go: a persistent flag set
// shared across subcommands, cobra.Command construction split one file
// per subcommand, a zap logger threaded through via the command context.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type loggerKey struct{}

var (
	verboseFlag bool
	logger      *zap.Logger
)

// NewRootCmd builds the root sqlxgen command and its subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sqlxgen",
		Short: "Generate database/sql repository implementations from interface markers",
		Long: `sqlxgen scans a Go package for repository-shaped interfaces marked with the
attrs.RepositoryFor marker and +sqlxgen:* doc-comment directives, then emits
one database/sql-backed implementation file per marked struct.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := zap.NewDevelopmentConfig()
			if !verboseFlag {
				cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("cli: build logger: %w", err)
			}
			logger = l
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, l))
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newGenerateCommand())
	root.AddCommand(newDiagnosticsCommand())
	return root
}

// Execute runs the root command.
func Execute() error {
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func loggerFrom(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

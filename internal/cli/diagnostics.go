package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqlxgen/sqlxgen/config"
	"github.com/sqlxgen/sqlxgen/diag"
	"github.com/sqlxgen/sqlxgen/dialect"
	"github.com/sqlxgen/sqlxgen/discovery"
	"github.com/sqlxgen/sqlxgen/driver"
)

func newDiagnosticsCommand() *cobra.Command {
	var dialectName string

	cmd := &cobra.Command{
		Use:   "diagnostics [package]",
		Short: "Run discovery and inference without writing any files",
		Long: `diagnostics runs the same discovery, inference, and rendering passes as
generate but discards the emitted source, printing only the collected
GENnnn diagnostics. Useful in CI to catch template/expression errors before
committing generated output.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) == 1 {
				target = args[0]
			}
			return runDiagnostics(cmd, target, dialectName)
		},
	}

	cmd.Flags().StringVar(&dialectName, "dialect", "", "Default SQL dialect when a repository specifies none")
	return cmd
}

func runDiagnostics(cmd *cobra.Command, target, dialectName string) error {
	log := loggerFrom(cmd.Context())

	defaultDialectKind := dialect.PostgreSQL
	if dialectName != "" {
		kind, err := parseDialectKind(dialectName)
		if err != nil {
			return fmt.Errorf("diagnostics: %w", err)
		}
		defaultDialectKind = kind
	}

	repos, warnings, err := discovery.Load(target, dialect.Lookup(defaultDialectKind))
	if err != nil {
		return fmt.Errorf("diagnostics: %w", err)
	}
	for _, w := range warnings {
		fmt.Fprintln(cmd.OutOrStdout(), w)
	}
	if len(repos) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no repository markers found")
		return nil
	}

	cfgOpts := []config.Option{config.WithOutDir("."), config.WithDefaultDialect(defaultDialectKind)}
	cfg, err := config.New(cfgOpts...)
	if err != nil {
		return fmt.Errorf("diagnostics: %w", err)
	}

	drv := driver.New(cfg, log)
	if _, err := drv.Run(repos); err != nil {
		return fmt.Errorf("diagnostics: %w", err)
	}

	diags := drv.Sink().All()
	for _, d := range diags {
		fmt.Fprintln(cmd.OutOrStdout(), d.String())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d diagnostic(s)\n", len(diags))
	if drv.Sink().HasErrors() {
		errCount := 0
		for _, d := range diags {
			if d.Severity == diag.Error {
				errCount++
			}
		}
		return fmt.Errorf("diagnostics: %d error-level diagnostic(s)", errCount)
	}
	return nil
}

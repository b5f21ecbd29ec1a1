// Package cli implements the optimize command line tool.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stockdash/stockdash/pkg/logger"
)

type rootOptions struct {
	format   string
	logLevel string
}

// NewRootCommand builds the optimize command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "optimize",
		Short: "Markowitz portfolio optimizer",
		Long: `optimize computes long-only, fully-invested mean-variance portfolios.

Examples:
  optimize run --file request.yaml
  optimize fetch --symbols AAPL,MSFT,NVDA --objective max_sortino
  optimize fetch --symbols AAPL,MSFT --frontier 10 --format json`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return validateFormat(opts.format)
		},
	}

	root.PersistentFlags().StringVar(&opts.format, "format", FormatTable, "Output format (table|json)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")

	root.AddCommand(
		newRunCommand(opts),
		newFetchCommand(opts),
		newObjectivesCommand(opts),
	)
	return root
}

// logger writes to the command's stderr so stdout stays parseable.
func (o *rootOptions) logger(cmd *cobra.Command) zerolog.Logger {
	return logger.New(logger.Config{
		Level:  o.logLevel,
		Pretty: true,
		Output: cmd.ErrOrStderr(),
	})
}

func newObjectivesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "objectives",
		Short: "List the supported optimization objectives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			objectives := optimizationObjectives()
			if opts.format == FormatJSON {
				return writeJSON(cmd.OutOrStdout(), objectives)
			}
			return writeObjectivesTable(cmd.OutOrStdout(), objectives)
		},
	}
}

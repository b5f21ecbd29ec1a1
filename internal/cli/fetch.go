package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stockdash/stockdash/internal/config"
	"github.com/stockdash/stockdash/internal/di"
	"github.com/stockdash/stockdash/internal/modules/marketdata"
	"github.com/stockdash/stockdash/internal/modules/optimization"
)

type fetchOptions struct {
	symbols      string
	objective    string
	period       string
	targetReturn float64
	riskFreeRate float64
	offline      bool
	frontier     int
}

func newFetchCommand(opts *rootOptions) *cobra.Command {
	f := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Optimize a portfolio using market data",
		Long: `Fetch price history for the given symbols (Yahoo Finance, falling back to
the local history database and synthetic data), derive expected returns and
covariance, and optimize. Configuration is read from the environment and .env
the same way the server reads it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if f.offline {
				cfg.Offline = true
			}

			log := opts.logger(cmd)
			container, _, err := di.Wire(cfg, log)
			if err != nil {
				return err
			}
			defer container.Close()

			symbols := marketdata.ParseSymbolList(f.symbols)
			var rf *float64
			if cmd.Flags().Changed("risk-free-rate") {
				rf = &f.riskFreeRate
			}

			if f.frontier > 0 {
				res, err := container.OptimizationService.Frontier(cmd.Context(), optimization.FrontierRequest{
					Symbols:      symbols,
					Period:       f.period,
					RiskFreeRate: rf,
					Points:       f.frontier,
				})
				if err != nil {
					return err
				}
				return writeFrontier(cmd.OutOrStdout(), opts.format, res)
			}

			req := optimization.RunRequest{
				Symbols:      symbols,
				Objective:    f.objective,
				Period:       f.period,
				RiskFreeRate: rf,
			}
			if cmd.Flags().Changed("target-return") {
				req.TargetReturn = &f.targetReturn
			}

			res, err := container.OptimizationService.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeRunResult(cmd.OutOrStdout(), opts.format, res)
		},
	}

	cmd.Flags().StringVar(&f.symbols, "symbols", "", "Comma separated symbols")
	cmd.Flags().StringVar(&f.objective, "objective", string(optimization.ObjectiveMaxSharpe), "Optimization objective")
	cmd.Flags().StringVar(&f.period, "period", "", "History period (1D|1W|1M|3M|6M|1Y), defaults to DEFAULT_PERIOD")
	cmd.Flags().Float64Var(&f.targetReturn, "target-return", 0, "Annual target return for target_return")
	cmd.Flags().Float64Var(&f.riskFreeRate, "risk-free-rate", 0, "Override the configured risk-free rate")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "Do not call Yahoo Finance")
	cmd.Flags().IntVar(&f.frontier, "frontier", 0, "Sample the efficient frontier with this many target points instead")
	_ = cmd.MarkFlagRequired("symbols")
	return cmd
}

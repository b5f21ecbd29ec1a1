package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stockdash/stockdash/internal/modules/optimization"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	var (
		file      string
		objective string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Optimize explicit expected returns and covariance from a file",
		Long: `Run the optimizer on explicit inputs. The request file holds symbols,
expected_returns, covariance_matrix and optionally risk_free_rate, objective,
target_return and historical_returns. Use --file - to read stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := LoadRequest(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("objective") {
				req.Objective = objective
			}

			sol, err := Solve(req, opts.logger(cmd))
			if err != nil {
				return err
			}
			return writeSolution(cmd.OutOrStdout(), opts.format, *sol)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Request file (YAML or JSON)")
	cmd.Flags().StringVar(&objective, "objective", "", "Override the request objective")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// Solve optimizes an explicit request.
func Solve(req *Request, log zerolog.Logger) (*Solution, error) {
	objective, err := optimization.ParseObjective(req.Objective)
	if err != nil {
		return nil, err
	}

	rf := optimization.DefaultRiskFreeRate
	if req.RiskFreeRate != nil {
		rf = *req.RiskFreeRate
	}

	optimizer := optimization.NewMarkowitzOptimizer(rf, log)
	res, err := optimizer.Optimize(req.Inputs, objective, req.options())
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}
	if err := optimization.ValidateWeights(res.Weights); err != nil {
		return nil, err
	}

	allocations := make([]optimization.Allocation, len(req.Symbols))
	for i, symbol := range req.Symbols {
		allocations[i] = optimization.Allocation{Symbol: symbol, Weight: res.Weights[i]}
	}

	return &Solution{
		Objective:    objective,
		RiskFreeRate: rf,
		Allocations:  allocations,
		Portfolio:    res,
	}, nil
}

func optimizationObjectives() []optimization.ObjectiveInfo {
	return optimization.Objectives()
}

func writeObjectivesTable(out io.Writer, objectives []optimization.ObjectiveInfo) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OBJECTIVE\tTARGET\tDESCRIPTION")
	for _, o := range objectives {
		target := "-"
		if o.NeedsTarget {
			target = "required"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", o.Name, target, o.Description)
	}
	return w.Flush()
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/stockdash/stockdash/internal/modules/optimization"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

func validateFormat(format string) error {
	switch format {
	case FormatTable, FormatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported format %q (table|json)", format)
	}
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Solution is the outcome of an explicit-input optimization.
type Solution struct {
	Objective    optimization.Objective    `json:"objective"`
	RiskFreeRate float64                   `json:"risk_free_rate"`
	Allocations  []optimization.Allocation `json:"allocations"`
	Portfolio    optimization.Result       `json:"portfolio"`
}

func writeAllocationTable(out io.Writer, allocations []optimization.Allocation, portfolio optimization.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tWEIGHT")
	for _, a := range allocations {
		fmt.Fprintf(w, "%s\t%.2f%%\n", a.Symbol, a.Weight*100)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Expected return\t%.2f%%\n", portfolio.ExpectedReturn*100)
	fmt.Fprintf(w, "Volatility\t%.2f%%\n", portfolio.Volatility*100)
	fmt.Fprintf(w, "Sharpe ratio\t%.4f\n", portfolio.SharpeRatio)
	fmt.Fprintf(w, "Sortino ratio\t%.4f\n", portfolio.SortinoRatio)
	if portfolio.Degraded() {
		fmt.Fprintf(w, "Fallback\t%s\n", portfolio.FallbackReason)
	}
	return w.Flush()
}

func writeSolution(out io.Writer, format string, s Solution) error {
	if format == FormatJSON {
		return writeJSON(out, s)
	}
	fmt.Fprintf(out, "Objective: %s (risk-free rate %.2f%%)\n\n", s.Objective, s.RiskFreeRate*100)
	return writeAllocationTable(out, s.Allocations, s.Portfolio)
}

func writeRunResult(out io.Writer, format string, r *optimization.RunResult) error {
	if format == FormatJSON {
		return writeJSON(out, r)
	}
	fmt.Fprintf(out, "Run %s\nObjective: %s  Period: %s  Risk-free rate: %.2f%%\n\n",
		r.RunID, r.Objective, r.Period, r.RiskFreeRate*100)
	if err := writeAllocationTable(out, r.Allocations, r.Portfolio); err != nil {
		return err
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ASSET\tRETURN\tVOLATILITY\tSHARPE\tOBS\tSOURCE")
	for _, a := range r.Assets {
		fmt.Fprintf(w, "%s\t%.2f%%\t%.2f%%\t%.4f\t%d\t%s\n",
			a.Symbol, a.ExpectedReturn*100, a.Volatility*100, a.SharpeRatio, a.Observations, a.Source)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(out, "\nWarnings:\n  %s\n", strings.Join(r.Warnings, "\n  "))
	}
	return nil
}

func writeFrontier(out io.Writer, format string, f *optimization.FrontierResult) error {
	if format == FormatJSON {
		return writeJSON(out, f)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "KIND\tRETURN\tVOLATILITY\tSHARPE\t%s\n", strings.Join(f.Symbols, "\t"))
	for _, p := range f.Points {
		weights := make([]string, len(p.Weights))
		for i, wt := range p.Weights {
			weights[i] = fmt.Sprintf("%.1f%%", wt*100)
		}
		fmt.Fprintf(w, "%s\t%.2f%%\t%.2f%%\t%.4f\t%s\n",
			p.Kind, p.ExpectedReturn*100, p.Volatility*100, p.SharpeRatio, strings.Join(weights, "\t"))
	}
	return w.Flush()
}

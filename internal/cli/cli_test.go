package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockdash/stockdash/internal/modules/optimization"
)

const minVarianceRequest = `
symbols: [AAPL, MSFT]
expected_returns: [0.12, 0.08]
covariance_matrix:
  - [0.04, 0.0]
  - [0.0, 0.01]
objective: min_variance
risk_free_rate: 0.01
`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeRequest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "request.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest([]byte(minVarianceRequest))
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT"}, req.Symbols)
	assert.Equal(t, []float64{0.12, 0.08}, req.ExpectedReturns)
	assert.Len(t, req.CovarianceMatrix, 2)
	assert.Equal(t, "min_variance", req.Objective)
	require.NotNil(t, req.RiskFreeRate)
	assert.Equal(t, 0.01, *req.RiskFreeRate)
	assert.Nil(t, req.TargetReturn)
}

func TestParseRequest_JSON(t *testing.T) {
	req, err := ParseRequest([]byte(`{"symbols":["A"],"expected_returns":[0.1],"covariance_matrix":[[0.02]],"target_return":0.1}`))
	require.NoError(t, err)
	require.NotNil(t, req.TargetReturn)
	assert.Equal(t, 0.1, *req.TargetReturn)
}

func TestParseRequest_Errors(t *testing.T) {
	_, err := ParseRequest([]byte(""))
	assert.Error(t, err)

	_, err = ParseRequest([]byte("symbols: [A]\nunknown_key: 1\n"))
	assert.Error(t, err)
}

func TestSolve(t *testing.T) {
	req, err := ParseRequest([]byte(minVarianceRequest))
	require.NoError(t, err)

	sol, err := Solve(req, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, optimization.ObjectiveMinVariance, sol.Objective)
	assert.Equal(t, 0.01, sol.RiskFreeRate)
	require.Len(t, sol.Allocations, 2)
	assert.Equal(t, "AAPL", sol.Allocations[0].Symbol)
	assert.InDelta(t, 0.2, sol.Allocations[0].Weight, 1e-9)
	assert.InDelta(t, 0.8, sol.Allocations[1].Weight, 1e-9)
}

func TestSolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown objective", "symbols: [A]\nexpected_returns: [0.1]\ncovariance_matrix: [[0.02]]\nobjective: nope\n"},
		{"missing target", "symbols: [A]\nexpected_returns: [0.1]\ncovariance_matrix: [[0.02]]\nobjective: target_return\n"},
		{"dimension mismatch", "symbols: [A, B]\nexpected_returns: [0.1]\ncovariance_matrix: [[0.02]]\n"},
		{"no assets", "objective: max_sharpe\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest([]byte(tt.doc))
			require.NoError(t, err)
			_, err = Solve(req, zerolog.Nop())
			assert.Error(t, err)
		})
	}
}

func TestRunCommand_Table(t *testing.T) {
	out, err := execute(t, "", "run", "--file", writeRequest(t, minVarianceRequest))
	require.NoError(t, err)

	assert.Contains(t, out, "Objective: min_variance")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "20.00%")
	assert.Contains(t, out, "80.00%")
}

func TestRunCommand_JSONFromStdin(t *testing.T) {
	out, err := execute(t, minVarianceRequest, "run", "--file", "-", "--objective", "max_sharpe", "--format", "json")
	require.NoError(t, err)

	var sol Solution
	require.NoError(t, json.Unmarshal([]byte(out), &sol))
	assert.Equal(t, optimization.ObjectiveMaxSharpe, sol.Objective)
	require.Len(t, sol.Portfolio.Weights, 2)
	assert.NoError(t, optimization.ValidateWeights(sol.Portfolio.Weights))
}

func TestRunCommand_Errors(t *testing.T) {
	_, err := execute(t, "", "run")
	assert.Error(t, err)

	_, err = execute(t, "", "run", "--file", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = execute(t, "", "run", "--file", writeRequest(t, minVarianceRequest), "--format", "xml")
	assert.Error(t, err)
}

func TestObjectivesCommand(t *testing.T) {
	out, err := execute(t, "", "objectives")
	require.NoError(t, err)
	assert.Contains(t, out, "target_return")
	assert.Contains(t, out, "required")

	out, err = execute(t, "", "objectives", "--format", "json")
	require.NoError(t, err)
	var objectives []optimization.ObjectiveInfo
	require.NoError(t, json.Unmarshal([]byte(out), &objectives))
	assert.Len(t, objectives, 4)
}

func TestFetchCommand_Offline(t *testing.T) {
	t.Setenv("STOCKDASH_DATA_DIR", t.TempDir())

	out, err := execute(t, "", "fetch", "--symbols", "aapl, msft", "--offline", "--period", "6M", "--format", "json")
	require.NoError(t, err)

	var res optimization.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, optimization.ObjectiveMaxSharpe, res.Objective)
	require.Len(t, res.Allocations, 2)
	assert.Equal(t, "AAPL", res.Allocations[0].Symbol)
	assert.Len(t, res.Warnings, 2)
}

func TestFetchCommand_Frontier(t *testing.T) {
	t.Setenv("STOCKDASH_DATA_DIR", t.TempDir())

	out, err := execute(t, "", "fetch", "--symbols", "AAPL,MSFT,NVDA", "--offline", "--frontier", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "min_variance")
	assert.Contains(t, out, "NVDA")
}

func TestFetchCommand_RequiresSymbols(t *testing.T) {
	_, err := execute(t, "", "fetch", "--offline")
	assert.Error(t, err)
}

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stockdash/stockdash/internal/modules/optimization"
)

// Request is an optimization over explicit inputs, loaded from a YAML (or
// JSON) file.
type Request struct {
	optimization.Inputs `yaml:",inline"`

	Objective         string      `yaml:"objective"`
	RiskFreeRate      *float64    `yaml:"risk_free_rate"`
	TargetReturn      *float64    `yaml:"target_return"`
	HistoricalReturns [][]float64 `yaml:"historical_returns"`
}

// LoadRequest reads and decodes a request file. "-" reads stdin.
func LoadRequest(path string, stdin io.Reader) (*Request, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	return ParseRequest(data)
}

// ParseRequest decodes a request document. Unknown keys are rejected.
func ParseRequest(data []byte) (*Request, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var req Request
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode request: empty document")
		}
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &req, nil
}

// options builds the optimizer options for the request.
func (r *Request) options() optimization.Options {
	return optimization.Options{
		TargetReturn:      r.TargetReturn,
		HistoricalReturns: r.HistoricalReturns,
	}
}

package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/aegis-analytics/internal/contracts"
	"github.com/wonny/aegis-analytics/internal/metrics"
)

// Input is either a TickerInput or a CSVInput
type Input interface {
	Describe() string
	isInput()
}

// TickerInput builds a side from one or more tickers.
// Weights is empty (equal weight), keyed or positional.
type TickerInput struct {
	Tickers []string `json:"tickers"`
	Weights string   `json:"weights,omitempty"`
}

func (in TickerInput) Describe() string {
	d := strings.Join(in.Tickers, ",")
	if in.Weights != "" {
		d += " [" + in.Weights + "]"
	}
	return d
}
func (TickerInput) isInput() {}

// CSVInput reads a side from a two-column file
type CSVInput struct {
	Path   string                `json:"path"`
	Format contracts.ValueFormat `json:"format"`
}

func (in CSVInput) Describe() string { return fmt.Sprintf("%s (%s)", in.Path, in.Format) }
func (CSVInput) isInput()            {}

// Request is one analysis run
type Request struct {
	Portfolio      Input
	Benchmark      Input
	Extras         []string
	Range          contracts.DateRange
	CacheDays      int
	InitialCapital float64 // 0이면 1.0
	Options        metrics.Options
}

// Validate checks the request shape. Weight validation happens in Run.
func (r *Request) Validate() error {
	if r.Portfolio == nil {
		return fmt.Errorf("portfolio input is required")
	}
	if r.Benchmark == nil {
		return fmt.Errorf("benchmark input is required")
	}
	for side, in := range map[string]Input{contracts.ColumnPortfolio: r.Portfolio, contracts.ColumnBenchmark: r.Benchmark} {
		switch v := in.(type) {
		case TickerInput:
			// 빈 목록은 WeightResolver가 EmptyTickers로 처리
		case CSVInput:
			if v.Path == "" {
				return fmt.Errorf("%s csv path is required", side)
			}
			if _, err := contracts.ParseValueFormat(string(v.Format)); err != nil {
				return fmt.Errorf("%s: %w", side, err)
			}
		default:
			return fmt.Errorf("%s: unsupported input %T", side, in)
		}
	}
	if r.InitialCapital < 0 || math.IsNaN(r.InitialCapital) || math.IsInf(r.InitialCapital, 0) {
		return fmt.Errorf("initial capital must be > 0, got %v", r.InitialCapital)
	}
	if r.CacheDays < 0 {
		return fmt.Errorf("cache days must be >= 0, got %d", r.CacheDays)
	}
	return metrics.NewEngine(r.Options).Options().Validate()
}

// capital returns the buy-and-hold starting value, 1.0 when unset
func (r *Request) capital() float64 {
	if r.InitialCapital == 0 {
		return 1.0
	}
	return r.InitialCapital
}

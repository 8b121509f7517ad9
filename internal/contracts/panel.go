package contracts

import (
	"encoding/json"
	"math"
	"time"
)

// Canonical panel column names
const (
	ColumnPortfolio = "portfolio"
	ColumnBenchmark = "benchmark"
)

// ReturnPanel is the outer-joined, date-aligned return table.
// Every column has len(Dates) entries, NaN marks a gap (never zero).
// ⭐ SSOT: PanelBuilder → MetricsEngine, report 계층은 읽기 전용
type ReturnPanel struct {
	Dates   []time.Time
	Names   []string // column order
	Columns map[string][]float64
}

// Len returns the number of panel rows
func (p *ReturnPanel) Len() int {
	return len(p.Dates)
}

// Column returns the raw column including gaps
func (p *ReturnPanel) Column(name string) ([]float64, bool) {
	col, ok := p.Columns[name]
	return col, ok
}

// Series returns the column's own non-missing observations
func (p *ReturnPanel) Series(name string) (ReturnSeries, bool) {
	col, ok := p.Columns[name]
	if !ok {
		return ReturnSeries{}, false
	}

	out := ReturnSeries{Name: name}
	for i, v := range col {
		if math.IsNaN(v) {
			continue
		}
		out.Points = append(out.Points, Point{Date: p.Dates[i], Value: v})
	}
	return out, true
}

// Overlap returns the dates where both a and b are observed, with the aligned values
func (p *ReturnPanel) Overlap(a, b string) ([]time.Time, []float64, []float64) {
	colA, okA := p.Columns[a]
	colB, okB := p.Columns[b]
	if !okA || !okB {
		return nil, nil, nil
	}

	var dates []time.Time
	var xs, ys []float64
	for i := range p.Dates {
		if math.IsNaN(colA[i]) || math.IsNaN(colB[i]) {
			continue
		}
		dates = append(dates, p.Dates[i])
		xs = append(xs, colA[i])
		ys = append(ys, colB[i])
	}
	return dates, xs, ys
}

// MarshalJSON renders gaps as null
func (p *ReturnPanel) MarshalJSON() ([]byte, error) {
	dates := make([]string, len(p.Dates))
	for i, d := range p.Dates {
		dates[i] = d.Format(DateLayout)
	}

	cols := make(map[string][]*float64, len(p.Columns))
	for name, col := range p.Columns {
		cols[name] = nullableSlice(col)
	}

	return json.Marshal(struct {
		Dates   []string              `json:"dates"`
		Names   []string              `json:"names"`
		Columns map[string][]*float64 `json:"columns"`
	}{dates, p.Names, cols})
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nullableSlice(vs []float64) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = nullable(v)
	}
	return out
}

package contracts

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the calendar date format used across inputs, cache keys and reports
const DateLayout = "2006-01-02"

// NormalizeDate truncates t to its calendar day in UTC
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Point is one dated observation
type Point struct {
	Date  time.Time
	Value float64
}

type pointJSON struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// MarshalJSON writes the date as YYYY-MM-DD and NaN as null
func (p Point) MarshalJSON() ([]byte, error) {
	out := pointJSON{Date: p.Date.Format(DateLayout)}
	if !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0) {
		v := p.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the MarshalJSON form, null becomes NaN
func (p *Point) UnmarshalJSON(data []byte) error {
	var in pointJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	d, err := ParseDate(in.Date)
	if err != nil {
		return err
	}
	p.Date = d
	p.Value = math.NaN()
	if in.Value != nil {
		p.Value = *in.Value
	}
	return nil
}

// PriceSeries is an adjusted close path for one ticker, ascending unique dates
// ⭐ 불변: 로드/수집 이후 수정하지 않음
type PriceSeries struct {
	Ticker string  `json:"ticker"`
	Points []Point `json:"points"`
}

// Len returns the number of prices
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// ReturnSeries holds simple returns r[i] = p[i]/p[i-1] - 1
type ReturnSeries struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Len returns the number of observations
func (s ReturnSeries) Len() int {
	return len(s.Points)
}

// Values returns the return values in date order
func (s ReturnSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Dates returns the observation dates
func (s ReturnSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Date
	}
	return out
}

// Rename returns a copy of the series under a new name sharing the points
func (s ReturnSeries) Rename(name string) ReturnSeries {
	return ReturnSeries{Name: name, Points: s.Points}
}

// DateRange is an inclusive calendar range.
// Zero Start means unbounded, zero End means latest available.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParseDateRange builds a range from YYYY-MM-DD strings, empty strings stay open
func ParseDateRange(start, end string) (DateRange, error) {
	var rng DateRange
	var err error

	if start != "" {
		if rng.Start, err = ParseDate(start); err != nil {
			return DateRange{}, err
		}
	}
	if end != "" {
		if rng.End, err = ParseDate(end); err != nil {
			return DateRange{}, err
		}
	}
	if !rng.Start.IsZero() && !rng.End.IsZero() && rng.End.Before(rng.Start) {
		return DateRange{}, fmt.Errorf("end %s is before start %s", end, start)
	}
	return rng, nil
}

// OpenEnd reports whether the range runs to the latest available date
func (r DateRange) OpenEnd() bool {
	return r.End.IsZero()
}

// Contains reports whether d falls inside the range
func (r DateRange) Contains(d time.Time) bool {
	if !r.Start.IsZero() && d.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && d.After(r.End) {
		return false
	}
	return true
}

// StartString returns the start date or "" when unbounded
func (r DateRange) StartString() string {
	if r.Start.IsZero() {
		return ""
	}
	return r.Start.Format(DateLayout)
}

// EndString returns the end date or "latest" when open
func (r DateRange) EndString() string {
	if r.End.IsZero() {
		return "latest"
	}
	return r.End.Format(DateLayout)
}

func (r DateRange) String() string {
	start := r.StartString()
	if start == "" {
		start = "earliest"
	}
	return start + ".." + r.EndString()
}

// ValueFormat tells how the value column of a CSV input is interpreted
type ValueFormat string

const (
	FormatReturns ValueFormat = "returns"
	FormatPrices  ValueFormat = "prices"
)

// ParseValueFormat accepts "returns" or "prices" (case-insensitive)
func ParseValueFormat(s string) (ValueFormat, error) {
	switch ValueFormat(strings.ToLower(strings.TrimSpace(s))) {
	case FormatReturns:
		return FormatReturns, nil
	case FormatPrices:
		return FormatPrices, nil
	default:
		return "", fmt.Errorf("unknown value format %q: expected returns or prices", s)
	}
}

// Weight is one ticker allocation
type Weight struct {
	Ticker string  `json:"ticker"`
	Value  float64 `json:"weight"`
}

// WeightVector is an ordered allocation that sums to 1.0
// ⭐ 포트폴리오 구성 중에만 존재 (정규화 없음)
type WeightVector []Weight

// Sum returns the total weight
func (w WeightVector) Sum() float64 {
	total := 0.0
	for _, x := range w {
		total += x.Value
	}
	return total
}

// Get returns the weight of ticker
func (w WeightVector) Get(ticker string) (float64, bool) {
	for _, x := range w {
		if x.Ticker == ticker {
			return x.Value, true
		}
	}
	return 0, false
}

// Tickers returns the tickers in allocation order
func (w WeightVector) Tickers() []string {
	out := make([]string, len(w))
	for i, x := range w {
		out[i] = x.Ticker
	}
	return out
}

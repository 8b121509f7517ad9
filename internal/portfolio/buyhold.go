package portfolio

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/aegis-analytics/internal/contracts"
)

// BuyAndHold simulates allocating v0 by weights once and never rebalancing.
//
// Each constituent compounds its own returns, positions are summed per date
// and the portfolio return series is derived from that aggregate value path.
// The window is [latest first date, earliest last date] over the constituents;
// a constituent without an observation on a window date keeps its last value.
func BuyAndHold(name string, weights contracts.WeightVector, series map[string]contracts.ReturnSeries, v0 float64) (contracts.ReturnSeries, error) {
	if v0 <= 0 {
		return contracts.ReturnSeries{}, fmt.Errorf("initial capital must be > 0, got %v", v0)
	}
	if len(weights) == 0 {
		return contracts.ReturnSeries{}, fmt.Errorf("buy-and-hold: empty weight vector")
	}

	var start, end time.Time
	for i, w := range weights {
		s, ok := series[w.Ticker]
		if !ok {
			return contracts.ReturnSeries{}, fmt.Errorf("buy-and-hold: no series for %s", w.Ticker)
		}
		if s.Len() == 0 {
			return contracts.ReturnSeries{}, fmt.Errorf("buy-and-hold: %s has no returns: %w", w.Ticker, contracts.ErrInsufficientData)
		}
		first, last := s.Points[0].Date, s.Points[s.Len()-1].Date
		if i == 0 || first.After(start) {
			start = first
		}
		if i == 0 || last.Before(end) {
			end = last
		}
	}
	if start.After(end) {
		return contracts.ReturnSeries{}, fmt.Errorf("buy-and-hold: constituents share no common history (%s > %s): %w",
			start.Format(contracts.DateLayout), end.Format(contracts.DateLayout), contracts.ErrInsufficientData)
	}

	// 구간 내 날짜 합집합
	dateSet := make(map[time.Time]struct{})
	lookup := make(map[string]map[time.Time]float64, len(weights))
	for _, w := range weights {
		byDate := make(map[time.Time]float64)
		for _, p := range series[w.Ticker].Points {
			if p.Date.Before(start) || p.Date.After(end) {
				continue
			}
			byDate[p.Date] = p.Value
			dateSet[p.Date] = struct{}{}
		}
		lookup[w.Ticker] = byDate
	}
	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	growth := make([]float64, len(weights))
	for i := range growth {
		growth[i] = 1.0
	}

	out := contracts.ReturnSeries{Name: name, Points: make([]contracts.Point, 0, len(dates))}
	prev := v0
	for _, d := range dates {
		value := 0.0
		for i, w := range weights {
			if r, ok := lookup[w.Ticker][d]; ok {
				growth[i] *= 1 + r
			}
			value += v0 * w.Value * growth[i]
		}
		out.Points = append(out.Points, contracts.Point{Date: d, Value: value/prev - 1})
		prev = value
	}

	return out, nil
}

// Package panel merges return series into one outer-joined ReturnPanel.
package panel

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wonny/aegis-analytics/internal/contracts"
)

// Build joins portfolio, benchmark and extras on date.
// Columns are "portfolio", "benchmark", then each extra under its upper-cased name.
func Build(portfolio, benchmark contracts.ReturnSeries, extras ...contracts.ReturnSeries) (*contracts.ReturnPanel, error) {
	cols := make([]contracts.ReturnSeries, 0, 2+len(extras))
	cols = append(cols,
		portfolio.Rename(contracts.ColumnPortfolio),
		benchmark.Rename(contracts.ColumnBenchmark),
	)
	for _, e := range extras {
		cols = append(cols, e.Rename(strings.ToUpper(strings.TrimSpace(e.Name))))
	}
	return Join(cols...)
}

// Join outer-joins the series on date. Gaps are NaN, never zero.
func Join(series ...contracts.ReturnSeries) (*contracts.ReturnPanel, error) {
	p := &contracts.ReturnPanel{
		Names:   make([]string, 0, len(series)),
		Columns: make(map[string][]float64, len(series)),
	}

	dateSet := make(map[time.Time]struct{})
	for _, s := range series {
		if s.Name == "" {
			return nil, fmt.Errorf("panel column without a name")
		}
		if _, dup := p.Columns[s.Name]; dup {
			return nil, fmt.Errorf("duplicate panel column %q", s.Name)
		}
		p.Columns[s.Name] = nil
		p.Names = append(p.Names, s.Name)

		seen := make(map[time.Time]struct{}, len(s.Points))
		for _, pt := range s.Points {
			if _, dup := seen[pt.Date]; dup {
				return nil, fmt.Errorf("column %q has duplicate date %s", s.Name, pt.Date.Format(contracts.DateLayout))
			}
			seen[pt.Date] = struct{}{}
			dateSet[pt.Date] = struct{}{}
		}
	}

	p.Dates = make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		p.Dates = append(p.Dates, d)
	}
	sort.Slice(p.Dates, func(i, j int) bool { return p.Dates[i].Before(p.Dates[j]) })

	index := make(map[time.Time]int, len(p.Dates))
	for i, d := range p.Dates {
		index[d] = i
	}

	for _, s := range series {
		col := make([]float64, len(p.Dates))
		for i := range col {
			col[i] = math.NaN()
		}
		for _, pt := range s.Points {
			col[index[pt.Date]] = pt.Value
		}
		p.Columns[s.Name] = col
	}

	return p, nil
}

package series

import (
	"github.com/wonny/aegis-analytics/internal/contracts"
)

// Truncate keeps the points inside rng. Input must be date ascending.
func Truncate(points []contracts.Point, rng contracts.DateRange) []contracts.Point {
	out := make([]contracts.Point, 0, len(points))
	for _, p := range points {
		if rng.Contains(p.Date) {
			out = append(out, p)
		}
	}
	return out
}

// ToReturns converts a price path into simple returns p[i]/p[i-1] - 1.
// The first date is dropped, so n prices give n-1 returns.
func ToReturns(name string, prices []contracts.Point) contracts.ReturnSeries {
	out := contracts.ReturnSeries{Name: name}
	if len(prices) < 2 {
		return out
	}

	out.Points = make([]contracts.Point, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out.Points = append(out.Points, contracts.Point{
			Date:  prices[i].Date,
			Value: prices[i].Value/prices[i-1].Value - 1,
		})
	}
	return out
}

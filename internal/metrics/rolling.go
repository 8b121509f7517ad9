package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/aegis-analytics/internal/contracts"
)

// rolling applies fn to every full window of s.
// The first window-1 observations produce no row.
func rolling(s contracts.ReturnSeries, name string, window int, fn func([]float64) float64) contracts.ReturnSeries {
	out := contracts.ReturnSeries{Name: name}
	if window < 1 || s.Len() < window {
		return out
	}

	values := s.Values()
	out.Points = make([]contracts.Point, 0, s.Len()-window+1)
	for i := window - 1; i < len(values); i++ {
		out.Points = append(out.Points, contracts.Point{
			Date:  s.Points[i].Date,
			Value: fn(values[i-window+1 : i+1]),
		})
	}
	return out
}

// RollingVolatility is the windowed sample std × √periodsPerYear
func RollingVolatility(s contracts.ReturnSeries, window, periodsPerYear int) contracts.ReturnSeries {
	ann := math.Sqrt(float64(periodsPerYear))
	return rolling(s, contracts.SeriesRollingVolatility, window, func(w []float64) float64 {
		return stat.StdDev(w, nil) * ann
	})
}

// RollingSharpe is the windowed excess mean/std × √periodsPerYear, NaN on a flat window
func RollingSharpe(s contracts.ReturnSeries, window, periodsPerYear int, riskFree float64) contracts.ReturnSeries {
	ann := math.Sqrt(float64(periodsPerYear))
	rfPeriod := riskFree / float64(periodsPerYear)
	return rolling(s, contracts.SeriesRollingSharpe, window, func(w []float64) float64 {
		mean, std := stat.MeanStdDev(w, nil)
		if std < zeroTolerance {
			return math.NaN()
		}
		return (mean - rfPeriod) / std * ann
	})
}

// EquityCurve is the growth of 1.0 on each observation date
func EquityCurve(s contracts.ReturnSeries) contracts.ReturnSeries {
	path := EquityPath(s.Values())
	out := contracts.ReturnSeries{Name: contracts.SeriesEquityCurve, Points: make([]contracts.Point, s.Len())}
	for i, p := range s.Points {
		out.Points[i] = contracts.Point{Date: p.Date, Value: path[i+1]}
	}
	return out
}

// DrawdownSeries is value/running peak - 1 on each observation date, peak starting at 1.0
func DrawdownSeries(s contracts.ReturnSeries) contracts.ReturnSeries {
	path := EquityPath(s.Values())
	out := contracts.ReturnSeries{Name: contracts.SeriesDrawdown, Points: make([]contracts.Point, s.Len())}
	peak := path[0]
	for i, p := range s.Points {
		v := path[i+1]
		peak = math.Max(peak, v)
		out.Points[i] = contracts.Point{Date: p.Date, Value: v/peak - 1}
	}
	return out
}

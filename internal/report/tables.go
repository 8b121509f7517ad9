package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wonny/aegis-analytics/internal/contracts"
	"github.com/wonny/aegis-analytics/internal/metrics"
)

// Table is a small row-labelled matrix
type Table struct {
	Keys []string
	Rows []Row
}

type Row struct {
	Label  string
	Values []float64
}

// CoreTable lists the core metrics for every panel column
func CoreTable(p *contracts.ReturnPanel, r *contracts.MetricsReport) Table {
	t := Table{Keys: contracts.CoreMetricKeys}
	for _, name := range p.Names {
		t.Rows = append(t.Rows, Row{Label: name, Values: pick(r.Columns[name], t.Keys)})
	}
	return t
}

// RelativeTable lists benchmark-relative stats for every non-benchmark column
func RelativeTable(p *contracts.ReturnPanel, r *contracts.MetricsReport) Table {
	t := Table{Keys: contracts.RelativeMetricKeys}
	for _, name := range p.Names {
		if name == r.Benchmark {
			continue
		}
		t.Rows = append(t.Rows, Row{Label: name, Values: pick(r.Columns[name], t.Keys)})
	}
	return t
}

func pick(stats map[string]float64, keys []string) []float64 {
	out := make([]float64, len(keys))
	for i, k := range keys {
		v, ok := stats[k]
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

// formatCell rounds to 6 decimals, NaN becomes an empty cell
func formatCell(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(math.Round(v*1e6)/1e6, 'f', -1, 64)
}

// WriteCSV writes the table with a leading label column
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{""}, t.Keys...)); err != nil {
		return err
	}
	for _, row := range t.Rows {
		rec := make([]string, 0, len(row.Values)+1)
		rec = append(rec, row.Label)
		for _, v := range row.Values {
			rec = append(rec, formatCell(v))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePanelCSV writes date plus one column per panel series, gaps are empty
func WritePanelCSV(w io.Writer, p *contracts.ReturnPanel) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"date"}, p.Names...)); err != nil {
		return err
	}
	for i, d := range p.Dates {
		rec := make([]string, 0, len(p.Names)+1)
		rec = append(rec, d.Format(contracts.DateLayout))
		for _, name := range p.Names {
			v := p.Columns[name][i]
			if math.IsNaN(v) {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSeriesCSV writes a date,value series, NaN rows stay with an empty value
func WriteSeriesCSV(w io.Writer, s contracts.ReturnSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", s.Name}); err != nil {
		return err
	}
	for _, pt := range s.Points {
		val := ""
		if !math.IsNaN(pt.Value) {
			val = strconv.FormatFloat(pt.Value, 'g', -1, 64)
		}
		if err := cw.Write([]string{pt.Date.Format(contracts.DateLayout), val}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ColumnSeries derives the per-column chart series: equity, drawdowns, rolling vol and rolling Sharpe
func ColumnSeries(p *contracts.ReturnPanel, opts metrics.Options) map[string]map[string]contracts.ReturnSeries {
	opts = metrics.NewEngine(opts).Options()
	out := make(map[string]map[string]contracts.ReturnSeries, len(p.Names))
	for _, name := range p.Names {
		s, _ := p.Series(name)
		out[name] = map[string]contracts.ReturnSeries{
			"equity":         metrics.EquityCurve(s),
			"drawdowns":      metrics.DrawdownSeries(s),
			"rolling_vol":    metrics.RollingVolatility(s, opts.Window, opts.PeriodsPerYear),
			"rolling_sharpe": metrics.RollingSharpe(s, opts.Window, opts.PeriodsPerYear, opts.RiskFreeRate),
		}
	}
	return out
}

// writeFile creates path and streams fn into it
func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

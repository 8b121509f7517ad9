package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/wonny/aegis-analytics/internal/contracts"
)

// FormatValue renders v with 4 decimals, N/A when undefined
func FormatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return fmt.Sprintf("%.4f", v)
}

// WriteText prints t as aligned text columns
func (t Table) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\t%s\t\n", strings.Join(t.Keys, "\t"))
	for _, row := range t.Rows {
		cells := make([]string, len(row.Values))
		for i, v := range row.Values {
			cells[i] = FormatValue(v)
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", row.Label, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// WriteText renders the plain-text run report
func WriteText(w io.Writer, a Artifact) error {
	res := a.Result
	p, r := res.Panel, res.Report

	var b strings.Builder
	fmt.Fprintf(&b, "PORTFOLIO ANALYTICS REPORT  |  run=%s\n", a.Tag)
	if len(p.Dates) > 0 {
		fmt.Fprintf(&b, "Date range: %s -> %s\n",
			p.Dates[0].Format(contracts.DateLayout), p.Dates[len(p.Dates)-1].Format(contracts.DateLayout))
	} else {
		b.WriteString("Date range: N/A\n")
	}
	fmt.Fprintf(&b, "Assets: %s\n", strings.Join(p.Names, ", "))
	fmt.Fprintf(&b, "Portfolio: %s\n", res.Inputs[contracts.ColumnPortfolio])
	fmt.Fprintf(&b, "Observations: %d (overlap with benchmark: %d)\n", r.Observations, r.OverlapObservations)
	if a.ConfigHash != "" {
		fmt.Fprintf(&b, "Config hash: %s\n", a.ConfigHash)
	}
	fmt.Fprintf(&b, "Run ID: %s\n", res.RunID)
	b.WriteString("\nCore metrics:\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	if err := CoreTable(p, r).WriteText(w); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "\nBenchmark-relative metrics (benchmark=%s):\n", res.Inputs[contracts.ColumnBenchmark]); err != nil {
		return err
	}
	if err := RelativeTable(p, r).WriteText(w); err != nil {
		return err
	}

	if len(r.Notes) > 0 {
		keys := make([]string, 0, len(r.Notes))
		for k := range r.Notes {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		if _, err := io.WriteString(w, "\nUndefined metrics:\n"); err != nil {
			return err
		}
		for _, k := range keys {
			if _, err := fmt.Fprintf(w, "  %s: %s\n", k, r.Notes[k]); err != nil {
				return err
			}
		}
	}
	return nil
}

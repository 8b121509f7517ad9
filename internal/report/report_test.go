package report

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-analytics/internal/analysis"
	"github.com/wonny/aegis-analytics/internal/contracts"
	"github.com/wonny/aegis-analytics/internal/metrics"
	"github.com/wonny/aegis-analytics/internal/panel"
	"github.com/wonny/aegis-analytics/pkg/logger"
)

var t0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func series(name string, offset int, values ...float64) contracts.ReturnSeries {
	s := contracts.ReturnSeries{Name: name}
	for i, v := range values {
		s.Points = append(s.Points, contracts.Point{Date: t0.AddDate(0, 0, offset+i), Value: v})
	}
	return s
}

func sampleResult(t *testing.T) *analysis.Result {
	t.Helper()
	port := series("port", 0, 0.01, -0.02, 0.015, 0.003, -0.004, 0.02)
	bench := series("SPY", 0, 0.008, -0.01, 0.01, 0.001, -0.002, 0.012)
	gld := series("gld", 5, 0.004)

	p, err := panel.Build(port, bench, gld)
	require.NoError(t, err)

	opts := metrics.Options{Window: 3}
	r, err := metrics.NewEngine(opts).Compute(p, contracts.ColumnPortfolio, contracts.ColumnBenchmark)
	require.NoError(t, err)

	return &analysis.Result{
		RunID:     "run-1",
		StartedAt: t0,
		Inputs: map[string]string{
			contracts.ColumnPortfolio: "AAPL,MSFT",
			contracts.ColumnBenchmark: "SPY",
		},
		Request: analysis.Request{Options: opts},
		Panel:   p,
		Report:  r,
	}
}

func TestTimestampTag(t *testing.T) {
	assert.Equal(t, "20240102_150405", TimestampTag(time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)))
}

func TestEnsureOutputDirs(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out")
	dirs, err := EnsureOutputDirs(base)
	require.NoError(t, err)

	for _, d := range []string{dirs.Base, dirs.Tables, dirs.Series} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	// 이미 존재해도 성공
	_, err = EnsureOutputDirs(base)
	assert.NoError(t, err)
}

func TestTables(t *testing.T) {
	res := sampleResult(t)

	core := CoreTable(res.Panel, res.Report)
	require.Len(t, core.Rows, 3)
	assert.Equal(t, "portfolio", core.Rows[0].Label)
	assert.Equal(t, "GLD", core.Rows[2].Label)

	rel := RelativeTable(res.Panel, res.Report)
	require.Len(t, rel.Rows, 2)
	assert.Equal(t, []string{"portfolio", "GLD"}, []string{rel.Rows[0].Label, rel.Rows[1].Label})
	assert.True(t, math.IsNaN(rel.Rows[1].Values[0]), "one overlapping observation has no beta")

	var buf bytes.Buffer
	require.NoError(t, rel.WriteCSV(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, ",beta,alpha_annual,tracking_error,information_ratio,correlation", lines[0])
	assert.Equal(t, "GLD,,,,,", lines[2])
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "0.123457", formatCell(0.1234567))
	assert.Equal(t, "-0.5", formatCell(-0.5))
	assert.Equal(t, "", formatCell(math.NaN()))
	assert.Equal(t, "N/A", FormatValue(math.NaN()))
	assert.Equal(t, "0.1235", FormatValue(0.12345))
}

func TestWritePanelCSV(t *testing.T) {
	res := sampleResult(t)

	var buf bytes.Buffer
	require.NoError(t, WritePanelCSV(&buf, res.Panel))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	require.Len(t, lines, 7)
	assert.Equal(t, "date,portfolio,benchmark,GLD", lines[0])
	assert.Equal(t, "2024-01-02,0.01,0.008,", lines[1])
	assert.Equal(t, "2024-01-07,0.02,0.012,0.004", lines[6])
}

func TestWriteText(t *testing.T) {
	res := sampleResult(t)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, Artifact{Tag: "20240102_000000", ConfigHash: "abc", Result: res}))
	out := buf.String()

	assert.Contains(t, out, "PORTFOLIO ANALYTICS REPORT  |  run=20240102_000000")
	assert.Contains(t, out, "Date range: 2024-01-02 -> 2024-01-07")
	assert.Contains(t, out, "Assets: portfolio, benchmark, GLD")
	assert.Contains(t, out, "Config hash: abc")
	assert.Contains(t, out, "Benchmark-relative metrics (benchmark=SPY)")
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "GLD.beta")
}

type stubExporter struct{ calls int }

func (s *stubExporter) Name() string { return ExportTearSheet }

func (s *stubExporter) Export(ctx context.Context, dirs Dirs, a Artifact) ([]string, error) {
	s.calls++
	return []string{filepath.Join(dirs.Base, "tearsheet.pdf")}, nil
}

func TestRegistry_Export(t *testing.T) {
	res := sampleResult(t)
	base := t.TempDir()
	tag := "20240102_000000"

	reg := NewRegistry(logger.Nop())
	written, warnings, err := reg.Export(context.Background(), base, nil, Artifact{Tag: tag, Result: res})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	// text + 3 tables + 4 series × 3 columns + json
	assert.Len(t, written, 1+3+12+1)
	for _, p := range []string{
		filepath.Join(base, "report_"+tag+".txt"),
		filepath.Join(base, "report_"+tag+".json"),
		filepath.Join(base, "tables", "core_metrics_"+tag+".csv"),
		filepath.Join(base, "tables", "benchmark_summary_"+tag+".csv"),
		filepath.Join(base, "series", "portfolio_equity_"+tag+".csv"),
		filepath.Join(base, "series", "GLD_rolling_sharpe_"+tag+".csv"),
	} {
		assert.FileExists(t, p)
	}

	data, err := os.ReadFile(filepath.Join(base, "report_"+tag+".json"))
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, tag, doc["tag"])
	assert.Equal(t, "run-1", doc["run_id"])
	assert.Contains(t, doc, "report")
}

func TestRegistry_TearSheetSlot(t *testing.T) {
	res := sampleResult(t)
	reg := NewRegistry(logger.Nop())

	written, warnings, err := reg.Export(context.Background(), t.TempDir(), []string{"text", "tearsheet"}, Artifact{Tag: "x", Result: res})
	require.NoError(t, err)
	assert.Len(t, written, 1)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "tearsheet")

	stub := &stubExporter{}
	reg.Register(stub)
	_, warnings, err = reg.Export(context.Background(), t.TempDir(), []string{"tearsheet"}, Artifact{Tag: "x", Result: res})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 1, stub.calls)
}

func TestRegistry_UnknownExporter(t *testing.T) {
	reg := NewRegistry(logger.Nop())
	_, _, err := reg.Resolve([]string{"text", "xlsx"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx")

	exps, _, err := reg.Resolve([]string{" JSON ", "json", ""})
	require.NoError(t, err)
	require.Len(t, exps, 1)
	assert.Equal(t, ExportJSON, exps[0].Name())
}

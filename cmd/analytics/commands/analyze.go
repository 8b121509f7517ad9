package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-analytics/internal/analysis"
	"github.com/wonny/aegis-analytics/internal/contracts"
	"github.com/wonny/aegis-analytics/internal/portfolio"
	"github.com/wonny/aegis-analytics/internal/report"
	"github.com/wonny/aegis-analytics/internal/runconfig"
	"github.com/wonny/aegis-analytics/pkg/config"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "포트폴리오 vs 벤치마크 분석",
	Long: `포트폴리오와 벤치마크의 성과/위험 지표를 계산합니다.

포트폴리오:
  --tickers/--weights  시세로 Buy-and-Hold 포트폴리오 구성 (비중 미지정 시 동일 비중)
  --portfolio-csv      date,value CSV (returns 또는 prices)

벤치마크:
  --benchmark          단일 종목
  --benchmark-csv      date,value CSV

결과:
  핵심 지표 (CAGR, 변동성, Sharpe, MDD, VaR/CVaR)
  벤치마크 대비 지표 (Beta, Alpha, TE, IR, 상관계수)
  output/ 아래 text, csv, json 산출물

Example:
  go run ./cmd/analytics analyze --tickers SPY,TLT --weights SPY=0.6,TLT=0.4 --benchmark SPY
  go run ./cmd/analytics analyze --portfolio-csv strategy.csv --benchmark SPY --start 2020-01-01
  go run ./cmd/analytics analyze --spec runs/sixty_forty.yaml --export text,json`,
	RunE: runAnalyze,
}

// requestTimeout bounds a single CLI run
const requestTimeout = 5 * time.Minute

var (
	analyzeTickers         string
	analyzeWeights         string
	analyzeBenchmark       string
	analyzePortfolioCSV    string
	analyzePortfolioFormat string
	analyzeBenchmarkCSV    string
	analyzeBenchmarkFormat string
	analyzeExtras          string
	analyzeStart           string
	analyzeEnd             string
	analyzeCacheDays       int
	analyzeCapital         float64
	analyzeWindow          int
	analyzeRiskFree        float64
	analyzeOutDir          string
	analyzeExport          string
	analyzeSpec            string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	f := analyzeCmd.Flags()
	f.StringVar(&analyzeTickers, "tickers", "AAPL,SPY", "포트폴리오 종목 (쉼표 구분)")
	f.StringVar(&analyzeWeights, "weights", "", "비중: SPY=0.6,TLT=0.4 또는 0.6,0.4 (미지정 시 동일 비중)")
	f.StringVar(&analyzeBenchmark, "benchmark", "SPY", "벤치마크 종목")
	f.StringVar(&analyzePortfolioCSV, "portfolio-csv", "", "포트폴리오 CSV 경로 (--tickers 대신)")
	f.StringVar(&analyzePortfolioFormat, "portfolio-format", "returns", "포트폴리오 CSV 값 형식 (returns|prices)")
	f.StringVar(&analyzeBenchmarkCSV, "benchmark-csv", "", "벤치마크 CSV 경로 (--benchmark 대신)")
	f.StringVar(&analyzeBenchmarkFormat, "benchmark-format", "returns", "벤치마크 CSV 값 형식 (returns|prices)")
	f.StringVar(&analyzeExtras, "extras", "", "추가 비교 종목 (쉼표 구분)")
	f.StringVar(&analyzeStart, "start", "2022-01-01", "시작일 (YYYY-MM-DD)")
	f.StringVar(&analyzeEnd, "end", "", "종료일 (YYYY-MM-DD, 미지정 시 최신)")
	f.IntVar(&analyzeCacheDays, "cache-days", 3, "가격 캐시 유효기간 (일)")
	f.Float64Var(&analyzeCapital, "capital", 1.0, "Buy-and-Hold 초기 자본")
	f.IntVar(&analyzeWindow, "window", 63, "롤링 윈도우 (관측치 수)")
	f.Float64Var(&analyzeRiskFree, "risk-free", 0, "연율 무위험 수익률")
	f.StringVar(&analyzeOutDir, "outdir", "output", "산출물 디렉터리")
	f.StringVar(&analyzeExport, "export", strings.Join(report.DefaultExports, ","), "산출물 형식 (text,csv,json,tearsheet)")
	f.StringVar(&analyzeSpec, "spec", "", "YAML 실행 명세 (지정 시 포트폴리오/벤치마크 플래그 무시)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// 1. 실행 명세 (YAML 또는 플래그)
	spec, err := analyzeRunConfig(cmd, a.cfg)
	if err != nil {
		return err
	}
	req, err := spec.ToRequest()
	if err != nil {
		return err
	}
	hash, err := runconfig.Hash(spec)
	if err != nil {
		return fmt.Errorf("hash run spec: %w", err)
	}

	// 2. 실행
	runner := analysis.NewRunner(a.feed, a.store, a.log)
	res, err := runner.Run(ctx, req)
	if err != nil {
		return err
	}

	tag := report.TimestampTag(res.StartedAt)
	printResult(res, tag, hash)

	// 3. 산출물
	registry := report.NewRegistry(a.log)
	written, warnings, err := registry.Export(ctx, spec.Output.Dir, spec.Output.Export, report.Artifact{
		Tag:        tag,
		ConfigHash: hash,
		Result:     res,
	})
	for _, w := range warnings {
		PrintWarning(w)
	}
	if err != nil {
		return err
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("%d files written to %s (%.2fs)", len(written), spec.Output.Dir, res.Duration.Seconds()))
	return nil
}

// analyzeRunConfig builds the run spec from --spec or the flags.
// Flags left at their default fall back to the environment config.
func analyzeRunConfig(cmd *cobra.Command, cfg *config.Config) (*runconfig.Config, error) {
	flags := cmd.Flags()

	if analyzeSpec != "" {
		spec, _, err := runconfig.Load(analyzeSpec)
		if err != nil {
			return nil, err
		}
		if flags.Changed("outdir") || spec.Output.Dir == "" {
			spec.Output.Dir = pick(flags.Changed("outdir"), analyzeOutDir, cfg.Analytics.OutputDir)
		}
		if flags.Changed("export") || len(spec.Output.Export) == 0 {
			spec.Output.Export = splitList(analyzeExport)
		}
		return spec, nil
	}

	spec := &runconfig.Config{
		Extras: portfolio.ParseTickers(analyzeExtras),
		Range:  runconfig.Range{Start: analyzeStart, End: analyzeEnd},
		Output: runconfig.Output{
			Dir:    pick(flags.Changed("outdir"), analyzeOutDir, cfg.Analytics.OutputDir),
			Export: splitList(analyzeExport),
		},
	}

	if analyzePortfolioCSV != "" {
		spec.Portfolio.CSV = &runconfig.CSVSource{Path: analyzePortfolioCSV, Format: analyzePortfolioFormat}
	} else {
		spec.Portfolio.Tickers = portfolio.ParseTickers(analyzeTickers)
		spec.Portfolio.Weights = analyzeWeights
	}
	if analyzeBenchmarkCSV != "" {
		spec.Benchmark.CSV = &runconfig.CSVSource{Path: analyzeBenchmarkCSV, Format: analyzeBenchmarkFormat}
	} else {
		spec.Benchmark.Tickers = portfolio.ParseTickers(analyzeBenchmark)
	}

	cacheDays := cfg.Cache.Days
	if flags.Changed("cache-days") {
		cacheDays = analyzeCacheDays
	}
	spec.CacheDays = &cacheDays

	spec.InitialCapital = cfg.Analytics.InitialCapital
	if flags.Changed("capital") {
		spec.InitialCapital = analyzeCapital
	}
	spec.Metrics.Window = cfg.Analytics.RollingWindow
	if flags.Changed("window") {
		spec.Metrics.Window = analyzeWindow
	}
	spec.Metrics.RiskFreeRate = cfg.Analytics.RiskFreeRate
	if flags.Changed("risk-free") {
		spec.Metrics.RiskFreeRate = analyzeRiskFree
	}

	if err := runconfig.Validate(spec); err != nil {
		return nil, err
	}
	return spec, nil
}

func printResult(res *analysis.Result, tag, hash string) {
	r := res.Report

	rng := "N/A"
	if !r.Start.IsZero() {
		rng = fmt.Sprintf("%s ~ %s", r.Start.Format(contracts.DateLayout), r.End.Format(contracts.DateLayout))
	}
	PrintHeader("Portfolio Analytics", [][2]string{
		{"Run", tag},
		{"Portfolio", res.Inputs[contracts.ColumnPortfolio]},
		{"Benchmark", res.Inputs[contracts.ColumnBenchmark]},
		{"Period", rng},
		{"Obs", fmt.Sprintf("%d (overlap %d)", r.Observations, r.OverlapObservations)},
		{"Spec hash", hash[:12]},
	})

	fmt.Println("\nCore metrics:")
	PrintTable(report.CoreTable(res.Panel, r))

	fmt.Println("\nBenchmark-relative metrics:")
	PrintTable(report.RelativeTable(res.Panel, r))

	if len(r.Notes) > 0 {
		keys := make([]string, 0, len(r.Notes))
		for k := range r.Notes {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Println("\nUndefined metrics:")
		items := make([]string, 0, len(keys))
		for _, k := range keys {
			items = append(items, fmt.Sprintf("%s: %s", k, r.Notes[k]))
		}
		PrintList(items)
	}
}

func pick(changed bool, flagValue, fallback string) string {
	if changed || fallback == "" {
		return flagValue
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

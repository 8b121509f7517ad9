package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-analytics/internal/external/yahoo"
	"github.com/wonny/aegis-analytics/internal/pricecache"
	"github.com/wonny/aegis-analytics/pkg/config"
	"github.com/wonny/aegis-analytics/pkg/httputil"
	"github.com/wonny/aegis-analytics/pkg/logger"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Aegis Analytics - 포트폴리오 성과/위험 분석",
	Long: `Aegis Analytics Unified CLI

일별 시세(또는 CSV)로 포트폴리오 수익률을 만들고
벤치마크 대비 성과/위험 지표를 계산합니다.

Usage:
  go run ./cmd/analytics [command]

Examples:
  go run ./cmd/analytics analyze --tickers SPY,TLT --weights SPY=0.6,TLT=0.4 --benchmark SPY
  go run ./cmd/analytics analyze --spec runs/sixty_forty.yaml
  go run ./cmd/analytics cache status
  go run ./cmd/analytics api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// app holds the shared dependencies of every command
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	store pricecache.Store
	feed  *yahoo.Client
}

// bootstrap loads config and opens the cache backend and price feed
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	store, err := pricecache.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open price cache: %w", err)
	}

	httpClient := httputil.New(cfg, log)
	feed := yahoo.NewClient(httpClient, log, cfg.Feed.BaseURL)

	return &app{cfg: cfg, log: log, store: store, feed: feed}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close price cache")
	}
}

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-analytics/internal/analysis"
	"github.com/wonny/aegis-analytics/internal/api"
	"github.com/wonny/aegis-analytics/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET    /health       - Health check
  POST   /api/analyze  - 분석 실행 (JSON 실행 명세)
  GET    /api/cache    - 가격 캐시 조회
  DELETE /api/cache    - 가격 캐시 삭제

Example:
  go run ./cmd/analytics api
  go run ./cmd/analytics api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본값: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Analytics API Server ===")

	// 1. Config, logger, cache, feed
	a, err := bootstrap(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port":    a.cfg.Port,
		"env":     a.cfg.Env,
		"backend": a.cfg.Cache.Backend,
	}).Info("Initializing API server")

	// 2. Handlers
	runner := analysis.NewRunner(a.feed, a.store, a.log)
	analyzeHandler := handlers.NewAnalyzeHandler(runner, a.cfg.Analytics.DataDir, a.log)
	cacheHandler := handlers.NewCacheHandler(a.store, a.cfg.Cache.Days, a.log)

	// 3. Router + server
	router := api.NewRouter(analyzeHandler, cacheHandler, a.log)
	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal or a failed start
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	a.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}

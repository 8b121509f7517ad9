package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-analytics/internal/pricecache"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "가격 캐시 관리",
	Long: `가격 캐시를 조회하거나 비웁니다.
백엔드는 CACHE_BACKEND (file|memory|redis|postgres|sqlite)로 선택합니다.

Example:
  go run ./cmd/analytics cache status
  go run ./cmd/analytics cache clear`,
}

var (
	cacheStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "캐시 항목 조회",
		RunE:  runCacheStatus,
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "캐시 전체 삭제",
		RunE:  runCacheClear,
	}
)

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	infos, err := a.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list cache: %w", err)
	}

	PrintHeader("Price Cache", [][2]string{
		{"Backend", a.cfg.Cache.Backend},
		{"Cache days", fmt.Sprintf("%d", a.cfg.Cache.Days)},
		{"Entries", fmt.Sprintf("%d", len(infos))},
	})
	if len(infos) == 0 {
		return nil
	}

	now := time.Now()
	widths := []int{36, 6, 19, 5}
	PrintTableHeader([]string{"key", "rows", "fetched_at", "fresh"}, widths)
	for _, info := range infos {
		fresh := "no"
		if pricecache.IsFresh(pricecache.Entry{FetchedAt: info.FetchedAt}, now, a.cfg.Cache.Days) {
			fresh = "yes"
		}
		PrintTableRow([]string{
			info.Key.String(),
			fmt.Sprintf("%d", info.Rows),
			info.FetchedAt.Local().Format("2006-01-02 15:04:05"),
			fresh,
		}, widths)
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.store.Clear(ctx)
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Removed %d cache entries (%s)", n, a.cfg.Cache.Backend))
	return nil
}

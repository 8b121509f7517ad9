package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-analytics/internal/contracts"
	"github.com/wonny/aegis-analytics/internal/scheduler"
	"github.com/wonny/aegis-analytics/internal/scheduler/jobs"
	"github.com/wonny/aegis-analytics/internal/series"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `캐시 예열/정리 스케줄러를 시작하거나 작업을 실행합니다.

등록되는 작업:
- cache_warm:  WARM_SCHEDULE (기본: 평일 18:30), WARM_TICKERS 시세 갱신
- cache_prune: 매일 03:00, CACHE_PRUNE_DAYS보다 오래된 항목 삭제

Example:
  go run ./cmd/analytics scheduler start
  go run ./cmd/analytics scheduler list
  go run ./cmd/analytics scheduler run cache_warm`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Analytics Scheduler ===")

	a, err := bootstrap(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	PrintList(sched.GetAllJobs())
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	stats := sched.GetJobStats()
	fmt.Println("Registered jobs:")
	for _, name := range sched.GetAllJobs() {
		fmt.Printf("  - %-12s %s\n", name, stats[name].Schedule)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := bootstrap(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a, scheduler.WithRetry(0, 0))
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Printf("Running job: %s\n", jobName)
	res, err := sched.RunJob(context.Background(), jobName)
	if err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %.2fs", jobName, res.Duration.Seconds()))
	return nil
}

func initScheduler(a *app, opts ...scheduler.Option) (*scheduler.Scheduler, error) {
	rng, err := contracts.ParseDateRange(a.cfg.Warm.Start, "")
	if err != nil {
		return nil, fmt.Errorf("WARM_START: %w", err)
	}

	sched := scheduler.New(a.log, opts...)
	source := series.NewSource(a.feed, a.store, a.cfg.Cache.Days, a.log)

	if err := sched.AddJob(jobs.NewCacheWarmJob(source, a.cfg.Warm.Tickers, rng, a.cfg.Warm.Schedule, a.log)); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewCachePruneJob(a.store, a.cfg.Cache.PruneDays, a.log)); err != nil {
		return nil, err
	}

	return sched, nil
}

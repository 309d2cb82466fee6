package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wonny/qpcr/internal/contracts"
	"github.com/wonny/qpcr/internal/scheduler"
	"github.com/wonny/qpcr/internal/scheduler/jobs"
	"github.com/wonny/qpcr/pkg/config"
	"github.com/wonny/qpcr/pkg/database"
	"github.com/wonny/qpcr/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리 (inbox 자동 분석)",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

등록되는 작업:
- inbox: INBOX_SCHEDULE 마다 INBOX_DIR 의 *.csv/*.tsv 를 분석해
         OUTBOX_DIR 에 결과를 쓰고 입력을 processed/ 로 옮김

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/qpcr scheduler start
  go run ./cmd/qpcr scheduler run inbox`,
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

	schedulerSave bool
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerCmd.PersistentFlags().BoolVar(&schedulerSave, "save", false, "persist inbox runs (requires DATABASE_URL)")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	PrintHeader("qPCR Scheduler")
	sched.Start()

	PrintSuccess("Scheduler started successfully")
	printJobs(sched)
	PrintInfo("Press Ctrl+C to stop")

	<-cmd.Context().Done()

	sched.Stop()
	PrintSuccess("Scheduler stopped")
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	sched, cleanup, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	PrintInfo(fmt.Sprintf("Running job: %s", jobName))
	result, err := sched.RunJobNow(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	if !result.Success {
		PrintError(fmt.Sprintf("Job %s failed: %s", jobName, result.Error))
		return fmt.Errorf("job %s failed", jobName)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %.2fs", jobName, result.Duration.Seconds()))
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(console, "Registered jobs:")
	for _, name := range names {
		PrintKeyValue(name, stats[name].Schedule, 8)
	}
}

// initScheduler wires config, logger, optional persistence and the jobs
func initScheduler(cmd *cobra.Command) (*scheduler.Scheduler, func(), error) {
	cfg, log, err := setup()
	if err != nil {
		return nil, nil, err
	}

	var repo contracts.RunRepository
	var db *database.DB
	if schedulerSave {
		d, r, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return nil, nil, err
		}
		db, repo = d, r
	}

	cleanup := func() {
		if db != nil {
			db.Close()
		}
	}

	sched, err := newScheduler(cfg, repo, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return sched, cleanup, nil
}

func newScheduler(cfg *config.Config, repo contracts.RunRepository, log *logger.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewInboxJob(cfg, repo, log)); err != nil {
		return nil, err
	}
	return sched, nil
}

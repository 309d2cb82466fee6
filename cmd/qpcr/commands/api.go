package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/qpcr/internal/api"
	"github.com/wonny/qpcr/internal/api/handlers"
	"github.com/wonny/qpcr/internal/contracts"
	"github.com/wonny/qpcr/internal/store"
	"github.com/wonny/qpcr/pkg/database"
	"github.com/wonny/qpcr/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다. 요청 본문은 CSV/TSV Ct 테이블입니다.

Endpoints:
  GET  /health              - Health check
  POST /api/tidy            - S0 정리
  POST /api/efficiency      - S1 효율 (?gene=)
  POST /api/pfaffl          - S2 Pfaffl (?target=&reference=&control=&experimental=&target_eff=&reference_eff=)
  POST /api/polysome        - S3 폴리솜 (?gene=&condition=)
  GET  /api/runs            - 저장된 실행 목록 (DATABASE_URL 필요)
  GET  /api/runs/{id}       - 저장된 실행 조회

Example:
  go run ./cmd/qpcr api
  go run ./cmd/qpcr api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. Load config + logger
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 2. Database (optional)
	var runsHandler *handlers.RunsHandler
	var repo contracts.RunRepository
	db, err := database.New(ctx, cfg)
	switch {
	case errors.Is(err, database.ErrDisabled):
		log.Info("DATABASE_URL not set: run endpoints disabled")
	case err != nil:
		return fmt.Errorf("connect to database: %w", err)
	default:
		defer db.Close()
		if err := store.Migrate(ctx, db.Pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		repo = store.NewRepository(db.Pool)
		log.Info("Connected to database")
	}

	// 3. Redis (optional): 응답 캐시 + 분산 rate limit
	rdb, err := redis.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	var cache contracts.ResultCache
	if rdb.Enabled() {
		cache = redis.NewCache(rdb, "qpcr")
		log.Info("Connected to redis")
	}

	// 4. Handlers + router
	if repo != nil {
		runsHandler = handlers.NewRunsHandler(repo, cache, log)
	}
	router := api.NewRouter(api.RouterConfig{
		Analysis:     handlers.NewAnalysisHandler(cache, cfg.Redis.CacheTTL, log),
		Runs:         runsHandler,
		Limiter:      api.NewLimiter(cfg, rdb),
		MaxBodyBytes: cfg.API.MaxBodySize,
	}, log)

	// 5. Serve until Ctrl+C
	server := api.New(cfg, log, router)

	PrintSuccess(fmt.Sprintf("Server running on http://localhost:%s", cfg.Port))
	PrintInfo("Press Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}

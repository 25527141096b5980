package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/rollstitch/backend/internal/api"
	"github.com/wonny/rollstitch/backend/internal/api/handlers"
	"github.com/wonny/rollstitch/backend/internal/scheduler"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

저장된 롤 캘린더, 멀티플 가격, 조정 가격을 조회합니다.
시계열 엔드포인트는 ?format=csv 와 ?from=&to= (YYYY-MM-DD) 를 지원합니다.

Endpoints:
  GET  /health                                   - Health check
  GET  /metrics                                  - Prometheus metrics
  GET  /api/instruments                          - 종목 목록
  GET  /api/instruments/{code}/roll-calendar     - 롤 캘린더
  GET  /api/instruments/{code}/multiple-prices   - 멀티플 가격
  GET  /api/instruments/{code}/adjusted-prices   - 조정 가격
  GET  /api/instruments/{code}/report            - 품질 리포트

Example:
  go run ./cmd/rollstitch api
  go run ./cmd/rollstitch api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "run the scheduler in the same process")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Rollstitch API Server ===")

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.log

	log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	// 1. Create handler
	instrumentHandler := handlers.NewInstrumentHandler(a.store, a.roll, log)

	// 2. Create router
	deps := api.RouterDeps{
		Instruments: instrumentHandler,
		Health:      a.health,
	}
	if a.cfg.MetricsEnabled {
		deps.Metrics = a.metrics.Handler()
	}
	router := api.NewRouter(deps, log)

	// 3. Optional in-process scheduler
	var sched *scheduler.Scheduler
	if apiWithScheduler {
		sched, err = initScheduler(a)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		log.WithField("jobs", sched.GetAllJobs()).Info("Scheduler started")
	}

	// 4. Create server
	server := api.New(a.cfg, log, router)

	// 5. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	log.Info("Shutting down server...")
	if sched != nil {
		sched.Stop()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

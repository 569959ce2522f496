package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"classhub/backend/internal/api/handler"
	"classhub/backend/internal/api/router"
	"classhub/backend/internal/scheduler"
	"classhub/backend/pkg/database"
)

func serveCmd(configPath *string) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the weekly clinic batch scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer a.close()
			return serve(a, skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply pending migrations on startup")
	return cmd
}

func serve(a *app, skipMigrate bool) error {
	logger := a.logger
	logger.Info("starting classhub",
		zap.Int("port", a.cfg.Server.Port),
		zap.String("log_level", a.cfg.Log.Level),
		zap.String("clinic_timezone", a.cfg.Clinic.Timezone),
	)

	if !skipMigrate {
		sqlDB, err := a.db.DB()
		if err != nil {
			return fmt.Errorf("get sql.DB: %w", err)
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	sched, err := scheduler.New(&a.cfg.Clinic, a.svc.ClinicBatch, a.policy.Today, logger)
	if err != nil {
		return err
	}
	if sched != nil {
		sched.Start()
	}

	var deps router.Deps
	if a.rdb != nil {
		deps = router.Deps{Revocations: a.rdb, Limiter: a.rdb}
	}

	if a.cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handler.NewHandler(a.svc, a.policy.Today, logger)
	engine := router.Setup(a.cfg, h, a.jwtMgr, deps, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("http server failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown", zap.Error(err))
	}
	if sched != nil {
		sched.Stop(ctx)
	}

	logger.Info("server stopped")
	return nil
}

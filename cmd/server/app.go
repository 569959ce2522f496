package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classhub/backend/config"
	"classhub/backend/internal/repository"
	"classhub/backend/internal/service"
	"classhub/backend/pkg/database"
	"classhub/backend/pkg/jwt"
	applogger "classhub/backend/pkg/logger"
	"classhub/backend/pkg/redis"
)

// app process-wide dependencies shared by every subcommand
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	rdb    *redis.Client // nil when redis is unreachable
	jwtMgr *jwt.Manager
	policy *service.ClinicPolicy
	svc    *service.Service
}

// bootstrap loads config, logger and the database; redis is optional
func bootstrap(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		jwtMgr: jwt.NewManager(&cfg.Auth),
		policy: service.NewClinicPolicy(&cfg.Clinic, time.Now),
	}

	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, running without token blacklist, rate limit and batch lock", zap.Error(err))
	} else {
		a.rdb = rdb
	}

	// untyped nils keep the optional interfaces comparable to nil
	var (
		blacklist service.TokenBlacklist
		locker    service.Locker
	)
	if a.rdb != nil {
		blacklist = a.rdb
		locker = a.rdb
	}

	repo := repository.NewRepository(db)
	a.svc = service.NewService(cfg, repo, a.jwtMgr, blacklist, locker, a.policy, logger)
	return a, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	_ = a.logger.Sync()
}

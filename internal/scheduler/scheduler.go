package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"classhub/backend/config"
	"classhub/backend/internal/dto"
)

// TriggeredByCron recorded on ClinicBatchRun rows started by the scheduler
const TriggeredByCron = "cron"

const runTimeout = 10 * time.Minute

// WeeklyRunner the part of ClinicBatchService the scheduler drives
type WeeklyRunner interface {
	RunWeekly(ctx context.Context, ref time.Time, triggeredBy string) (*dto.WeeklyBatchResponse, error)
}

// Scheduler runs the weekly clinic batch on a cron expression evaluated in the clinic timezone
type Scheduler struct {
	cron    *cron.Cron
	runner  WeeklyRunner
	today   func() time.Time
	spec    string
	logger  *zap.Logger
	entryID cron.EntryID
}

// New returns a nil Scheduler when the batch is disabled
func New(cfg *config.ClinicConfig, runner WeeklyRunner, today func() time.Time, logger *zap.Logger) (*Scheduler, error) {
	if !cfg.BatchEnabled {
		logger.Info("scheduler: weekly batch disabled")
		return nil, nil
	}
	if runner == nil || today == nil {
		return nil, errors.New("scheduler: runner and clock are required")
	}

	cl := cronLogger{logger.Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location()),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner: runner,
		today:  today,
		spec:   cfg.BatchCron,
		logger: logger,
	}

	id, err := s.cron.AddFunc(cfg.BatchCron, s.runWeekly)
	if err != nil {
		return nil, fmt.Errorf("scheduler: invalid batch_cron %q: %w", cfg.BatchCron, err)
	}
	s.entryID = id
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler: started",
		zap.String("batch_cron", s.spec),
		zap.Time("next_run", s.Next()),
	)
}

// Stop waits for a running job until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler: stop timed out with a job still running")
	}
}

// Next zero before Start
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

func (s *Scheduler) runWeekly() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	res, err := s.runner.RunWeekly(ctx, s.today(), TriggeredByCron)
	if err != nil {
		s.logger.Error("scheduler: weekly batch failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduler: weekly batch done",
		zap.String("week_start", res.WeekStart),
		zap.Int("sessions_created", res.Sessions.Created),
		zap.Int("attendances_created", res.Attendances.Created),
	)
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}

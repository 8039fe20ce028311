// Package scheduler polls the task queue at a fixed interval and drives at
// most one synchronization run at a time. The single-flight guarantee within
// a process is an in-memory flag checked at the start of each tick; across
// processes the storage-level conditional claim is the real arbiter.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/datasyncfood/datasync-worker/internal/logger"
	"github.com/datasyncfood/datasync-worker/internal/models"
	"github.com/datasyncfood/datasync-worker/internal/repository"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// User-facing result messages recorded on the pairing.
const (
	successFeedback    = "Processo realizado com sucesso."
	unsupportedTaskMsg = "Tarefa não suportada."
)

// Runner executes one claimed task for a company.
type Runner interface {
	ExportCatalog(ctx context.Context, companyID uint, merchantID string) error
	PushStock(ctx context.Context, companyID uint, merchantID string) error
}

// Queue is the pairing lifecycle surface the scheduler needs.
type Queue interface {
	NextReady(ctx context.Context) (*models.QueueItem, error)
	Claim(ctx context.Context, pairingID uint64) error
	Finish(ctx context.Context, pairingID uint64, feedback string) error
	Fail(ctx context.Context, pairingID uint64, errMsg string) error
}

type Scheduler struct {
	queue    Queue
	runner   Runner
	interval int
	cron     *cron.Cron
	running  atomic.Bool
}

func New(queue Queue, runner Runner, intervalSeconds int) *Scheduler {
	return &Scheduler{
		queue:    queue,
		runner:   runner,
		interval: intervalSeconds,
		cron:     cron.New(cron.WithSeconds()),
	}
}

func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("*/%d * * * * *", s.interval)
	if _, err := s.cron.AddFunc(spec, s.Tick); err != nil {
		return fmt.Errorf("failed to schedule task poller: %w", err)
	}
	s.cron.Start()
	logger.Log.Info("task scheduler started", zap.Int("intervalSeconds", s.interval))
	return nil
}

// Stop halts the ticker and returns a context that is done once any
// in-flight tick has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Tick claims and runs at most one ready pairing. Exported so tests can
// drive ticks without the cron clock.
func (s *Scheduler) Tick() {
	if !s.running.CompareAndSwap(false, true) {
		logger.Log.Warn("synchronization already in progress, skipping tick")
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("panic while processing task", zap.Any("panic", r))
		}
		s.running.Store(false)
	}()

	ctx := context.Background()

	item, err := s.queue.NextReady(ctx)
	if err != nil {
		logger.Log.Error("failed to read task queue", zap.Error(err))
		return
	}
	if item == nil {
		return
	}

	runID := uuid.NewString()
	log := logger.Log.With(
		zap.String("runId", runID),
		zap.Uint64("pairingId", item.PairingID),
		zap.Uint("taskId", item.TaskID),
		zap.Uint("companyId", item.CompanyID))

	if err := s.queue.Claim(ctx, item.PairingID); err != nil {
		if errors.Is(err, repository.ErrNotClaimed) {
			log.Warn("pairing claimed elsewhere, skipping")
		} else {
			log.Error("failed to claim pairing", zap.Error(err))
		}
		return
	}

	log.Info("task run started")
	if err := s.run(ctx, item); err != nil {
		log.Error("task run failed", zap.Error(err))
		if ferr := s.queue.Fail(ctx, item.PairingID, err.Error()); ferr != nil {
			log.Error("failed to record task failure", zap.Error(ferr))
		}
		return
	}

	if err := s.queue.Finish(ctx, item.PairingID, successFeedback); err != nil {
		log.Error("failed to record task success", zap.Error(err))
		return
	}
	log.Info("task run finished")
}

func (s *Scheduler) run(ctx context.Context, item *models.QueueItem) error {
	switch item.TaskID {
	case models.TaskExportCatalog:
		return s.runner.ExportCatalog(ctx, item.CompanyID, item.MarketplaceMerchantID)
	case models.TaskPushStock:
		return s.runner.PushStock(ctx, item.CompanyID, item.MarketplaceMerchantID)
	default:
		return errors.New(unsupportedTaskMsg)
	}
}

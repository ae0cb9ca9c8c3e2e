package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/brokeranalysis/trust-service/internal/service"
	"github.com/brokeranalysis/trust-service/pkg/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// batchTimeout bounds one scheduled full-table recalculation.
const batchTimeout = 10 * time.Minute

// Scheduler runs the periodic trust score recalculation.
type Scheduler struct {
	cron  *cron.Cron
	trust *service.TrustService
}

// New creates a scheduler around the trust service.
func New(trust *service.TrustService) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		trust: trust,
	}
}

// Register adds the recalculation task using a standard cron spec.
func (s *Scheduler) Register(recalcSpec string) error {
	if _, err := s.cron.AddFunc(recalcSpec, s.recalculateTask); err != nil {
		return fmt.Errorf("register recalculation task: %w", err)
	}
	return nil
}

// Start begins running registered tasks.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the cron runner and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) recalculateTask() {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	result, err := s.trust.RecalculateAll(ctx)
	if err != nil {
		logger.Error("scheduled trust score recalculation failed", zap.Error(err))
		return
	}

	logger.Info("scheduled trust score recalculation complete",
		zap.Int("total", result.TotalBrokers),
		zap.Int("updated", result.UpdatedCount),
		zap.Int("errors", result.ErrorCount),
	)
}

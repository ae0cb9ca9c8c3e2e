package monitoring

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/brokeranalysis/trust-service/internal/models"
	"github.com/brokeranalysis/trust-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultMaxBufferSize triggers an eager flush of a buffer when reached.
	DefaultMaxBufferSize = 100
	// DefaultFlushInterval bounds how long events sit in memory.
	DefaultFlushInterval = 30 * time.Second
)

// Store persists flushed telemetry batches and serves aggregate queries.
type Store interface {
	SavePerformanceMetrics(ctx context.Context, metrics []models.PerformanceMetric) error
	SaveQualityMetrics(ctx context.Context, metrics []models.QualityMetric) error
	SaveErrorEvents(ctx context.Context, events []models.ErrorEvent) error
	PerformanceStats(ctx context.Context, since time.Time, operation string) (*models.PerformanceStats, error)
	QualityStats(ctx context.Context, since time.Time) (*models.QualityStats, error)
}

// Service buffers telemetry events in memory and batches writes to the
// store. A flush happens when a buffer reaches capacity, when the periodic
// timer fires, or immediately for critical errors. Persistence failures are
// logged and discarded: telemetry must never break the operation it
// observes, and losing unflushed events on crash is accepted.
type Service struct {
	store         Store
	maxBufferSize int
	flushInterval time.Duration

	mu          sync.Mutex
	performance []models.PerformanceMetric
	quality     []models.QualityMetric
	errors      []models.ErrorEvent

	stopCh   chan struct{}
	stopOnce sync.Once
}

// Option configures a Service.
type Option func(*Service)

// WithBufferSize overrides the per-buffer eager-flush capacity.
func WithBufferSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBufferSize = n
		}
	}
}

// WithFlushInterval overrides the periodic flush interval.
func WithFlushInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.flushInterval = d
		}
	}
}

// NewService creates a monitoring service writing to store. Callers that
// want the periodic flush must also call Start.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:         store,
		maxBufferSize: DefaultMaxBufferSize,
		flushInterval: DefaultFlushInterval,
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the periodic flush loop.
func (s *Service) Start(ctx context.Context) {
	go s.flushLoop(ctx)
}

// Stop halts the flush loop and flushes whatever is still buffered.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.FlushAll(context.Background())
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.FlushAll(ctx)
		}
	}
}

// TrackPerformance stamps and buffers a performance metric, flushing the
// performance buffer when it reaches capacity.
func (s *Service) TrackPerformance(m models.PerformanceMetric) {
	m.Timestamp = time.Now().UTC()

	s.mu.Lock()
	s.performance = append(s.performance, m)
	full := len(s.performance) >= s.maxBufferSize
	s.mu.Unlock()

	if full {
		if err := s.flushPerformance(context.Background()); err != nil {
			logger.Error("failed to flush performance metrics", zap.Error(err))
		}
	}
}

// TrackQuality stamps and buffers a quality metric, assigning a response ID
// when the caller did not provide one.
func (s *Service) TrackQuality(m models.QualityMetric) {
	m.Timestamp = time.Now().UTC()
	if m.ResponseID == "" {
		m.ResponseID = uuid.NewString()
	}

	s.mu.Lock()
	s.quality = append(s.quality, m)
	full := len(s.quality) >= s.maxBufferSize
	s.mu.Unlock()

	if full {
		if err := s.flushQuality(context.Background()); err != nil {
			logger.Error("failed to flush quality metrics", zap.Error(err))
		}
	}
}

// TrackError stamps and buffers an error event. Critical events flush the
// error buffer immediately; others wait for capacity or the timer.
func (s *Service) TrackError(e models.ErrorEvent) {
	e.Timestamp = time.Now().UTC()
	if e.Severity == "" {
		e.Severity = models.SeverityLow
	}

	s.mu.Lock()
	s.errors = append(s.errors, e)
	full := len(s.errors) >= s.maxBufferSize
	s.mu.Unlock()

	if full || e.Severity == models.SeverityCritical {
		if err := s.flushErrors(context.Background()); err != nil {
			logger.Error("failed to flush error events", zap.Error(err))
		}
	}
}

// FlushAll flushes all three buffers, logging and discarding any store
// errors.
func (s *Service) FlushAll(ctx context.Context) {
	if err := s.flushPerformance(ctx); err != nil {
		logger.Error("failed to flush performance metrics", zap.Error(err))
	}
	if err := s.flushQuality(ctx); err != nil {
		logger.Error("failed to flush quality metrics", zap.Error(err))
	}
	if err := s.flushErrors(ctx); err != nil {
		logger.Error("failed to flush error events", zap.Error(err))
	}
}

// Each flush swaps the live buffer for an empty one under the lock and
// writes the local copy outside it, so a concurrent trigger operates on a
// fresh buffer instead of re-entering an in-flight flush.

func (s *Service) flushPerformance(ctx context.Context) error {
	s.mu.Lock()
	batch := s.performance
	s.performance = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := s.store.SavePerformanceMetrics(ctx, batch); err != nil {
		return fmt.Errorf("persist %d performance metrics: %w", len(batch), err)
	}
	return nil
}

func (s *Service) flushQuality(ctx context.Context) error {
	s.mu.Lock()
	batch := s.quality
	s.quality = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := s.store.SaveQualityMetrics(ctx, batch); err != nil {
		return fmt.Errorf("persist %d quality metrics: %w", len(batch), err)
	}
	return nil
}

func (s *Service) flushErrors(ctx context.Context) error {
	s.mu.Lock()
	batch := s.errors
	s.errors = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := s.store.SaveErrorEvents(ctx, batch); err != nil {
		return fmt.Errorf("persist %d error events: %w", len(batch), err)
	}
	return nil
}

// GetPerformanceStats aggregates persisted performance metrics since the
// given time, optionally filtered to one operation. Reads go to the store,
// not the in-memory buffers.
func (s *Service) GetPerformanceStats(ctx context.Context, since time.Time, operation string) (*models.PerformanceStats, error) {
	return s.store.PerformanceStats(ctx, since, operation)
}

// GetQualityStats aggregates persisted quality metrics since the given time.
func (s *Service) GetQualityStats(ctx context.Context, since time.Time) (*models.QualityStats, error) {
	return s.store.QualityStats(ctx, since)
}

// OperationTracker scopes performance tracking to one operation invocation.
type OperationTracker struct {
	service   *Service
	operation string
	metadata  map[string]interface{}
	started   time.Time
}

// StartOperation begins tracking an operation; exactly one of Success or
// Error should be called when it finishes.
func (s *Service) StartOperation(operation string, metadata map[string]interface{}) *OperationTracker {
	return &OperationTracker{
		service:   s,
		operation: operation,
		metadata:  metadata,
		started:   time.Now(),
	}
}

// Success records the operation as completed.
func (t *OperationTracker) Success(extra map[string]interface{}) {
	t.service.TrackPerformance(models.PerformanceMetric{
		Operation:  t.operation,
		DurationMs: t.elapsedMs(),
		Success:    true,
		Metadata:   mergeMetadata(t.metadata, extra),
	})
}

// Error records the operation as failed and raises an error event with a
// severity derived from the operation name and error text.
func (t *OperationTracker) Error(err error, extra map[string]interface{}) {
	severity := ClassifySeverity(t.operation, err)

	t.service.TrackPerformance(models.PerformanceMetric{
		Operation:    t.operation,
		DurationMs:   t.elapsedMs(),
		Success:      false,
		ErrorType:    fmt.Sprintf("%T", err),
		ErrorMessage: err.Error(),
		Metadata:     mergeMetadata(t.metadata, extra),
	})

	t.service.TrackError(models.ErrorEvent{
		Operation:    t.operation,
		ErrorType:    fmt.Sprintf("%T", err),
		ErrorMessage: err.Error(),
		RequestData:  mergeMetadata(t.metadata, extra),
		Severity:     severity,
	})
}

func (t *OperationTracker) elapsedMs() float64 {
	return float64(time.Since(t.started)) / float64(time.Millisecond)
}

// ClassifySeverity assigns a coarse severity by substring matching on the
// operation name and error text. It is a heuristic, not a strict taxonomy.
func ClassifySeverity(operation string, err error) models.Severity {
	op := strings.ToLower(operation)
	msg := ""
	if err != nil {
		msg = strings.ToLower(err.Error())
	}

	switch {
	case strings.Contains(op, "database") || strings.Contains(msg, "database") ||
		strings.Contains(op, "connection") || strings.Contains(msg, "connection"):
		return models.SeverityCritical
	case strings.Contains(op, "ai") || strings.Contains(op, "embedding"):
		return models.SeverityHigh
	case strings.Contains(op, "search") || strings.Contains(op, "vector"):
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func mergeMetadata(base, extra map[string]interface{}) map[string]interface{} {
	if base == nil && extra == nil {
		return nil
	}
	merged := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

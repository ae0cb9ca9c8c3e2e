package service

import (
	"context"
	"fmt"

	"github.com/brokeranalysis/trust-service/internal/models"
	"github.com/brokeranalysis/trust-service/internal/monitoring"
	"github.com/brokeranalysis/trust-service/internal/scoring"
	"github.com/brokeranalysis/trust-service/pkg/logger"
	"go.uber.org/zap"
)

// maxSampledResults bounds how many per-broker results a batch response
// carries back to the caller.
const maxSampledResults = 10

// BrokerStore is the broker persistence the trust service depends on.
type BrokerStore interface {
	GetAll(ctx context.Context) ([]*models.Broker, error)
	GetByID(ctx context.Context, id uint) (*models.Broker, error)
	UpdateTrustScore(ctx context.Context, id uint, result *models.TrustScoreResult) error
}

// ScoreCache is an optional read cache in front of single-score lookups.
type ScoreCache interface {
	Get(ctx context.Context, brokerID uint) (*BrokerScore, error)
	Set(ctx context.Context, brokerID uint, score *BrokerScore) error
}

// BrokerScore is the externally-visible score for one broker.
type BrokerScore struct {
	BrokerID   uint                     `json:"broker_id"`
	Name       string                   `json:"name"`
	TrustScore float64                  `json:"trust_score"`
	Components *models.TrustScoreResult `json:"components,omitempty"`
}

// BrokerScoreSummary is the compact per-broker entry in a batch result.
type BrokerScoreSummary struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	TrustScore float64 `json:"trust_score"`
}

// BatchResult reports the outcome of a full-table recalculation.
type BatchResult struct {
	TotalBrokers int                  `json:"total_brokers"`
	UpdatedCount int                  `json:"updated_count"`
	ErrorCount   int                  `json:"error_count"`
	Results      []BrokerScoreSummary `json:"results"`
}

// TrustService orchestrates trust score calculation and persistence.
type TrustService struct {
	brokers BrokerStore
	engine  *scoring.Engine
	monitor *monitoring.Service
	cache   ScoreCache
}

// NewTrustService creates a trust service. cache may be nil, in which case
// score reads always hit storage.
func NewTrustService(brokers BrokerStore, engine *scoring.Engine, monitor *monitoring.Service, cache ScoreCache) *TrustService {
	return &TrustService{
		brokers: brokers,
		engine:  engine,
		monitor: monitor,
		cache:   cache,
	}
}

// RecalculateAll recomputes and persists the trust score of every broker,
// sequentially. A failure on one broker is counted and logged but never
// aborts the rest of the batch, so UpdatedCount+ErrorCount always equals
// TotalBrokers. At most the first 10 results are sampled into the response.
func (s *TrustService) RecalculateAll(ctx context.Context) (*BatchResult, error) {
	tracker := s.monitor.StartOperation("trust_score_batch_update", nil)

	brokers, err := s.brokers.GetAll(ctx)
	if err != nil {
		tracker.Error(err, nil)
		return nil, fmt.Errorf("failed to fetch brokers: %w", err)
	}

	result := &BatchResult{
		TotalBrokers: len(brokers),
		Results:      []BrokerScoreSummary{},
	}

	for _, broker := range brokers {
		score := s.engine.CalculateTrustScore(broker)

		if err := s.brokers.UpdateTrustScore(ctx, broker.ID, score); err != nil {
			result.ErrorCount++
			logger.Error("failed to persist trust score",
				zap.Uint("broker_id", broker.ID),
				zap.String("broker", broker.Name),
				zap.Error(err),
			)
			continue
		}

		result.UpdatedCount++
		if len(result.Results) < maxSampledResults {
			result.Results = append(result.Results, BrokerScoreSummary{
				ID:         broker.ID,
				Name:       broker.Name,
				TrustScore: score.Overall,
			})
		}

		if s.cache != nil {
			cached := &BrokerScore{
				BrokerID:   broker.ID,
				Name:       broker.Name,
				TrustScore: score.Overall,
				Components: score,
			}
			if err := s.cache.Set(ctx, broker.ID, cached); err != nil {
				logger.Warn("failed to refresh score cache",
					zap.Uint("broker_id", broker.ID),
					zap.Error(err),
				)
			}
		}
	}

	tracker.Success(map[string]interface{}{
		"total":   result.TotalBrokers,
		"updated": result.UpdatedCount,
		"errors":  result.ErrorCount,
	})

	logger.Info("trust score batch update complete",
		zap.Int("total", result.TotalBrokers),
		zap.Int("updated", result.UpdatedCount),
		zap.Int("errors", result.ErrorCount),
	)

	return result, nil
}

// GetBrokerScore returns the stored trust score for one broker, going
// through the cache when one is configured. Returns nil when the broker
// does not exist. Cache failures degrade to a storage read.
func (s *TrustService) GetBrokerScore(ctx context.Context, brokerID uint) (*BrokerScore, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, brokerID)
		if err != nil {
			logger.Warn("score cache read failed", zap.Uint("broker_id", brokerID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	broker, err := s.brokers.GetByID(ctx, brokerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get broker: %w", err)
	}
	if broker == nil {
		return nil, nil
	}

	score := &BrokerScore{
		BrokerID:   broker.ID,
		Name:       broker.Name,
		TrustScore: broker.TrustScore,
		Components: broker.TrustScoreComponents,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, brokerID, score); err != nil {
			logger.Warn("score cache write failed", zap.Uint("broker_id", brokerID), zap.Error(err))
		}
	}

	return score, nil
}

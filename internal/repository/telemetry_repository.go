package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/brokeranalysis/trust-service/internal/models"
	"gorm.io/gorm"
)

const insertBatchSize = 100

// TelemetryRepository persists flushed monitoring batches and answers
// aggregate stats queries. It implements monitoring.Store.
type TelemetryRepository struct {
	db *gorm.DB
}

// NewTelemetryRepository creates a new telemetry repository.
func NewTelemetryRepository(db *gorm.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

// SavePerformanceMetrics inserts a flushed batch of performance metrics.
func (r *TelemetryRepository) SavePerformanceMetrics(ctx context.Context, metrics []models.PerformanceMetric) error {
	if len(metrics) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(metrics, insertBatchSize).Error; err != nil {
		return fmt.Errorf("failed to save performance metrics: %w", err)
	}
	return nil
}

// SaveQualityMetrics inserts a flushed batch of quality metrics.
func (r *TelemetryRepository) SaveQualityMetrics(ctx context.Context, metrics []models.QualityMetric) error {
	if len(metrics) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(metrics, insertBatchSize).Error; err != nil {
		return fmt.Errorf("failed to save quality metrics: %w", err)
	}
	return nil
}

// SaveErrorEvents inserts a flushed batch of error events.
func (r *TelemetryRepository) SaveErrorEvents(ctx context.Context, events []models.ErrorEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(events, insertBatchSize).Error; err != nil {
		return fmt.Errorf("failed to save error events: %w", err)
	}
	return nil
}

// PerformanceStats aggregates persisted performance metrics recorded at or
// after since, optionally filtered to one operation.
func (r *TelemetryRepository) PerformanceStats(ctx context.Context, since time.Time, operation string) (*models.PerformanceStats, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.PerformanceMetric{}).Where("timestamp >= ?", since)
		if operation != "" {
			q = q.Where("operation = ?", operation)
		}
		return q
	}

	stats := &models.PerformanceStats{}

	if err := base().Count(&stats.TotalOperations).Error; err != nil {
		return nil, fmt.Errorf("failed to count performance metrics: %w", err)
	}
	if stats.TotalOperations == 0 {
		return stats, nil
	}

	var avg sql.NullFloat64
	if err := base().Select("COALESCE(AVG(duration_ms), 0)").Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("failed to average durations: %w", err)
	}
	if avg.Valid {
		stats.AvgDurationMs = avg.Float64
	}

	var successes int64
	if err := base().Where("success = ?", true).Count(&successes).Error; err != nil {
		return nil, fmt.Errorf("failed to count successes: %w", err)
	}
	stats.SuccessRate = float64(successes) / float64(stats.TotalOperations)

	var rows []models.LabelCount
	err := base().
		Select("error_type AS label, COUNT(*) AS count").
		Where("success = ? AND error_type <> ''", false).
		Group("error_type").
		Order("count DESC, error_type ASC").
		Limit(5).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank error types: %w", err)
	}
	stats.TopErrorTypes = rows

	return stats, nil
}

// QualityStats aggregates persisted quality metrics recorded at or after
// since. Issue labels are tallied in memory because they are stored as JSON
// arrays.
func (r *TelemetryRepository) QualityStats(ctx context.Context, since time.Time) (*models.QualityStats, error) {
	var metrics []models.QualityMetric
	err := r.db.WithContext(ctx).
		Where("timestamp >= ?", since).
		Find(&metrics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get quality metrics: %w", err)
	}

	stats := &models.QualityStats{TotalResponses: int64(len(metrics))}
	if len(metrics) == 0 {
		return stats, nil
	}

	var qualitySum, confidenceSum float64
	var withFeedback int
	issueCounts := make(map[string]int)

	for _, m := range metrics {
		qualitySum += m.QualityScore
		confidenceSum += m.ConfidenceScore
		if m.UserFeedback != "" {
			withFeedback++
		}
		for _, issue := range m.Issues {
			issueCounts[issue]++
		}
	}

	stats.AvgQualityScore = qualitySum / float64(len(metrics))
	stats.AvgConfidenceScore = confidenceSum / float64(len(metrics))
	stats.FeedbackRate = float64(withFeedback) / float64(len(metrics))
	stats.TopIssues = topLabels(issueCounts, 5)

	return stats, nil
}

func topLabels(counts map[string]int, limit int) []models.LabelCount {
	labels := make([]models.LabelCount, 0, len(counts))
	for label, count := range counts {
		labels = append(labels, models.LabelCount{Label: label, Count: count})
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].Count != labels[j].Count {
			return labels[i].Count > labels[j].Count
		}
		return labels[i].Label < labels[j].Label
	})
	if len(labels) > limit {
		labels = labels[:limit]
	}
	return labels
}

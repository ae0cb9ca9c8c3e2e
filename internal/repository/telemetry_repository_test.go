package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/brokeranalysis/trust-service/internal/models"
)

func TestSaveAndQueryPerformanceStats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTelemetryRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	metrics := []models.PerformanceMetric{
		{Operation: "chat_response", DurationMs: 100, Success: true, Timestamp: now},
		{Operation: "chat_response", DurationMs: 300, Success: true, Timestamp: now},
		{Operation: "chat_response", DurationMs: 200, Success: false, ErrorType: "timeout", Timestamp: now},
		{Operation: "search_content", DurationMs: 50, Success: false, ErrorType: "timeout", Timestamp: now},
		{Operation: "search_content", DurationMs: 80, Success: false, ErrorType: "bad_query", Timestamp: now},
		// Outside the queried window.
		{Operation: "chat_response", DurationMs: 9999, Success: false, ErrorType: "ancient", Timestamp: now.Add(-48 * time.Hour)},
	}
	if err := repo.SavePerformanceMetrics(ctx, metrics); err != nil {
		t.Fatalf("Failed to save performance metrics: %v", err)
	}

	since := now.Add(-time.Hour)

	stats, err := repo.PerformanceStats(ctx, since, "")
	if err != nil {
		t.Fatalf("Failed to query performance stats: %v", err)
	}
	if stats.TotalOperations != 5 {
		t.Errorf("TotalOperations = %d, expected 5", stats.TotalOperations)
	}
	if math.Abs(stats.AvgDurationMs-146) > 0.001 {
		t.Errorf("AvgDurationMs = %f, expected 146", stats.AvgDurationMs)
	}
	if math.Abs(stats.SuccessRate-0.4) > 0.001 {
		t.Errorf("SuccessRate = %f, expected 0.4", stats.SuccessRate)
	}
	if len(stats.TopErrorTypes) == 0 || stats.TopErrorTypes[0].Label != "timeout" || stats.TopErrorTypes[0].Count != 2 {
		t.Errorf("TopErrorTypes = %+v, expected timeout first with 2", stats.TopErrorTypes)
	}

	// Filtered to one operation.
	opStats, err := repo.PerformanceStats(ctx, since, "chat_response")
	if err != nil {
		t.Fatalf("Failed to query filtered stats: %v", err)
	}
	if opStats.TotalOperations != 3 {
		t.Errorf("Filtered TotalOperations = %d, expected 3", opStats.TotalOperations)
	}
	if math.Abs(opStats.AvgDurationMs-200) > 0.001 {
		t.Errorf("Filtered AvgDurationMs = %f, expected 200", opStats.AvgDurationMs)
	}
}

func TestPerformanceStatsEmptyWindow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTelemetryRepository(db)

	stats, err := repo.PerformanceStats(context.Background(), time.Now().Add(-time.Hour), "")
	if err != nil {
		t.Fatalf("Failed to query empty stats: %v", err)
	}
	if stats.TotalOperations != 0 || stats.AvgDurationMs != 0 || stats.SuccessRate != 0 {
		t.Errorf("Empty window should produce zero stats, got %+v", stats)
	}
}

func TestSaveAndQueryQualityStats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTelemetryRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	metrics := []models.QualityMetric{
		{ResponseID: "r1", Query: "best broker", QualityScore: 0.9, ConfidenceScore: 0.8, UserFeedback: "positive", Issues: []string{"slow"}, Timestamp: now},
		{ResponseID: "r2", Query: "fees", QualityScore: 0.7, ConfidenceScore: 0.6, Issues: []string{"slow", "off_topic"}, Timestamp: now},
		{ResponseID: "r3", Query: "spreads", QualityScore: 0.5, ConfidenceScore: 0.4, Issues: []string{"slow", "hallucination"}, Timestamp: now},
		{ResponseID: "r4", Query: "old", QualityScore: 0.1, ConfidenceScore: 0.1, Timestamp: now.Add(-72 * time.Hour)},
	}
	if err := repo.SaveQualityMetrics(ctx, metrics); err != nil {
		t.Fatalf("Failed to save quality metrics: %v", err)
	}

	stats, err := repo.QualityStats(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Failed to query quality stats: %v", err)
	}

	if stats.TotalResponses != 3 {
		t.Errorf("TotalResponses = %d, expected 3", stats.TotalResponses)
	}
	if math.Abs(stats.AvgQualityScore-0.7) > 0.001 {
		t.Errorf("AvgQualityScore = %f, expected 0.7", stats.AvgQualityScore)
	}
	if math.Abs(stats.FeedbackRate-1.0/3.0) > 0.001 {
		t.Errorf("FeedbackRate = %f, expected 1/3", stats.FeedbackRate)
	}
	if len(stats.TopIssues) == 0 || stats.TopIssues[0].Label != "slow" || stats.TopIssues[0].Count != 3 {
		t.Errorf("TopIssues = %+v, expected slow first with 3", stats.TopIssues)
	}
}

func TestQualityStatsTopIssuesLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTelemetryRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	metrics := []models.QualityMetric{
		{ResponseID: "r1", Issues: []string{"a", "b", "c", "d", "e", "f", "g"}, Timestamp: now},
		{ResponseID: "r2", Issues: []string{"a", "b"}, Timestamp: now},
	}
	if err := repo.SaveQualityMetrics(ctx, metrics); err != nil {
		t.Fatalf("Failed to save quality metrics: %v", err)
	}

	stats, err := repo.QualityStats(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Failed to query quality stats: %v", err)
	}
	if len(stats.TopIssues) != 5 {
		t.Errorf("TopIssues length = %d, expected 5", len(stats.TopIssues))
	}
	if stats.TopIssues[0].Label != "a" || stats.TopIssues[1].Label != "b" {
		t.Errorf("Most frequent issues should rank first: %+v", stats.TopIssues)
	}
}

func TestSaveErrorEvents(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTelemetryRepository(db)
	ctx := context.Background()

	events := []models.ErrorEvent{
		{Operation: "database_write", ErrorType: "timeout", ErrorMessage: "deadline", Severity: models.SeverityCritical, Timestamp: time.Now().UTC()},
		{Operation: "search", ErrorType: "empty", ErrorMessage: "no index", Severity: models.SeverityMedium, Timestamp: time.Now().UTC(),
			RequestData: map[string]interface{}{"query": "forex"}},
	}
	if err := repo.SaveErrorEvents(ctx, events); err != nil {
		t.Fatalf("Failed to save error events: %v", err)
	}

	var count int64
	if err := db.Model(&models.ErrorEvent{}).Count(&count).Error; err != nil {
		t.Fatalf("Failed to count error events: %v", err)
	}
	if count != 2 {
		t.Errorf("Persisted events = %d, expected 2", count)
	}

	var critical models.ErrorEvent
	if err := db.Where("severity = ?", models.SeverityCritical).First(&critical).Error; err != nil {
		t.Fatalf("Failed to load critical event: %v", err)
	}
	if critical.Operation != "database_write" {
		t.Errorf("Operation = %q", critical.Operation)
	}
}

func TestSaveEmptyBatchesAreNoops(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTelemetryRepository(db)
	ctx := context.Background()

	if err := repo.SavePerformanceMetrics(ctx, nil); err != nil {
		t.Errorf("Empty performance batch should be a no-op: %v", err)
	}
	if err := repo.SaveQualityMetrics(ctx, nil); err != nil {
		t.Errorf("Empty quality batch should be a no-op: %v", err)
	}
	if err := repo.SaveErrorEvents(ctx, nil); err != nil {
		t.Errorf("Empty error batch should be a no-op: %v", err)
	}
}

package models

import (
	"time"
)

// Severity classifies how urgently an error event should be persisted.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// PerformanceMetric records the outcome of a single instrumented operation.
type PerformanceMetric struct {
	ID           uint                   `gorm:"primaryKey" json:"id"`
	Operation    string                 `gorm:"index;not null" json:"operation"`
	DurationMs   float64                `json:"duration_ms"`
	Success      bool                   `json:"success"`
	ErrorType    string                 `json:"error_type,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `gorm:"serializer:json" json:"metadata,omitempty"`
	Timestamp    time.Time              `gorm:"not null;index" json:"timestamp"`
}

func (PerformanceMetric) TableName() string { return "performance_metrics" }

// QualityMetric records a quality assessment of a generated response.
type QualityMetric struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ResponseID      string    `gorm:"index" json:"response_id"`
	Query           string    `json:"query"`
	Intent          string    `json:"intent"`
	QualityScore    float64   `json:"quality_score"`
	ConfidenceScore float64   `json:"confidence_score"`
	UserFeedback    string    `json:"user_feedback,omitempty"` // empty when no feedback was given
	Issues          []string  `gorm:"serializer:json" json:"issues,omitempty"`
	Timestamp       time.Time `gorm:"not null;index" json:"timestamp"`
}

func (QualityMetric) TableName() string { return "quality_metrics" }

// ErrorEvent records a failure with enough context to triage it later.
type ErrorEvent struct {
	ID           uint                   `gorm:"primaryKey" json:"id"`
	Operation    string                 `gorm:"index;not null" json:"operation"`
	ErrorType    string                 `json:"error_type"`
	ErrorMessage string                 `json:"error_message"`
	StackTrace   string                 `json:"stack_trace,omitempty"`
	UserContext  string                 `json:"user_context,omitempty"`
	RequestData  map[string]interface{} `gorm:"serializer:json" json:"request_data,omitempty"`
	Severity     Severity               `gorm:"index;not null" json:"severity"`
	Timestamp    time.Time              `gorm:"not null;index" json:"timestamp"`
}

func (ErrorEvent) TableName() string { return "error_events" }

// LabelCount pairs a label with how often it occurred.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// PerformanceStats aggregates persisted performance metrics over a time range.
type PerformanceStats struct {
	TotalOperations int64        `json:"total_operations"`
	AvgDurationMs   float64      `json:"avg_duration_ms"`
	SuccessRate     float64      `json:"success_rate"` // 0-1
	TopErrorTypes   []LabelCount `json:"top_error_types"`
}

// QualityStats aggregates persisted quality metrics over a time range.
type QualityStats struct {
	TotalResponses     int64        `json:"total_responses"`
	AvgQualityScore    float64      `json:"avg_quality_score"`
	AvgConfidenceScore float64      `json:"avg_confidence_score"`
	FeedbackRate       float64      `json:"feedback_rate"` // fraction of responses with user feedback
	TopIssues          []LabelCount `json:"top_issues"`    // at most 5 labels
}

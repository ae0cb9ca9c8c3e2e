package models

import (
	"time"
)

// TrustScoreComponent is one weighted sub-score with the factor values that
// produced it, kept for auditability.
type TrustScoreComponent struct {
	Score   float64                `json:"score"`  // 0-100
	Weight  float64                `json:"weight"` // fraction of the overall score
	Factors map[string]interface{} `json:"factors"`
}

// TrustScoreResult is the full output of a trust score calculation.
type TrustScoreResult struct {
	Overall             float64             `json:"overall"` // 0-100, 2 decimals
	Regulation          TrustScoreComponent `json:"regulation"`
	FinancialStability  TrustScoreComponent `json:"financial_stability"`
	UserFeedback        TrustScoreComponent `json:"user_feedback"`
	Transparency        TrustScoreComponent `json:"transparency"`
	PlatformReliability TrustScoreComponent `json:"platform_reliability"`
	LastUpdated         time.Time           `json:"last_updated"`
	Methodology         string              `json:"methodology"`
}

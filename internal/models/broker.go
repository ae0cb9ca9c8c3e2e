package models

import (
	"time"
)

// RegulationInfo is the regulatory profile nested inside a broker record.
type RegulationInfo struct {
	PrimaryRegulator   string   `json:"primary_regulator"`
	AdditionalLicenses []string `json:"additional_licenses"`
	RegulatoryHistory  string   `json:"regulatory_history"` // clean/minor_issues/major_issues
	JurisdictionTier   string   `json:"jurisdiction_tier"`  // tier1/tier2/tier3/offshore
}

// Broker represents a broker row as stored. Optional attributes use pointer
// types so that an absent value is distinguishable from an explicit zero;
// the scoring factor extraction owns the default for every absent field.
type Broker struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"uniqueIndex" json:"slug"`

	RegulationInfo *RegulationInfo `gorm:"serializer:json" json:"regulation_info,omitempty"`

	ParentCompany     string  `json:"parent_company"`
	PubliclyTraded    bool    `json:"publicly_traded"`
	CapitalAdequacy   string  `json:"capital_adequacy"` // strong/adequate/weak
	InsuranceCoverage float64 `json:"insurance_coverage"`
	FoundedYear       int     `json:"founded_year"`

	AvgRating            float64 `json:"avg_rating"` // 0-5
	ReviewCount          int     `json:"review_count"`
	SupportRating        float64 `json:"support_rating"` // 0-5
	RatingTrend          string  `json:"rating_trend"`   // improving/stable/declining
	WithdrawalComplaints int     `json:"withdrawal_complaints"`

	PricingClarity        *bool `json:"pricing_clarity,omitempty"`
	TermsAccessibility    *bool `json:"terms_accessibility,omitempty"`
	RegulatoryDisclosures *bool `json:"regulatory_disclosures,omitempty"`
	FeeTransparency       *bool `json:"fee_transparency,omitempty"`
	AuditedFinancials     *bool `json:"audited_financials,omitempty"`

	PlatformsCount  int `json:"platforms_count"`
	ServerLocations int `json:"server_locations"`

	TrustScore           float64           `json:"trust_score"`
	TrustScoreComponents *TrustScoreResult `gorm:"serializer:json" json:"trust_score_components,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

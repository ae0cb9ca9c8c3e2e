package scoring

import (
	"time"

	"github.com/brokeranalysis/trust-service/internal/models"
)

// Defaults applied when a broker record is missing data. Absent data never
// blocks scoring; it degrades toward these neutral baselines.
const (
	defaultRegulatoryHistory = "unknown"
	defaultJurisdictionTier  = "tier3"
	defaultRatingTrend       = "stable"
	defaultCapitalAdequacy   = "adequate"
	defaultExecutionQuality  = "good"

	// Platform telemetry is not sourced from broker records yet, so every
	// broker is scored against the same assumed baseline.
	defaultUptimePercentage = 99.5
	defaultTechnicalIssues  = 1
)

// RegulationFactors feed the regulation sub-scorer.
type RegulationFactors struct {
	PrimaryRegulator   string
	AdditionalLicenses int
	RegulatoryHistory  string
	JurisdictionTier   string
}

// FinancialFactors feed the financial stability sub-scorer.
type FinancialFactors struct {
	PubliclyTraded    bool
	ParentCompany     string
	CapitalAdequacy   string
	InsuranceCoverage float64
	YearsInBusiness   int
}

// FeedbackFactors feed the user feedback sub-scorer.
type FeedbackFactors struct {
	AvgRating            float64
	ReviewCount          int
	RatingTrend          string
	WithdrawalComplaints int
	SupportRating        float64
}

// TransparencyFactors feed the transparency sub-scorer.
type TransparencyFactors struct {
	PricingClarity        bool
	TermsAccessibility    bool
	RegulatoryDisclosures bool
	FeeTransparency       bool
	AuditedFinancials     bool
}

// PlatformFactors feed the platform reliability sub-scorer.
type PlatformFactors struct {
	UptimePercentage float64
	ExecutionQuality string
	TechnicalIssues  int
	ServerLocations  int
}

// TrustFactors is the fully-defaulted input to the five sub-scorers.
type TrustFactors struct {
	Regulation   RegulationFactors
	Financial    FinancialFactors
	Feedback     FeedbackFactors
	Transparency TransparencyFactors
	Platform     PlatformFactors
}

// ExtractFactors maps a broker record onto the five factor groups, filling
// every absent field with its documented default. All default policy lives
// here; the sub-scorers assume fully-populated inputs. A nil broker yields
// the all-defaults factor set.
func ExtractFactors(broker *models.Broker) *TrustFactors {
	f := &TrustFactors{
		Regulation: RegulationFactors{
			RegulatoryHistory: defaultRegulatoryHistory,
			JurisdictionTier:  defaultJurisdictionTier,
		},
		Financial: FinancialFactors{
			CapitalAdequacy: defaultCapitalAdequacy,
		},
		Feedback: FeedbackFactors{
			RatingTrend: defaultRatingTrend,
		},
		Transparency: TransparencyFactors{
			// Terms are assumed reachable unless the record says otherwise.
			TermsAccessibility: true,
		},
		Platform: PlatformFactors{
			UptimePercentage: defaultUptimePercentage,
			ExecutionQuality: defaultExecutionQuality,
			TechnicalIssues:  defaultTechnicalIssues,
		},
	}

	if broker == nil {
		return f
	}

	if reg := broker.RegulationInfo; reg != nil {
		f.Regulation.PrimaryRegulator = reg.PrimaryRegulator
		f.Regulation.AdditionalLicenses = len(reg.AdditionalLicenses)
		if reg.RegulatoryHistory != "" {
			f.Regulation.RegulatoryHistory = reg.RegulatoryHistory
		}
		if reg.JurisdictionTier != "" {
			f.Regulation.JurisdictionTier = reg.JurisdictionTier
		}
	}

	f.Financial.PubliclyTraded = broker.PubliclyTraded
	f.Financial.ParentCompany = broker.ParentCompany
	if broker.CapitalAdequacy != "" {
		f.Financial.CapitalAdequacy = broker.CapitalAdequacy
	}
	f.Financial.InsuranceCoverage = broker.InsuranceCoverage
	if broker.FoundedYear > 0 {
		if years := time.Now().Year() - broker.FoundedYear; years > 0 {
			f.Financial.YearsInBusiness = years
		}
	}

	f.Feedback.AvgRating = broker.AvgRating
	f.Feedback.ReviewCount = broker.ReviewCount
	if broker.RatingTrend != "" {
		f.Feedback.RatingTrend = broker.RatingTrend
	}
	f.Feedback.WithdrawalComplaints = broker.WithdrawalComplaints
	f.Feedback.SupportRating = broker.SupportRating

	if broker.PricingClarity != nil {
		f.Transparency.PricingClarity = *broker.PricingClarity
	}
	if broker.TermsAccessibility != nil {
		f.Transparency.TermsAccessibility = *broker.TermsAccessibility
	}
	if broker.RegulatoryDisclosures != nil {
		f.Transparency.RegulatoryDisclosures = *broker.RegulatoryDisclosures
	}
	if broker.FeeTransparency != nil {
		f.Transparency.FeeTransparency = *broker.FeeTransparency
	}
	if broker.AuditedFinancials != nil {
		f.Transparency.AuditedFinancials = *broker.AuditedFinancials
	}

	f.Platform.ServerLocations = broker.ServerLocations

	return f
}

// Provenance maps, stored on each score component.

func (f RegulationFactors) provenance() map[string]interface{} {
	return map[string]interface{}{
		"primary_regulator":   f.PrimaryRegulator,
		"additional_licenses": f.AdditionalLicenses,
		"regulatory_history":  f.RegulatoryHistory,
		"jurisdiction_tier":   f.JurisdictionTier,
	}
}

func (f FinancialFactors) provenance() map[string]interface{} {
	return map[string]interface{}{
		"publicly_traded":    f.PubliclyTraded,
		"parent_company":     f.ParentCompany,
		"capital_adequacy":   f.CapitalAdequacy,
		"insurance_coverage": f.InsuranceCoverage,
		"years_in_business":  f.YearsInBusiness,
	}
}

func (f FeedbackFactors) provenance() map[string]interface{} {
	return map[string]interface{}{
		"avg_rating":            f.AvgRating,
		"review_count":          f.ReviewCount,
		"rating_trend":          f.RatingTrend,
		"withdrawal_complaints": f.WithdrawalComplaints,
		"support_rating":        f.SupportRating,
	}
}

func (f TransparencyFactors) provenance() map[string]interface{} {
	return map[string]interface{}{
		"pricing_clarity":        f.PricingClarity,
		"terms_accessibility":    f.TermsAccessibility,
		"regulatory_disclosures": f.RegulatoryDisclosures,
		"fee_transparency":       f.FeeTransparency,
		"audited_financials":     f.AuditedFinancials,
	}
}

func (f PlatformFactors) provenance() map[string]interface{} {
	return map[string]interface{}{
		"uptime_percentage": f.UptimePercentage,
		"execution_quality": f.ExecutionQuality,
		"technical_issues":  f.TechnicalIssues,
		"server_locations":  f.ServerLocations,
	}
}

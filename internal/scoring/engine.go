package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/brokeranalysis/trust-service/internal/models"
)

// Component weights. They must sum to exactly 1.00.
const (
	RegulationWeight          = 0.30
	FinancialStabilityWeight  = 0.25
	UserFeedbackWeight        = 0.20
	TransparencyWeight        = 0.15
	PlatformReliabilityWeight = 0.10

	// MethodologyVersion is stamped on every result so persisted scores can
	// be traced back to the scoring rules that produced them.
	MethodologyVersion = "trust-score-v1"
)

// scoreBand awards Points when the measured value is at least Min. Bands are
// ordered highest threshold first; the first match wins.
type scoreBand struct {
	Min    float64
	Points float64
}

// Regulation: points per primary regulator. Anything not listed is treated
// as offshore/unknown and gets the minimum.
var regulatorPoints = map[string]float64{
	"FCA":   40,
	"CFTC":  40,
	"NFA":   40,
	"SEC":   40,
	"BAFIN": 40,
	"FINMA": 40,
	"ASIC":  40,
	"MAS":   35,
	"JFSA":  35,
	"IIROC": 35,
	"CYSEC": 30,
	"CBI":   30,
	"DFSA":  28,
	"FSCA":  25,
	"CNMV":  25,
	"FSC":   20,
}

const unknownRegulatorPoints = 15

var regulatoryHistoryPoints = map[string]float64{
	"clean":        25,
	"minor_issues": 15,
	"major_issues": 5,
}

const defaultHistoryPoints = 15

var jurisdictionTierPoints = map[string]float64{
	"tier1":    20,
	"tier2":    15,
	"tier3":    10,
	"offshore": 5,
}

const defaultTierPoints = 10

var capitalAdequacyPoints = map[string]float64{
	"strong":   30,
	"adequate": 20,
	"weak":     10,
}

const defaultCapitalPoints = 20

var insuranceBands = []scoreBand{
	{Min: 1_000_000, Points: 25},
	{Min: 500_000, Points: 20},
	{Min: 100_000, Points: 15},
	{Min: 1, Points: 10},
}

var yearsInBusinessBands = []scoreBand{
	{Min: 20, Points: 25},
	{Min: 10, Points: 20},
	{Min: 5, Points: 15},
	{Min: 2, Points: 10},
}

const minYearsPoints = 5

var reviewCountBands = []scoreBand{
	{Min: 1000, Points: 20},
	{Min: 500, Points: 17},
	{Min: 200, Points: 14},
	{Min: 50, Points: 11},
	{Min: 10, Points: 8},
}

const minReviewPoints = 5

var ratingTrendPoints = map[string]float64{
	"improving": 15,
	"stable":    10,
	"declining": 5,
}

const defaultTrendPoints = 10

var uptimeBands = []scoreBand{
	{Min: 99.9, Points: 40},
	{Min: 99.5, Points: 35},
	{Min: 99.0, Points: 30},
	{Min: 98.5, Points: 25},
	{Min: 98.0, Points: 20},
}

const minUptimePoints = 10

var executionQualityPoints = map[string]float64{
	"excellent": 30,
	"good":      25,
	"fair":      15,
	"poor":      5,
}

const defaultExecutionPoints = 25

// Engine computes broker trust scores.
type Engine struct{}

// NewEngine creates a new trust score engine.
func NewEngine() *Engine {
	return &Engine{}
}

// CalculateTrustScore computes the five weighted sub-scores for a broker and
// combines them into an overall 0-100 score. It is pure, deterministic, and
// by contract never fails: missing fields degrade to documented defaults, so
// every broker always receives a score. Callers are responsible for checking
// the broker exists before scoring it.
func (e *Engine) CalculateTrustScore(broker *models.Broker) *models.TrustScoreResult {
	f := ExtractFactors(broker)

	regulation := round2(clamp100(e.scoreRegulation(f.Regulation)))
	financial := round2(clamp100(e.scoreFinancialStability(f.Financial)))
	feedback := round2(clamp100(e.scoreUserFeedback(f.Feedback)))
	transparency := round2(clamp100(e.scoreTransparency(f.Transparency)))
	platform := round2(clamp100(e.scorePlatformReliability(f.Platform)))

	overall := round2(regulation*RegulationWeight +
		financial*FinancialStabilityWeight +
		feedback*UserFeedbackWeight +
		transparency*TransparencyWeight +
		platform*PlatformReliabilityWeight)

	return &models.TrustScoreResult{
		Overall: overall,
		Regulation: models.TrustScoreComponent{
			Score:   regulation,
			Weight:  RegulationWeight,
			Factors: f.Regulation.provenance(),
		},
		FinancialStability: models.TrustScoreComponent{
			Score:   financial,
			Weight:  FinancialStabilityWeight,
			Factors: f.Financial.provenance(),
		},
		UserFeedback: models.TrustScoreComponent{
			Score:   feedback,
			Weight:  UserFeedbackWeight,
			Factors: f.Feedback.provenance(),
		},
		Transparency: models.TrustScoreComponent{
			Score:   transparency,
			Weight:  TransparencyWeight,
			Factors: f.Transparency.provenance(),
		},
		PlatformReliability: models.TrustScoreComponent{
			Score:   platform,
			Weight:  PlatformReliabilityWeight,
			Factors: f.Platform.provenance(),
		},
		LastUpdated: time.Now().UTC(),
		Methodology: MethodologyVersion,
	}
}

// scoreRegulation: primary regulator 15-40, additional licenses up to 15,
// regulatory history 5-25, jurisdiction tier 5-20.
func (e *Engine) scoreRegulation(f RegulationFactors) float64 {
	score := lookupPoints(regulatorPoints, strings.ToUpper(f.PrimaryRegulator), unknownRegulatorPoints)
	score += math.Min(float64(f.AdditionalLicenses)*3, 15)
	score += lookupPoints(regulatoryHistoryPoints, f.RegulatoryHistory, defaultHistoryPoints)
	score += lookupPoints(jurisdictionTierPoints, f.JurisdictionTier, defaultTierPoints)
	return score
}

// scoreFinancialStability: ownership structure 10-20, capital adequacy
// 10-30, insurance coverage 0-25, years in business 5-25.
func (e *Engine) scoreFinancialStability(f FinancialFactors) float64 {
	var ownership float64
	switch {
	case f.PubliclyTraded:
		ownership = 20
	case f.ParentCompany != "":
		ownership = 15
	default:
		ownership = 10
	}

	score := ownership
	score += lookupPoints(capitalAdequacyPoints, f.CapitalAdequacy, defaultCapitalPoints)
	score += bandPoints(insuranceBands, f.InsuranceCoverage, 0)
	score += bandPoints(yearsInBusinessBands, float64(f.YearsInBusiness), minYearsPoints)
	return score
}

// scoreUserFeedback: average rating up to 40, review-count credibility 5-20,
// rating trend 5-15, withdrawal-complaint penalty 0-15, support rating up
// to 10.
func (e *Engine) scoreUserFeedback(f FeedbackFactors) float64 {
	score := clampRating(f.AvgRating) / 5 * 40
	score += bandPoints(reviewCountBands, float64(f.ReviewCount), minReviewPoints)
	score += lookupPoints(ratingTrendPoints, f.RatingTrend, defaultTrendPoints)
	score += math.Max(0, 15-math.Min(float64(f.WithdrawalComplaints)*2, 15))
	score += clampRating(f.SupportRating) / 5 * 10
	return score
}

// scoreTransparency: five independent flags, 20 points each.
func (e *Engine) scoreTransparency(f TransparencyFactors) float64 {
	var score float64
	for _, set := range []bool{
		f.PricingClarity,
		f.TermsAccessibility,
		f.RegulatoryDisclosures,
		f.FeeTransparency,
		f.AuditedFinancials,
	} {
		if set {
			score += 20
		}
	}
	return score
}

// scorePlatformReliability: uptime 10-40, execution quality 5-30, technical
// issue penalty 0-20, server location bonus 0-10.
func (e *Engine) scorePlatformReliability(f PlatformFactors) float64 {
	score := bandPoints(uptimeBands, f.UptimePercentage, minUptimePoints)
	score += lookupPoints(executionQualityPoints, f.ExecutionQuality, defaultExecutionPoints)
	score += math.Max(0, 20-math.Min(float64(f.TechnicalIssues)*3, 20))
	score += math.Min(float64(f.ServerLocations)*2, 10)
	return score
}

func lookupPoints(table map[string]float64, key string, fallback float64) float64 {
	if points, ok := table[key]; ok {
		return points
	}
	return fallback
}

func bandPoints(bands []scoreBand, value, fallback float64) float64 {
	for _, b := range bands {
		if value >= b.Min {
			return b.Points
		}
	}
	return fallback
}

func clampRating(r float64) float64 {
	return math.Max(0, math.Min(r, 5))
}

func clamp100(score float64) float64 {
	return math.Max(0, math.Min(score, 100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

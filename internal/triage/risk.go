package triage

import "math"

// Default risk thresholds shared by the API and the admin dashboard.
const (
	HighAnomaly     = 80
	MediumDuplicate = 70
)

// RiskPolicy holds the configurable risk thresholds.
type RiskPolicy struct {
	HighAnomaly     float64
	MediumDuplicate float64
}

// DefaultRiskPolicy returns the built-in thresholds.
func DefaultRiskPolicy() RiskPolicy {
	return RiskPolicy{HighAnomaly: HighAnomaly, MediumDuplicate: MediumDuplicate}
}

// IsHighRisk reports whether an anomaly score must bypass automation entirely.
func (p RiskPolicy) IsHighRisk(anomalyScore float64) bool {
	return anomalyScore >= p.highAnomaly()
}

// IsDuplicateWarning reports whether a duplicate score deserves an admin warning.
func (p RiskPolicy) IsDuplicateWarning(duplicateScore float64) bool {
	limit := p.MediumDuplicate
	if limit <= 0 {
		limit = MediumDuplicate
	}
	return duplicateScore >= limit
}

func (p RiskPolicy) highAnomaly() float64 {
	if p.HighAnomaly <= 0 {
		return HighAnomaly
	}
	return p.HighAnomaly
}

// AnomalyInput describes how a reported price relates to the catalog.
type AnomalyInput struct {
	ReportedPrice   *float64
	CatalogPrice    *float64
	MatchedProvider bool
	MatchedService  bool
}

// PriceDiffPercent returns the absolute deviation of the reported price from the catalog price.
// The second value is false when either price is unknown.
func (in AnomalyInput) PriceDiffPercent() (float64, bool) {
	if in.ReportedPrice == nil || in.CatalogPrice == nil || *in.CatalogPrice <= 0 {
		return 0, false
	}
	return math.Abs(*in.ReportedPrice-*in.CatalogPrice) / *in.CatalogPrice * 100, true
}

// CalcAnomalyScore scores how unusual a report looks against catalog data, in [0,100].
func CalcAnomalyScore(in AnomalyInput) float64 {
	score := 0.0
	if diff, ok := in.PriceDiffPercent(); ok {
		switch {
		case diff >= 100:
			score += 60
		case diff > 40:
			score += 30
		}
	}
	if !in.MatchedProvider {
		score += 20
	}
	if !in.MatchedService {
		score += 20
	}
	return clampFloat(score, 0, 100)
}

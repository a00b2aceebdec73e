package triage

import "github.com/noah-isme/medprice-api/internal/models"

// RecommendationLevel is the closed set of outcomes of EvaluateAutoRecommendation.
type RecommendationLevel string

const (
	RecommendationBlocked        RecommendationLevel = "blocked"
	RecommendationRecommended    RecommendationLevel = "recommended"
	RecommendationPossible       RecommendationLevel = "possible"
	RecommendationNotRecommended RecommendationLevel = "not_recommended"
)

const (
	blockedDuplicateScore = 60
	recommendedAutoScore  = 80
	possibleAutoScore     = 50
)

// Recommendation pairs a level with its human-readable message.
type Recommendation struct {
	Level   RecommendationLevel `json:"level"`
	Message string              `json:"message"`
}

// EvaluateAutoRecommendation combines the auto and duplicate scores. A high duplicate score
// blocks automation regardless of the auto score.
func EvaluateAutoRecommendation(autoScore, duplicateScore float64) Recommendation {
	switch {
	case duplicateScore >= blockedDuplicateScore:
		return Recommendation{Level: RecommendationBlocked, Message: "likely duplicate report; automatic processing blocked"}
	case autoScore >= recommendedAutoScore:
		return Recommendation{Level: RecommendationRecommended, Message: "automatic processing strongly recommended"}
	case autoScore >= possibleAutoScore:
		return Recommendation{Level: RecommendationPossible, Message: "automatic processing possible"}
	default:
		return Recommendation{Level: RecommendationNotRecommended, Message: "automatic processing not recommended"}
	}
}

// NextStatus maps the recommendation to the status an auto-process run moves a report to.
func (r Recommendation) NextStatus() models.ReportStatus {
	if r.Level == RecommendationRecommended {
		return models.ReportStatusAutoDone
	}
	return models.ReportStatusManualRequired
}

// Valid reports whether the level belongs to the closed set.
func (l RecommendationLevel) Valid() bool {
	switch l {
	case RecommendationBlocked, RecommendationRecommended, RecommendationPossible, RecommendationNotRecommended:
		return true
	}
	return false
}

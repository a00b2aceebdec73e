package triage

import (
	"math"
	"unicode/utf8"
)

const (
	baseThreshold = 70
	minThreshold  = 40
	maxThreshold  = 90
)

// ScoreInput carries the report signals read by CalcAutoProcessScore.
type ScoreInput struct {
	Category   string
	Content    string
	ProviderID *uint
	Price      *float64
}

// AutoScoreResult is the outcome of CalcAutoProcessScore.
type AutoScoreResult struct {
	Score     float64  `json:"score"`
	Auto      bool     `json:"auto"`
	Threshold int      `json:"threshold"`
	Reasons   []string `json:"reasons"`
	Weights   Weights  `json:"weights"`
	Message   string   `json:"message"`
}

// CalcAutoProcessScore computes the additive, weight-scaled auto-process score in [0,100].
// Missing fields contribute nothing.
func CalcAutoProcessScore(input ScoreInput, weights Weights) AutoScoreResult {
	w := weights.Normalized()
	score := 0.0
	reasons := make([]string, 0, 4)

	if input.Category != "" {
		score += 20 * w.Priority
		reasons = append(reasons, "category provided")
	}

	length := utf8.RuneCountInString(input.Content)
	switch {
	case length >= 30:
		score += 30 * w.Similarity
		reasons = append(reasons, "content is detailed (30+ characters)")
	case length >= 10:
		score += 15 * w.Similarity
		reasons = append(reasons, "content has 10+ characters")
	}

	if input.ProviderID != nil && *input.ProviderID != 0 {
		score += 20 * w.Provider
		reasons = append(reasons, "provider linked")
	}

	if input.Price != nil && *input.Price != 0 {
		score += 30 * w.Similarity
		reasons = append(reasons, "price included")
	}

	score = clampFloat(score, 0, 100)
	threshold := Threshold(w.Priority)
	auto := score >= float64(threshold)

	message := "auto-process score is below the threshold"
	if auto {
		message = "auto-process criteria met"
	}

	return AutoScoreResult{
		Score:     round4(score),
		Auto:      auto,
		Threshold: threshold,
		Reasons:   reasons,
		Weights:   w,
		Message:   message,
	}
}

// Threshold derives the acceptance threshold from the priority weight.
func Threshold(priorityWeight float64) int {
	t := int(math.Round(baseThreshold * orOne(priorityWeight)))
	if t < minThreshold {
		return minThreshold
	}
	if t > maxThreshold {
		return maxThreshold
	}
	return t
}

package triage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint        { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestCalcAutoProcessScoreCompleteReport(t *testing.T) {
	result := CalcAutoProcessScore(ScoreInput{
		Category:   CategoryPriceError,
		Content:    strings.Repeat("a", 35),
		ProviderID: uintPtr(1),
		Price:      floatPtr(50000),
	}, DefaultWeights())

	require.Equal(t, 100.0, result.Score)
	require.Equal(t, 70, result.Threshold)
	require.True(t, result.Auto)
	require.Len(t, result.Reasons, 4)
}

func TestCalcAutoProcessScoreSparseReport(t *testing.T) {
	result := CalcAutoProcessScore(ScoreInput{
		Category:   CategoryPriceError,
		Content:    "short",
		ProviderID: uintPtr(1),
	}, DefaultWeights())

	require.Equal(t, 40.0, result.Score)
	require.False(t, result.Auto)
}

func TestCalcAutoProcessScoreCountsRunes(t *testing.T) {
	// Ten Hangul syllables are thirty bytes but only ten characters.
	result := CalcAutoProcessScore(ScoreInput{Content: "가격이올랐어요정말요"}, DefaultWeights())
	require.Equal(t, 15.0, result.Score)
}

func TestCalcAutoProcessScoreZeroWeightsAreNeutral(t *testing.T) {
	input := ScoreInput{Category: CategoryOther, Content: strings.Repeat("x", 12)}
	require.Equal(t,
		CalcAutoProcessScore(input, DefaultWeights()).Score,
		CalcAutoProcessScore(input, Weights{}).Score,
	)
}

func TestCalcAutoProcessScoreStaysInRange(t *testing.T) {
	heavy := Weights{Similarity: 3, Provider: 3, Duplicate: 3, Priority: 3}
	result := CalcAutoProcessScore(ScoreInput{
		Category:   CategoryPriceError,
		Content:    strings.Repeat("a", 40),
		ProviderID: uintPtr(1),
		Price:      floatPtr(1),
	}, heavy)
	require.Equal(t, 100.0, result.Score)
	require.Equal(t, 90, result.Threshold)

	empty := CalcAutoProcessScore(ScoreInput{}, DefaultWeights())
	require.Equal(t, 0.0, empty.Score)
	require.Empty(t, empty.Reasons)
}

func TestCalcAutoProcessScoreIsDeterministic(t *testing.T) {
	input := ScoreInput{Category: CategoryInfoUpdate, Content: "moved to the third floor", ProviderID: uintPtr(3)}
	w := Weights{Similarity: 1.1, Provider: 0.9, Duplicate: 1, Priority: 1.05}
	require.Equal(t, CalcAutoProcessScore(input, w), CalcAutoProcessScore(input, w))
}

func TestThresholdIsClampedAndMonotonic(t *testing.T) {
	require.Equal(t, 40, Threshold(0.3))
	require.Equal(t, 70, Threshold(0))
	require.Equal(t, 70, Threshold(1))
	require.Equal(t, 90, Threshold(2))

	previous := Threshold(0.5)
	for w := 0.55; w <= 1.5; w += 0.05 {
		current := Threshold(w)
		require.GreaterOrEqual(t, current, previous)
		previous = current
	}
}

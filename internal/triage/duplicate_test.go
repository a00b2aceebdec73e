package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTextSimilarity(t *testing.T) {
	require.Equal(t, 0.0, TextSimilarity("", "abc"))
	require.Equal(t, 0.0, TextSimilarity("abc", ""))
	require.Equal(t, 1.0, TextSimilarity("abc", "cba"))
	require.InDelta(t, 0.5, TextSimilarity("ab", "abzz"), 1e-9)
}

func TestCalcDuplicateScorePunctuationOnlyDifference(t *testing.T) {
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	result := CalcDuplicateScore("가격이 10만원으로 올랐어요", now, []DuplicateCandidate{
		{ID: 3, Content: "가격이 10만원으로 올랐어요!", CreatedAt: now.Add(-10 * time.Minute)},
	})

	require.Equal(t, 70.0, result.Score)
	require.Equal(t, 1, result.MatchedCount)
	require.Equal(t, uint(3), result.Matched[0].ID)
	require.Equal(t, int64(10), result.Matched[0].TimeDiffMinutes)
	require.GreaterOrEqual(t, result.TopSimilarity, 0.8)
	require.Equal(t, RecommendationBlocked, EvaluateAutoRecommendation(100, result.Score).Level)
}

func TestCalcDuplicateScoreTiersAndCap(t *testing.T) {
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	content := "abcdefghij"

	result := CalcDuplicateScore(content, now, []DuplicateCandidate{
		{ID: 1, Content: "abcdefg", CreatedAt: now.Add(-3 * time.Hour)},
		{ID: 2, Content: "abcde", CreatedAt: now.Add(-10 * time.Hour)},
		{ID: 3, Content: "xyz", CreatedAt: now},
		{ID: 4, Content: "abcdefghij", CreatedAt: now.Add(time.Minute)},
	})

	// 0.7 -> 30+10, 0.5 -> 10+0, 1.0 -> 50+20, capped at 100.
	require.Equal(t, 100.0, result.Score)
	require.Equal(t, 3, result.MatchedCount)
	require.Equal(t, []uint{4, 1, 2}, []uint{result.Matched[0].ID, result.Matched[1].ID, result.Matched[2].ID})
	require.Equal(t, 0.7, result.Matched[1].Similarity)
}

func TestCalcDuplicateScoreNoCandidates(t *testing.T) {
	result := CalcDuplicateScore("anything", time.Now(), nil)
	require.Zero(t, result.Score)
	require.Zero(t, result.MatchedCount)
	require.NotNil(t, result.Matched)
}

package triage

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// DuplicateWindow is the default lookback for duplicate candidates.
const DuplicateWindow = 72 * time.Hour

const minSimilarity = 0.3

// DuplicateCandidate is another report against the same provider inside the lookback window.
type DuplicateCandidate struct {
	ID        uint
	Content   string
	CreatedAt time.Time
}

// DuplicateMatch records one candidate that passed the similarity cut-off.
type DuplicateMatch struct {
	ID              uint    `json:"id"`
	Similarity      float64 `json:"similarity"`
	TimeDiffMinutes int64   `json:"time_diff_minutes"`
}

// DuplicateResult is the outcome of CalcDuplicateScore.
type DuplicateResult struct {
	Score         float64          `json:"score"`
	MatchedCount  int              `json:"matched_count"`
	Matched       []DuplicateMatch `json:"matched"`
	TopSimilarity float64          `json:"top_similarity"`
	Message       string           `json:"message"`
}

// TextSimilarity is a crude character-overlap ratio: the number of runes of a that appear
// anywhere in b, divided by the longer rune length. It ignores order and multiplicity.
func TextSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	ra := []rune(a)
	rb := []rune(b)
	common := 0
	for _, r := range ra {
		if strings.ContainsRune(b, r) {
			common++
		}
	}

	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return float64(common) / float64(longest)
}

// CalcDuplicateScore scores how likely content duplicates one of the candidates.
// Candidates are expected to be pre-filtered to the same provider and lookback window.
func CalcDuplicateScore(content string, createdAt time.Time, candidates []DuplicateCandidate) DuplicateResult {
	score := 0.0
	matched := make([]DuplicateMatch, 0)

	for _, candidate := range candidates {
		similarity := TextSimilarity(content, candidate.Content)
		if similarity < minSimilarity {
			continue
		}

		diff := createdAt.Sub(candidate.CreatedAt)
		if diff < 0 {
			diff = -diff
		}
		diffMin := int64(math.Round(float64(diff) / float64(time.Minute)))

		matched = append(matched, DuplicateMatch{
			ID:              candidate.ID,
			Similarity:      math.Round(similarity*100) / 100,
			TimeDiffMinutes: diffMin,
		})

		switch {
		case similarity >= 0.8:
			score += 50
		case similarity >= 0.6:
			score += 30
		case similarity >= 0.4:
			score += 10
		}

		switch {
		case diffMin < 120:
			score += 20
		case diffMin < 360:
			score += 10
		}
	}

	if score > 100 {
		score = 100
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Similarity > matched[j].Similarity
	})

	result := DuplicateResult{
		Score:        score,
		MatchedCount: len(matched),
		Matched:      matched,
		Message:      "no similar reports",
	}
	if len(matched) > 0 {
		result.TopSimilarity = matched[0].Similarity
		result.Message = fmt.Sprintf("found %d similar report(s) for the same provider", len(matched))
	}
	return result
}

package dto

import (
	"time"

	"github.com/noah-isme/medprice-api/internal/models"
	"github.com/noah-isme/medprice-api/internal/triage"
)

// WeightsResponse exposes the scorer coefficients.
type WeightsResponse struct {
	Similarity float64   `json:"similarity"`
	Provider   float64   `json:"provider"`
	Duplicate  float64   `json:"duplicate"`
	Priority   float64   `json:"priority"`
	Threshold  int       `json:"threshold"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
	CacheHit   bool      `json:"cache_hit"`
}

// WeightsUpdateRequest replaces the scorer coefficients.
type WeightsUpdateRequest struct {
	Similarity float64 `json:"similarity" validate:"gt=0,lte=3"`
	Provider   float64 `json:"provider" validate:"gt=0,lte=3"`
	Duplicate  float64 `json:"duplicate" validate:"gt=0,lte=3"`
	Priority   float64 `json:"priority" validate:"gt=0,lte=3"`
}

// Weights converts the request to the scorer type.
func (r WeightsUpdateRequest) Weights() triage.Weights {
	return triage.Weights{Similarity: r.Similarity, Provider: r.Provider, Duplicate: r.Duplicate, Priority: r.Priority}
}

// NewWeightsResponse converts the stored row.
func NewWeightsResponse(row models.AutoWeights) WeightsResponse {
	w := triage.Weights{
		Similarity: row.WeightSimilarity,
		Provider:   row.WeightProvider,
		Duplicate:  row.WeightDuplicate,
		Priority:   row.WeightPriority,
	}.Normalized()
	return WeightsResponse{
		Similarity: w.Similarity,
		Provider:   w.Provider,
		Duplicate:  w.Duplicate,
		Priority:   w.Priority,
		Threshold:  triage.Threshold(w.Priority),
		UpdatedAt:  row.UpdatedAt,
	}
}

// AsWeights returns the scorer weights carried by the response.
func (r WeightsResponse) AsWeights() triage.Weights {
	return triage.Weights{Similarity: r.Similarity, Provider: r.Provider, Duplicate: r.Duplicate, Priority: r.Priority}.Normalized()
}

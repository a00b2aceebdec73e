package models

import "time"

// AutoWeightsID is the fixed primary key of the singleton weights row.
const AutoWeightsID = 1

// AutoWeights stores the admin-tuned coefficients of the auto-process scorer.
type AutoWeights struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	WeightSimilarity float64   `gorm:"not null;default:1" json:"weight_similarity"`
	WeightProvider   float64   `gorm:"not null;default:1" json:"weight_provider"`
	WeightDuplicate  float64   `gorm:"not null;default:1" json:"weight_duplicate"`
	WeightPriority   float64   `gorm:"not null;default:1" json:"weight_priority"`
	UpdatedAt        time.Time `json:"updated_at"`
}

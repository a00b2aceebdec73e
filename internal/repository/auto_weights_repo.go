package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/medprice-api/internal/models"
)

// AutoWeightsRepository reads and writes the singleton scorer weights row.
type AutoWeightsRepository interface {
	Get(ctx context.Context) (models.AutoWeights, error)
	Save(ctx context.Context, weights *models.AutoWeights) error
}

type autoWeightsRepository struct {
	db *gorm.DB
}

// NewAutoWeightsRepository constructs the weights repository.
func NewAutoWeightsRepository(db *gorm.DB) AutoWeightsRepository {
	return &autoWeightsRepository{db: db}
}

// Get returns the first weights row, or gorm.ErrRecordNotFound when none exists.
func (r *autoWeightsRepository) Get(ctx context.Context) (models.AutoWeights, error) {
	var weights models.AutoWeights
	if err := r.db.WithContext(ctx).Order("id ASC").First(&weights).Error; err != nil {
		return models.AutoWeights{}, err
	}
	return weights, nil
}

// Save upserts the singleton row.
func (r *autoWeightsRepository) Save(ctx context.Context, weights *models.AutoWeights) error {
	weights.ID = models.AutoWeightsID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"weight_similarity", "weight_provider", "weight_duplicate", "weight_priority", "updated_at"}),
		}).
		Create(weights).Error
}

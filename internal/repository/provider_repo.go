package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/medprice-api/internal/models"
)

// ProviderRepository exposes the provider reads and trust writes used by report processing.
type ProviderRepository interface {
	GetByID(ctx context.Context, id uint) (models.Provider, error)
	UpdateTrust(ctx context.Context, id uint, score float64) error
}

type providerRepository struct {
	db *gorm.DB
}

// NewProviderRepository constructs the provider repository.
func NewProviderRepository(db *gorm.DB) ProviderRepository {
	return &providerRepository{db: db}
}

func (r *providerRepository) GetByID(ctx context.Context, id uint) (models.Provider, error) {
	var provider models.Provider
	if err := r.db.WithContext(ctx).First(&provider, id).Error; err != nil {
		return models.Provider{}, err
	}
	return provider, nil
}

func (r *providerRepository) UpdateTrust(ctx context.Context, id uint, score float64) error {
	return r.db.WithContext(ctx).
		Model(&models.Provider{}).
		Where("id = ?", id).
		Update("auto_trust_score", score).Error
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/medprice-api/internal/models"
)

// ProfileRepository manages reporter profiles and their trust scores.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (models.UserProfile, error)
	TrustByIDs(ctx context.Context, ids []string) (map[string]float64, error)
	UpdateTrust(ctx context.Context, id string, score float64) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository constructs the profile repository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return models.UserProfile{}, err
	}
	return profile, nil
}

func (r *profileRepository) TrustByIDs(ctx context.Context, ids []string) (map[string]float64, error) {
	result := make(map[string]float64, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var profiles []models.UserProfile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, profile := range profiles {
		result[profile.ID] = profile.TrustScore
	}
	return result, nil
}

func (r *profileRepository) UpdateTrust(ctx context.Context, id string, score float64) error {
	return r.db.WithContext(ctx).
		Model(&models.UserProfile{}).
		Where("id = ?", id).
		Update("trust_score", score).Error
}

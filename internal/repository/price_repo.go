package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/medprice-api/internal/models"
)

// PriceFilter narrows the public price search.
type PriceFilter struct {
	Region    string
	Query     string
	ServiceID *uint
	SortPrice bool
	Page      int
	PageSize  int
}

// PriceRepository serves catalog price lookups.
type PriceRepository interface {
	Search(ctx context.Context, filter PriceFilter) ([]models.Price, int64, error)
	FindService(ctx context.Context, serviceID *uint, name string) (models.Service, error)
	FindPrice(ctx context.Context, providerID uint, serviceID uint) (models.Price, error)
}

type priceRepository struct {
	db *gorm.DB
}

// NewPriceRepository constructs the price repository.
func NewPriceRepository(db *gorm.DB) PriceRepository {
	return &priceRepository{db: db}
}

func (r *priceRepository) Search(ctx context.Context, filter PriceFilter) ([]models.Price, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Price{}).
		Joins("JOIN providers ON providers.id = prices.provider_id").
		Where("providers.is_active = ?", true)

	if filter.Region != "" {
		query = query.Where("providers.region = ?", filter.Region)
	}
	if filter.ServiceID != nil {
		query = query.Where("prices.service_id = ?", *filter.ServiceID)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.
			Joins("LEFT JOIN services ON services.id = prices.service_id").
			Where("LOWER(services.name) LIKE ? OR LOWER(prices.original_name) LIKE ? OR LOWER(prices.detail_name) LIKE ?", like, like, like)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.SortPrice {
		query = query.Order("prices.price ASC").Order("prices.id DESC")
	} else {
		query = query.Order("prices.id DESC")
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var prices []models.Price
	if err := query.Preload("Provider").Preload("Service").Find(&prices).Error; err != nil {
		return nil, 0, err
	}
	return prices, total, nil
}

// FindService resolves a service by id, falling back to an exact case-insensitive name match.
func (r *priceRepository) FindService(ctx context.Context, serviceID *uint, name string) (models.Service, error) {
	var service models.Service
	if serviceID != nil {
		err := r.db.WithContext(ctx).First(&service, *serviceID).Error
		if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
			return service, err
		}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return models.Service{}, gorm.ErrRecordNotFound
	}
	if err := r.db.WithContext(ctx).Where("LOWER(name) = ?", strings.ToLower(name)).First(&service).Error; err != nil {
		return models.Service{}, err
	}
	return service, nil
}

func (r *priceRepository) FindPrice(ctx context.Context, providerID uint, serviceID uint) (models.Price, error) {
	var price models.Price
	err := r.db.WithContext(ctx).
		Where("provider_id = ? AND service_id = ?", providerID, serviceID).
		Order("updated_at DESC").
		First(&price).Error
	if err != nil {
		return models.Price{}, err
	}
	return price, nil
}

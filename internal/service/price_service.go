package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/medprice-api/internal/dto"
	"github.com/noah-isme/medprice-api/internal/repository"
)

const (
	defaultPricePageSize = 50
	maxPricePageSize     = 200
)

// PriceService serves the public price comparison list.
type PriceService interface {
	Search(ctx context.Context, req dto.PriceSearchRequest) (dto.PriceListResponse, error)
}

type priceService struct {
	repo   repository.PriceRepository
	logger zerolog.Logger
}

// NewPriceService constructs the price service.
func NewPriceService(repo repository.PriceRepository, logger zerolog.Logger) PriceService {
	return &priceService{
		repo:   repo,
		logger: logger.With().Str("component", "price_service").Logger(),
	}
}

func (s *priceService) Search(ctx context.Context, req dto.PriceSearchRequest) (dto.PriceListResponse, error) {
	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPricePageSize
	}
	if pageSize > maxPricePageSize {
		pageSize = maxPricePageSize
	}

	prices, total, err := s.repo.Search(ctx, repository.PriceFilter{
		Region:    strings.TrimSpace(req.Region),
		Query:     strings.TrimSpace(req.Query),
		ServiceID: req.ServiceID,
		SortPrice: strings.EqualFold(req.Sort, "price"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return dto.PriceListResponse{}, fmt.Errorf("search prices: %w", err)
	}

	items := make([]dto.PriceResponse, 0, len(prices))
	for _, price := range prices {
		items = append(items, dto.NewPriceResponse(price))
	}

	return dto.PriceListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

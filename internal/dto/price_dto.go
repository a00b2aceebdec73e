package dto

import (
	"time"

	"github.com/noah-isme/medprice-api/internal/models"
)

// PriceSearchRequest carries public price search filters.
type PriceSearchRequest struct {
	Region    string
	Query     string
	ServiceID *uint
	Sort      string
	Page      int
	PageSize  int
}

// PriceResponse is one row of the public price list.
type PriceResponse struct {
	ID           uint      `json:"id"`
	ProviderID   uint      `json:"provider_id"`
	ProviderName string    `json:"provider_name"`
	Region       string    `json:"region"`
	ServiceID    *uint     `json:"service_id"`
	ServiceName  string    `json:"service_name"`
	Price        *float64  `json:"price"`
	MinPrice     *float64  `json:"min_price"`
	MaxPrice     *float64  `json:"max_price"`
	Unit         string    `json:"unit"`
	Note         string    `json:"note"`
	SourceURL    string    `json:"source_url,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PriceListResponse wraps a paginated price list.
type PriceListResponse struct {
	Items      []PriceResponse `json:"items"`
	Pagination PaginationMeta  `json:"pagination"`
}

// NewPriceResponse converts a catalog price.
func NewPriceResponse(price models.Price) PriceResponse {
	response := PriceResponse{
		ID:           price.ID,
		ProviderID:   price.ProviderID,
		ProviderName: price.Provider.Name,
		Region:       price.Provider.Region,
		ServiceID:    price.ServiceID,
		ServiceName:  price.OriginalName,
		Price:        price.Price,
		MinPrice:     price.MinPrice,
		MaxPrice:     price.MaxPrice,
		Unit:         price.Unit,
		Note:         price.Note,
		SourceURL:    price.SourceURL,
		UpdatedAt:    price.UpdatedAt,
	}
	if price.Service != nil && price.Service.Name != "" {
		response.ServiceName = price.Service.Name
	}
	return response
}

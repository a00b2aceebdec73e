package models

import "time"

// Provider is a hospital or clinic publishing non-covered prices.
type Provider struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:255;not null;index" json:"name"`
	Region         string    `gorm:"size:64;index" json:"region"`
	Address        string    `gorm:"size:512" json:"address"`
	Phone          string    `gorm:"size:64" json:"phone"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	AutoTrustScore float64   `gorm:"not null;default:1" json:"auto_trust_score"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Service is a non-covered medical service item.
type Service struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null;index" json:"name"`
	Category  string    `gorm:"size:128" json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Price is the published price of a service at a provider.
type Price struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProviderID   uint      `gorm:"index;not null" json:"provider_id"`
	Provider     Provider  `gorm:"foreignKey:ProviderID" json:"provider"`
	ServiceID    *uint     `gorm:"index" json:"service_id"`
	Service      *Service  `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	Price        *float64  `json:"price"`
	MinPrice     *float64  `json:"min_price"`
	MaxPrice     *float64  `json:"max_price"`
	Unit         string    `gorm:"size:64" json:"unit"`
	Note         string    `gorm:"type:text" json:"note"`
	OriginalName string    `gorm:"size:255" json:"original_name"`
	DetailName   string    `gorm:"size:255" json:"detail_name"`
	SourceURL    string    `gorm:"size:1024" json:"source_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

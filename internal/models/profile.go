package models

import "time"

// UserProfile carries per-reporter state, notably the trust score fed back by auto-processing.
type UserProfile struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	DisplayName string    `gorm:"size:255" json:"display_name"`
	TrustScore  float64   `gorm:"not null;default:1" json:"trust_score"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

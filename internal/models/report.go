package models

import "time"

// ReportStatus enumerates the lifecycle states of a price-correction report.
type ReportStatus string

const (
	ReportStatusPending        ReportStatus = "pending"
	ReportStatusProcessing     ReportStatus = "processing"
	ReportStatusManualRequired ReportStatus = "manual_required"
	ReportStatusAutoDone       ReportStatus = "auto_done"
	ReportStatusCompleted      ReportStatus = "completed"
	ReportStatusRejected       ReportStatus = "rejected"
)

// ReportStatuses lists every status in lifecycle order.
var ReportStatuses = []ReportStatus{
	ReportStatusPending,
	ReportStatusProcessing,
	ReportStatusManualRequired,
	ReportStatusAutoDone,
	ReportStatusCompleted,
	ReportStatusRejected,
}

// Valid reports whether the status is known.
func (s ReportStatus) Valid() bool {
	for _, status := range ReportStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ReportPriority is the triage priority chosen by the reporter.
type ReportPriority string

const (
	ReportPriorityLow    ReportPriority = "low"
	ReportPriorityNormal ReportPriority = "normal"
	ReportPriorityHigh   ReportPriority = "high"
)

// Rank orders priorities for sorting, higher first.
func (p ReportPriority) Rank() int {
	switch p {
	case ReportPriorityHigh:
		return 3
	case ReportPriorityNormal:
		return 2
	case ReportPriorityLow:
		return 1
	default:
		return 0
	}
}

// Report is a user submission flagging wrong price or provider information.
type Report struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         string         `gorm:"size:64;index" json:"user_id"`
	ProviderID     *uint          `gorm:"index" json:"provider_id"`
	Provider       *Provider      `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
	ServiceID      *uint          `gorm:"index" json:"service_id"`
	ServiceName    string         `gorm:"size:255" json:"service_name"`
	Category       string         `gorm:"size:64" json:"category"`
	Content        string         `gorm:"type:text" json:"content"`
	Price          *float64       `json:"price"`
	Memo           string         `gorm:"type:text" json:"memo"`
	Status         ReportStatus   `gorm:"size:32;index;not null;default:pending" json:"status"`
	Priority       ReportPriority `gorm:"size:16;not null;default:normal" json:"priority"`
	AnomalyScore   float64        `gorm:"not null;default:0" json:"anomaly_score"`
	DuplicateScore float64        `gorm:"not null;default:0" json:"duplicate_score"`
	AutoScore      float64        `gorm:"not null;default:0" json:"auto_score"`
	Recommendation string         `gorm:"size:32" json:"recommendation"`
	IsActive       bool           `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

package dto

import "time"

// Report event types.
const (
	ReportEventCreated   = "report.created"
	ReportEventProcessed = "report.processed"
	ReportEventStatus    = "report.status_changed"
	ReportEventHighRisk  = "report.high_risk"
)

// ReportEvent is fanned out to the admin live feed and other API nodes.
type ReportEvent struct {
	Type           string    `json:"type"`
	ReportID       uint      `json:"report_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Recommendation string    `json:"recommendation,omitempty"`
	DiffSummary    string    `json:"diff_summary,omitempty"`
	CorrelationID  string    `json:"correlation_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/medprice-api/internal/models"
	"github.com/noah-isme/medprice-api/internal/triage"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginationMeta derives the page count from the total.
func NewPaginationMeta(page, pageSize int, total int64) PaginationMeta {
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PaginationMeta{Page: page, PageSize: pageSize, TotalItems: total, TotalPages: pages}
}

// ReportCreateRequest is the payload of a new price-correction report.
type ReportCreateRequest struct {
	ProviderID  uint     `json:"provider_id" validate:"required"`
	ServiceID   *uint    `json:"service_id"`
	ServiceName string   `json:"service_name" validate:"max=255"`
	Category    string   `json:"category" validate:"omitempty,oneof=price_error info_update hours_change other"`
	Content     string   `json:"content" validate:"required,min=1,max=2000"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
	Priority    string   `json:"priority" validate:"omitempty,oneof=low normal high"`
}

// ReportListRequest carries admin list filters.
type ReportListRequest struct {
	Filter   string
	Sort     string
	Page     int
	PageSize int
}

// ReportStatusUpdateRequest is an admin manual status change.
type ReportStatusUpdateRequest struct {
	Status string  `json:"status" validate:"required,oneof=pending processing manual_required auto_done completed rejected"`
	Reason string  `json:"reason" validate:"max=1000"`
	Memo   *string `json:"memo" validate:"omitempty,max=2000"`
}

// ReportManualRequest moves a report to manual review.
type ReportManualRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// ReportResponse serializes a report.
type ReportResponse struct {
	ID             uint      `json:"id"`
	UserID         string    `json:"user_id"`
	ProviderID     *uint     `json:"provider_id"`
	ProviderName   string    `json:"provider_name,omitempty"`
	ServiceID      *uint     `json:"service_id"`
	ServiceName    string    `json:"service_name"`
	Category       string    `json:"category"`
	Content        string    `json:"content"`
	Price          *float64  `json:"price"`
	Memo           string    `json:"memo"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
	AnomalyScore   float64   `json:"anomaly_score"`
	DuplicateScore float64   `json:"duplicate_score"`
	AutoScore      float64   `json:"auto_score"`
	Recommendation string    `json:"recommendation,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ReportListResponse wraps a paginated report list.
type ReportListResponse struct {
	Items      []ReportResponse `json:"items"`
	Pagination PaginationMeta   `json:"pagination"`
}

// NewReportResponse converts a report model into a DTO.
func NewReportResponse(report models.Report) ReportResponse {
	response := ReportResponse{
		ID:             report.ID,
		UserID:         report.UserID,
		ProviderID:     report.ProviderID,
		ServiceID:      report.ServiceID,
		ServiceName:    report.ServiceName,
		Category:       report.Category,
		Content:        report.Content,
		Price:          report.Price,
		Memo:           report.Memo,
		Status:         string(report.Status),
		Priority:       string(report.Priority),
		AnomalyScore:   report.AnomalyScore,
		DuplicateScore: report.DuplicateScore,
		AutoScore:      report.AutoScore,
		Recommendation: report.Recommendation,
		IsActive:       report.IsActive,
		CreatedAt:      report.CreatedAt,
		UpdatedAt:      report.UpdatedAt,
	}
	if report.Provider != nil {
		response.ProviderName = report.Provider.Name
	}
	return response
}

// NewReportResponses converts a slice of reports.
func NewReportResponses(reports []models.Report) []ReportResponse {
	items := make([]ReportResponse, 0, len(reports))
	for _, report := range reports {
		items = append(items, NewReportResponse(report))
	}
	return items
}

// ReportLogResponse serializes a report audit entry.
type ReportLogResponse struct {
	ID        uint            `json:"id"`
	ReportID  uint            `json:"report_id"`
	ActorID   *string         `json:"actor_id"`
	OldStatus string          `json:"old_status"`
	NewStatus string          `json:"new_status"`
	Auto      bool            `json:"auto"`
	Reason    string          `json:"reason"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewReportLogResponses converts log rows, keeping their order.
func NewReportLogResponses(entries []models.ReportLog) []ReportLogResponse {
	items := make([]ReportLogResponse, 0, len(entries))
	for _, entry := range entries {
		item := ReportLogResponse{
			ID:        entry.ID,
			ReportID:  entry.ReportID,
			ActorID:   entry.ActorID,
			OldStatus: string(entry.OldStatus),
			NewStatus: string(entry.NewStatus),
			Auto:      entry.Auto,
			Reason:    entry.Reason,
			CreatedAt: entry.CreatedAt,
		}
		if len(entry.Detail) > 0 {
			item.Detail = json.RawMessage(entry.Detail)
		}
		items = append(items, item)
	}
	return items
}

// AutoProcessDetail is persisted as the detail column of an automatic report log.
type AutoProcessDetail struct {
	Breakdown      triage.AutoScoreResult `json:"breakdown"`
	Duplicate      triage.DuplicateResult `json:"duplicate"`
	Recommendation triage.Recommendation  `json:"recommendation"`
	Cluster        triage.ClusterResult   `json:"cluster"`
	Before         triage.Snapshot        `json:"before"`
	After          triage.Snapshot        `json:"after"`
	DiffSummary    string                 `json:"diff_summary"`
}

// AutoProcessResponse is the success body of the auto-process endpoint.
type AutoProcessResponse struct {
	OK             bool                   `json:"ok"`
	Status         string                 `json:"status"`
	DiffSummary    string                 `json:"diffSummary"`
	Before         triage.Snapshot        `json:"before"`
	After          triage.Snapshot        `json:"after"`
	AutoScore      triage.AutoScoreResult `json:"autoScore"`
	Duplicate      triage.DuplicateResult `json:"duplicate"`
	Recommendation triage.Recommendation  `json:"recommendation"`
}

// DiffResponse is the success body of the diff endpoint.
type DiffResponse struct {
	OK      bool              `json:"ok"`
	Summary string            `json:"summary"`
	Before  triage.Snapshot   `json:"before"`
	After   triage.Snapshot   `json:"after"`
	Lines   []triage.DiffLine `json:"lines,omitempty"`
}

// AnalysisResponse is a read-only preview of an auto-process run.
type AnalysisResponse struct {
	OK               bool                   `json:"ok"`
	ReportID         uint                   `json:"report_id"`
	Status           string                 `json:"status"`
	AutoScore        triage.AutoScoreResult `json:"autoScore"`
	Duplicate        triage.DuplicateResult `json:"duplicate"`
	Recommendation   triage.Recommendation  `json:"recommendation"`
	Cluster          triage.ClusterResult   `json:"cluster"`
	AnomalyScore     float64                `json:"anomaly_score"`
	HighRisk         bool                   `json:"high_risk"`
	DuplicateWarning bool                   `json:"duplicate_warning"`
	NextStatus       string                 `json:"next_status"`
	Explanation      string                 `json:"explanation"`
}

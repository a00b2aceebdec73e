package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/medprice-api/internal/dto"
	"github.com/noah-isme/medprice-api/internal/models"
	"github.com/noah-isme/medprice-api/internal/repository"
	"github.com/noah-isme/medprice-api/internal/triage"
	"github.com/noah-isme/medprice-api/pkg/ai"
)

const (
	defaultReportPageSize = 20
	maxReportPageSize     = 100
)

// ReportService manages the report lifecycle outside the automatic pipeline.
type ReportService interface {
	Create(ctx context.Context, userID string, req dto.ReportCreateRequest) (dto.ReportResponse, error)
	Get(ctx context.Context, id uint) (dto.ReportResponse, error)
	List(ctx context.Context, req dto.ReportListRequest) (dto.ReportListResponse, error)
	ListMine(ctx context.Context, userID string, page, pageSize int) (dto.ReportListResponse, error)
	Logs(ctx context.Context, id uint) ([]dto.ReportLogResponse, error)
	UpdateStatus(ctx context.Context, id uint, actorID string, req dto.ReportStatusUpdateRequest) (dto.ReportResponse, error)
	RequireManual(ctx context.Context, id uint, actorID, reason string) (dto.ReportResponse, error)
	Complete(ctx context.Context, id uint, actorID string) (dto.ReportResponse, error)
	Deactivate(ctx context.Context, id uint) error
}

// ReportServiceDeps groups the collaborators of the report service. Classifier and Events are optional.
type ReportServiceDeps struct {
	Reports    repository.ReportRepository
	Logs       repository.ReportLogRepository
	Providers  repository.ProviderRepository
	Prices     repository.PriceRepository
	Trust      TrustService
	Events     ReportEventService
	Classifier ai.Classifier
}

type reportService struct {
	deps      ReportServiceDeps
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(deps ReportServiceDeps, validate *validator.Validate, logger zerolog.Logger) ReportService {
	return &reportService{
		deps:      deps,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "report_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/medprice-api/internal/service/report"),
		now:       time.Now,
	}
}

func (s *reportService) Create(ctx context.Context, userID string, req dto.ReportCreateRequest) (dto.ReportResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ReportResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "reports.create", trace.WithAttributes(
		attribute.Int64("provider.id", int64(req.ProviderID)),
	))
	defer span.End()

	content := s.clean(req.Content)
	if content == "" {
		return dto.ReportResponse{}, ErrEmptyContent
	}

	provider, err := s.deps.Providers.GetByID(ctx, req.ProviderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ReportResponse{}, ErrProviderNotFound
	}
	if err != nil {
		span.RecordError(err)
		return dto.ReportResponse{}, fmt.Errorf("load provider: %w", err)
	}

	serviceName := s.clean(req.ServiceName)
	report := models.Report{
		UserID:      userID,
		ProviderID:  &provider.ID,
		ServiceID:   req.ServiceID,
		ServiceName: serviceName,
		Category:    req.Category,
		Content:     content,
		Price:       req.Price,
		Status:      models.ReportStatusPending,
		Priority:    models.ReportPriority(req.Priority),
		IsActive:    true,
	}
	if report.Priority == "" {
		report.Priority = models.ReportPriorityNormal
	}
	if report.Category == "" {
		report.Category = s.classify(ctx, content, serviceName)
	}

	anomaly, err := s.anomalyInput(ctx, provider, &report)
	if err != nil {
		span.RecordError(err)
		return dto.ReportResponse{}, err
	}
	report.AnomalyScore = triage.CalcAnomalyScore(anomaly)

	if err := s.deps.Reports.Create(ctx, &report); err != nil {
		span.RecordError(err)
		return dto.ReportResponse{}, fmt.Errorf("create report: %w", err)
	}
	report.Provider = &provider

	s.publish(ctx, dto.ReportEvent{
		Type:     dto.ReportEventCreated,
		ReportID: report.ID,
		Status:   string(report.Status),
	})
	s.logger.Info().
		Uint("report_id", report.ID).
		Str("category", report.Category).
		Float64("anomaly_score", report.AnomalyScore).
		Msg("report created")

	return dto.NewReportResponse(report), nil
}

// anomalyInput resolves the catalog entry the report refers to and links the service id.
func (s *reportService) anomalyInput(ctx context.Context, provider models.Provider, report *models.Report) (triage.AnomalyInput, error) {
	input := triage.AnomalyInput{
		ReportedPrice:   report.Price,
		MatchedProvider: provider.IsActive,
	}
	if s.deps.Prices == nil {
		return input, nil
	}

	svc, err := s.deps.Prices.FindService(ctx, report.ServiceID, report.ServiceName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		report.ServiceID = nil
		return input, nil
	}
	if err != nil {
		return input, fmt.Errorf("resolve service: %w", err)
	}
	input.MatchedService = true
	report.ServiceID = &svc.ID
	if report.ServiceName == "" {
		report.ServiceName = svc.Name
	}

	price, err := s.deps.Prices.FindPrice(ctx, provider.ID, svc.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return input, nil
	}
	if err != nil {
		return input, fmt.Errorf("load catalog price: %w", err)
	}
	input.CatalogPrice = price.Price
	return input, nil
}

// classify prefers the AI classifier and falls back to keywords on any failure.
func (s *reportService) classify(ctx context.Context, content, serviceName string) string {
	if s.deps.Classifier != nil {
		result, err := s.deps.Classifier.Classify(ctx, ai.ClassifyInput{
			Content:     content,
			ServiceName: serviceName,
			Categories:  triage.Categories,
		})
		if err == nil && triage.IsCategory(result.Category) {
			return result.Category
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("ai classification failed, using keyword classifier")
		}
	}
	return triage.ClassifyCategory(content)
}

func (s *reportService) Get(ctx context.Context, id uint) (dto.ReportResponse, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return dto.ReportResponse{}, err
	}
	return dto.NewReportResponse(report), nil
}

func (s *reportService) List(ctx context.Context, req dto.ReportListRequest) (dto.ReportListResponse, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)
	filter := repository.ReportFilter{
		Statuses:     statusesForFilter(req.Filter),
		ActiveOnly:   true,
		SortPriority: strings.EqualFold(req.Sort, "priority"),
		Page:         page,
		PageSize:     pageSize,
	}
	return s.list(ctx, filter)
}

func (s *reportService) ListMine(ctx context.Context, userID string, page, pageSize int) (dto.ReportListResponse, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.list(ctx, repository.ReportFilter{
		UserID:     userID,
		ActiveOnly: true,
		Page:       page,
		PageSize:   pageSize,
	})
}

func (s *reportService) list(ctx context.Context, filter repository.ReportFilter) (dto.ReportListResponse, error) {
	reports, total, err := s.deps.Reports.List(ctx, filter)
	if err != nil {
		return dto.ReportListResponse{}, fmt.Errorf("list reports: %w", err)
	}
	return dto.ReportListResponse{
		Items:      dto.NewReportResponses(reports),
		Pagination: dto.NewPaginationMeta(filter.Page, filter.PageSize, total),
	}, nil
}

func (s *reportService) Logs(ctx context.Context, id uint) ([]dto.ReportLogResponse, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.deps.Logs.ListByReport(ctx, id, 0)
	if err != nil {
		return nil, fmt.Errorf("list report logs: %w", err)
	}
	return dto.NewReportLogResponses(entries), nil
}

func (s *reportService) UpdateStatus(ctx context.Context, id uint, actorID string, req dto.ReportStatusUpdateRequest) (dto.ReportResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ReportResponse{}, err
	}

	var memo *string
	if req.Memo != nil {
		cleaned := s.clean(*req.Memo)
		memo = &cleaned
	}
	return s.transition(ctx, id, actorID, models.ReportStatus(req.Status), s.clean(req.Reason), memo)
}

func (s *reportService) RequireManual(ctx context.Context, id uint, actorID, reason string) (dto.ReportResponse, error) {
	reason = s.clean(reason)
	if reason == "" {
		return dto.ReportResponse{}, ErrReasonRequired
	}
	return s.transition(ctx, id, actorID, models.ReportStatusManualRequired, reason, nil)
}

func (s *reportService) Complete(ctx context.Context, id uint, actorID string) (dto.ReportResponse, error) {
	return s.transition(ctx, id, actorID, models.ReportStatusCompleted, "completed by admin", nil)
}

func (s *reportService) Deactivate(ctx context.Context, id uint) error {
	err := s.deps.Reports.Deactivate(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrReportNotFound
	}
	if err != nil {
		return fmt.Errorf("deactivate report: %w", err)
	}
	s.logger.Info().Uint("report_id", id).Msg("report deactivated")
	return nil
}

// transition applies a manual status change: validate, compare-and-swap, log, feedback.
func (s *reportService) transition(ctx context.Context, id uint, actorID string, to models.ReportStatus, reason string, memo *string) (dto.ReportResponse, error) {
	ctx, span := s.tracer.Start(ctx, "reports.transition", trace.WithAttributes(
		attribute.Int64("report.id", int64(id)),
		attribute.String("report.to", string(to)),
	))
	defer span.End()

	report, err := s.load(ctx, id)
	if err != nil {
		return dto.ReportResponse{}, err
	}
	if err := triage.ValidateTransition(report.Status, to); err != nil {
		return dto.ReportResponse{}, err
	}

	updated, err := s.deps.Reports.CompareAndSwap(ctx, report.ID, report.Status, repository.ReportStateUpdate{
		Status:    to,
		Memo:      memo,
		UpdatedAt: s.now().UTC(),
	})
	if errors.Is(err, repository.ErrStatusConflict) {
		return dto.ReportResponse{}, ErrConcurrentUpdate
	}
	if err != nil {
		span.RecordError(err)
		return dto.ReportResponse{}, fmt.Errorf("update report: %w", err)
	}

	before := snapshotOf(report)
	after := snapshotOf(updated)
	detail, err := json.Marshal(map[string]interface{}{
		"before":       before,
		"after":        after,
		"diff_summary": triage.DiffSummary(before, after),
	})
	if err != nil {
		return dto.ReportResponse{}, fmt.Errorf("encode log detail: %w", err)
	}

	entry := models.ReportLog{
		ReportID:  report.ID,
		ActorID:   optionalActor(actorID),
		OldStatus: report.Status,
		NewStatus: updated.Status,
		Auto:      false,
		Reason:    reason,
		Detail:    datatypes.JSON(detail),
		CreatedAt: s.now().UTC(),
	}
	if err := s.deps.Logs.Create(ctx, &entry); err != nil {
		span.RecordError(err)
		return dto.ReportResponse{}, fmt.Errorf("write report log: %w", err)
	}

	if s.deps.Trust != nil {
		feedback, err := s.deps.Trust.ApplyFeedback(ctx, updated)
		if err != nil {
			span.RecordError(err)
			return dto.ReportResponse{}, fmt.Errorf("apply trust feedback: %w", err)
		}
		if feedback != nil && feedback.Overridden {
			s.logger.Info().Uint("report_id", report.ID).Msg("automatic decision overridden by admin")
		}
	}

	s.publish(ctx, dto.ReportEvent{
		Type:           dto.ReportEventStatus,
		ReportID:       report.ID,
		Status:         string(updated.Status),
		PreviousStatus: string(report.Status),
	})

	return dto.NewReportResponse(updated), nil
}

func (s *reportService) load(ctx context.Context, id uint) (models.Report, error) {
	report, err := s.deps.Reports.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Report{}, ErrReportNotFound
	}
	if err != nil {
		return models.Report{}, fmt.Errorf("load report: %w", err)
	}
	return report, nil
}

func (s *reportService) publish(ctx context.Context, event dto.ReportEvent) {
	if s.deps.Events == nil {
		return
	}
	if err := s.deps.Events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event", event.Type).Msg("failed to publish report event")
	}
}

func (s *reportService) clean(input string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(input))
}

func statusesForFilter(filter string) []models.ReportStatus {
	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "auto":
		return []models.ReportStatus{models.ReportStatusAutoDone}
	case "manual":
		return []models.ReportStatus{models.ReportStatusManualRequired}
	case "completed":
		return []models.ReportStatus{models.ReportStatusCompleted}
	case "pending":
		return []models.ReportStatus{models.ReportStatusPending, models.ReportStatusProcessing}
	default:
		return nil
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultReportPageSize
	}
	if pageSize > maxReportPageSize {
		pageSize = maxReportPageSize
	}
	return page, pageSize
}

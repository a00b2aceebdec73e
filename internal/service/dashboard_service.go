package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/medprice-api/internal/dto"
	"github.com/noah-isme/medprice-api/internal/models"
	"github.com/noah-isme/medprice-api/internal/repository"
)

const dashboardCacheKey = "dashboard:reports"

// DashboardService aggregates report statistics for the admin dashboard.
type DashboardService interface {
	Summary(ctx context.Context) (dto.DashboardResponse, error)
}

type dashboardService struct {
	repo     repository.ReportRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(repo repository.ReportRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		repo:     repo,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "dashboard_service").Logger(),
		now:      time.Now,
	}
}

func (s *dashboardService) Summary(ctx context.Context) (dto.DashboardResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/medprice-api/internal/service/dashboard")
	ctx, span := tracer.Start(ctx, "dashboard.aggregate")
	span.SetAttributes(attribute.String("dashboard.cache_key", dashboardCacheKey))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, dashboardCacheKey).Result()
		if err == nil {
			var response dto.DashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("dashboard.cache_hit", true))
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
			span.RecordError(err)
		}
	}

	statusCounts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_by_status_failed")
		return dto.DashboardResponse{}, fmt.Errorf("count reports by status: %w", err)
	}

	priorityCounts, err := s.repo.CountByPriority(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_by_priority_failed")
		return dto.DashboardResponse{}, fmt.Errorf("count reports by priority: %w", err)
	}

	autoResolved, kept, err := s.repo.CountAutoOutcomes(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_auto_outcomes_failed")
		return dto.DashboardResponse{}, fmt.Errorf("count auto outcomes: %w", err)
	}

	now := s.now()
	completed, err := s.repo.CountUpdatedSince(ctx, []models.ReportStatus{models.ReportStatusCompleted}, now.AddDate(0, 0, -7))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_completed_failed")
		return dto.DashboardResponse{}, fmt.Errorf("count completed reports: %w", err)
	}

	response := dto.DashboardResponse{
		StatusCounts:   make(map[string]int64, len(models.ReportStatuses)),
		PriorityCounts: make(map[string]int64, 3),
		Auto: dto.AutoSummary{
			AutoDone:       statusCounts[models.ReportStatusAutoDone],
			ManualRequired: statusCounts[models.ReportStatusManualRequired],
			Pending:        statusCounts[models.ReportStatusPending] + statusCounts[models.ReportStatusProcessing],
		},
		CompletedLastWeek: completed,
		GeneratedAt:       now.UTC(),
	}
	for _, status := range models.ReportStatuses {
		response.StatusCounts[string(status)] = statusCounts[status]
	}
	for _, priority := range []models.ReportPriority{models.ReportPriorityLow, models.ReportPriorityNormal, models.ReportPriorityHigh} {
		response.PriorityCounts[string(priority)] = priorityCounts[priority]
	}
	if autoResolved > 0 {
		response.AutoSuccessRate = math.Round(float64(kept)/float64(autoResolved)*10000) / 10000
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, dashboardCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
				span.RecordError(err)
			}
		}
	}

	return response, nil
}

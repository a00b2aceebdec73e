package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/medprice-api/internal/models"
	"github.com/noah-isme/medprice-api/internal/repository"
	"github.com/noah-isme/medprice-api/internal/triage"
)

// TrustService closes the feedback loop after every report transition.
type TrustService interface {
	// ApplyFeedback returns nil when the report history carries no signal yet.
	ApplyFeedback(ctx context.Context, report models.Report) (*triage.Feedback, error)
}

type trustService struct {
	logs      repository.ReportLogRepository
	profiles  repository.ProfileRepository
	providers repository.ProviderRepository
	weights   WeightsService
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewTrustService constructs the trust feedback service.
func NewTrustService(logs repository.ReportLogRepository, profiles repository.ProfileRepository, providers repository.ProviderRepository, weights WeightsService, logger zerolog.Logger) TrustService {
	return &trustService{
		logs:      logs,
		profiles:  profiles,
		providers: providers,
		weights:   weights,
		logger:    logger.With().Str("component", "trust_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/medprice-api/internal/service/trust"),
	}
}

func (s *trustService) ApplyFeedback(ctx context.Context, report models.Report) (*triage.Feedback, error) {
	ctx, span := s.tracer.Start(ctx, "trust.apply_feedback", trace.WithAttributes(
		attribute.Int64("report.id", int64(report.ID)),
	))
	defer span.End()

	entries, err := s.logs.ListByReport(ctx, report.ID, 2)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("load report logs: %w", err)
	}

	outcomes := make([]triage.LogOutcome, 0, len(entries))
	for _, entry := range entries {
		outcomes = append(outcomes, triage.LogOutcome{Auto: entry.Auto, NewStatus: entry.NewStatus})
	}

	feedback, ok := triage.EvaluateOverride(outcomes)
	if !ok {
		return nil, nil
	}
	span.SetAttributes(
		attribute.Bool("feedback.success", feedback.Success),
		attribute.Bool("feedback.overridden", feedback.Overridden),
	)

	if err := s.adjustUser(ctx, report.UserID, feedback.Success); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if report.ProviderID != nil {
		if err := s.adjustProvider(ctx, *report.ProviderID, feedback.Success); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}
	if _, err := s.weights.Adjust(ctx, feedback.Success); err != nil {
		span.RecordError(err)
		return nil, err
	}

	return &feedback, nil
}

func (s *trustService) adjustUser(ctx context.Context, userID string, success bool) error {
	if userID == "" {
		return nil
	}
	profile, err := s.profiles.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Debug().Str("user_id", userID).Msg("no profile for reporter, skipping trust update")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	next := triage.AdjustUserTrust(profile.TrustScore, success)
	if err := s.profiles.UpdateTrust(ctx, userID, next); err != nil {
		return fmt.Errorf("update user trust: %w", err)
	}
	return nil
}

func (s *trustService) adjustProvider(ctx context.Context, providerID uint, success bool) error {
	provider, err := s.providers.GetByID(ctx, providerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load provider: %w", err)
	}

	next := triage.AdjustProviderTrust(provider.AutoTrustScore, success)
	if err := s.providers.UpdateTrust(ctx, providerID, next); err != nil {
		return fmt.Errorf("update provider trust: %w", err)
	}
	return nil
}

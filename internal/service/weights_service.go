package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/medprice-api/internal/dto"
	"github.com/noah-isme/medprice-api/internal/models"
	"github.com/noah-isme/medprice-api/internal/repository"
	"github.com/noah-isme/medprice-api/internal/triage"
)

const weightsCacheKey = "weights:current"

// WeightsService owns the scorer coefficients.
type WeightsService interface {
	Get(ctx context.Context) (dto.WeightsResponse, error)
	Current(ctx context.Context) (triage.Weights, error)
	Update(ctx context.Context, req dto.WeightsUpdateRequest) (dto.WeightsResponse, error)
	Adjust(ctx context.Context, success bool) (triage.Weights, error)
}

type weightsService struct {
	repo      repository.AutoWeightsRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewWeightsService constructs the weights service. cache may be nil.
func NewWeightsService(repo repository.AutoWeightsRepository, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) WeightsService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &weightsService{
		repo:      repo,
		cache:     cache,
		cacheTTL:  ttl,
		validator: validate,
		logger:    logger.With().Str("component", "weights_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/medprice-api/internal/service/weights"),
		now:       time.Now,
	}
}

func (s *weightsService) Get(ctx context.Context) (dto.WeightsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "weights.get")
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, weightsCacheKey).Result()
		if err == nil {
			var response dto.WeightsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("weights.cache_hit", true))
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read weights cache")
			span.RecordError(err)
		}
	}

	row, err := s.repo.Get(ctx)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.AutoWeights{ID: models.AutoWeightsID}
	case err != nil:
		span.RecordError(err)
		return dto.WeightsResponse{}, fmt.Errorf("load weights: %w", err)
	}

	response := dto.NewWeightsResponse(row)
	s.store(ctx, response)
	return response, nil
}

// Current returns the coefficients with unset values replaced by 1.
func (s *weightsService) Current(ctx context.Context) (triage.Weights, error) {
	response, err := s.Get(ctx)
	if err != nil {
		return triage.Weights{}, err
	}
	return response.AsWeights(), nil
}

func (s *weightsService) Update(ctx context.Context, req dto.WeightsUpdateRequest) (dto.WeightsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.WeightsResponse{}, fmt.Errorf("%w: %v", ErrInvalidWeights, err)
	}
	return s.save(ctx, req.Weights())
}

// Adjust applies one feedback signal and persists the result.
func (s *weightsService) Adjust(ctx context.Context, success bool) (triage.Weights, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return triage.Weights{}, err
	}

	next := triage.AdjustWeights(current, success)
	if _, err := s.save(ctx, next); err != nil {
		return triage.Weights{}, err
	}
	s.logger.Debug().Bool("success", success).Interface("weights", next).Msg("weights adjusted")
	return next, nil
}

func (s *weightsService) save(ctx context.Context, w triage.Weights) (dto.WeightsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "weights.save")
	defer span.End()

	row := models.AutoWeights{
		WeightSimilarity: w.Similarity,
		WeightProvider:   w.Provider,
		WeightDuplicate:  w.Duplicate,
		WeightPriority:   w.Priority,
		UpdatedAt:        s.now().UTC(),
	}
	if err := s.repo.Save(ctx, &row); err != nil {
		span.RecordError(err)
		return dto.WeightsResponse{}, fmt.Errorf("save weights: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, weightsCacheKey).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate weights cache")
		}
	}
	return dto.NewWeightsResponse(row), nil
}

func (s *weightsService) store(ctx context.Context, response dto.WeightsResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, weightsCacheKey, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store weights cache")
	}
}

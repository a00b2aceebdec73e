package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/medprice-api/internal/dto"
	"github.com/noah-isme/medprice-api/internal/models"
	"github.com/noah-isme/medprice-api/internal/observability"
	"github.com/noah-isme/medprice-api/internal/repository"
	"github.com/noah-isme/medprice-api/internal/triage"
)

// AutoProcessService runs the automatic triage pipeline on a report.
type AutoProcessService interface {
	Process(ctx context.Context, reportID uint, actorID string) (dto.AutoProcessResponse, error)
	Diff(ctx context.Context, reportID uint) (dto.DiffResponse, error)
	Preview(ctx context.Context, reportID uint) (dto.AnalysisResponse, error)
}

// AutoProcessConfig tunes the pipeline.
type AutoProcessConfig struct {
	DuplicateWindow time.Duration
	LockTTL         time.Duration
	Risk            triage.RiskPolicy
}

// AutoProcessDeps groups the collaborators of the pipeline. Events and Lock are optional.
type AutoProcessDeps struct {
	Reports  repository.ReportRepository
	Logs     repository.ReportLogRepository
	Profiles repository.ProfileRepository
	Prices   repository.PriceRepository
	Weights  WeightsService
	Trust    TrustService
	Notifier HighRiskNotifier
	Events   ReportEventService
	Lock     *redis.Client
}

type autoProcessService struct {
	deps   AutoProcessDeps
	cfg    AutoProcessConfig
	logger zerolog.Logger
	tracer trace.Tracer
	nodeID string
	now    func() time.Time
}

type evaluation struct {
	auto           triage.AutoScoreResult
	duplicate      triage.DuplicateResult
	recommendation triage.Recommendation
	cluster        triage.ClusterResult
	next           models.ReportStatus
	explanation    string
}

// NewAutoProcessService constructs the pipeline.
func NewAutoProcessService(deps AutoProcessDeps, cfg AutoProcessConfig, logger zerolog.Logger) AutoProcessService {
	if cfg.DuplicateWindow <= 0 {
		cfg.DuplicateWindow = triage.DuplicateWindow
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if deps.Notifier == nil {
		deps.Notifier = NewLogHighRiskNotifier(logger)
	}

	return &autoProcessService{
		deps:   deps,
		cfg:    cfg,
		logger: logger.With().Str("component", "auto_process_service").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/medprice-api/internal/service/auto_process"),
		nodeID: uuid.NewString(),
		now:    time.Now,
	}
}

func (s *autoProcessService) Process(ctx context.Context, reportID uint, actorID string) (dto.AutoProcessResponse, error) {
	ctx, span := s.tracer.Start(ctx, "auto_process.run", trace.WithAttributes(
		attribute.Int64("report.id", int64(reportID)),
	))
	defer span.End()

	release, err := s.acquire(ctx, reportID)
	if err != nil {
		return dto.AutoProcessResponse{}, s.fail(span, err)
	}
	defer release()

	report, err := s.load(ctx, reportID)
	if err != nil {
		return dto.AutoProcessResponse{}, s.fail(span, err)
	}
	before := snapshotOf(report)

	if s.cfg.Risk.IsHighRisk(report.AnomalyScore) {
		s.blockHighRisk(ctx, report)
		span.SetAttributes(attribute.Bool("report.high_risk", true))
		return dto.AutoProcessResponse{}, ErrHighRiskBlocked
	}

	eval, err := s.evaluate(ctx, report)
	if err != nil {
		return dto.AutoProcessResponse{}, s.fail(span, err)
	}

	if eval.next != report.Status {
		if err := triage.ValidateTransition(report.Status, eval.next); err != nil {
			return dto.AutoProcessResponse{}, s.fail(span, err)
		}
	}

	level := string(eval.recommendation.Level)
	updated, err := s.deps.Reports.CompareAndSwap(ctx, report.ID, report.Status, repository.ReportStateUpdate{
		Status:         eval.next,
		AutoScore:      &eval.auto.Score,
		DuplicateScore: &eval.duplicate.Score,
		Recommendation: &level,
		UpdatedAt:      s.now().UTC(),
	})
	if errors.Is(err, repository.ErrStatusConflict) {
		return dto.AutoProcessResponse{}, s.fail(span, ErrConcurrentUpdate)
	}
	if err != nil {
		return dto.AutoProcessResponse{}, s.fail(span, fmt.Errorf("update report: %w", err))
	}

	after := snapshotOf(updated)
	summary := triage.DiffSummary(before, after)

	detail, err := json.Marshal(dto.AutoProcessDetail{
		Breakdown:      eval.auto,
		Duplicate:      eval.duplicate,
		Recommendation: eval.recommendation,
		Cluster:        eval.cluster,
		Before:         before,
		After:          after,
		DiffSummary:    summary,
	})
	if err != nil {
		return dto.AutoProcessResponse{}, s.fail(span, fmt.Errorf("encode log detail: %w", err))
	}

	entry := models.ReportLog{
		ReportID:  report.ID,
		ActorID:   optionalActor(actorID),
		OldStatus: report.Status,
		NewStatus: updated.Status,
		Auto:      true,
		Reason:    eval.explanation,
		Detail:    datatypes.JSON(detail),
		CreatedAt: s.now().UTC(),
	}
	if err := s.deps.Logs.Create(ctx, &entry); err != nil {
		return dto.AutoProcessResponse{}, s.fail(span, fmt.Errorf("write report log: %w", err))
	}

	if s.deps.Trust != nil {
		if _, err := s.deps.Trust.ApplyFeedback(ctx, updated); err != nil {
			return dto.AutoProcessResponse{}, s.fail(span, fmt.Errorf("apply trust feedback: %w", err))
		}
	}

	observability.AutoDecisions().WithLabelValues(level, string(updated.Status)).Inc()
	observability.AutoScores().WithLabelValues("auto").Observe(eval.auto.Score)
	observability.AutoScores().WithLabelValues("duplicate").Observe(eval.duplicate.Score)

	s.publish(ctx, dto.ReportEvent{
		Type:           dto.ReportEventProcessed,
		ReportID:       report.ID,
		Status:         string(updated.Status),
		PreviousStatus: string(report.Status),
		Recommendation: level,
		DiffSummary:    summary,
	})

	span.SetAttributes(
		attribute.String("report.status", string(updated.Status)),
		attribute.String("report.recommendation", level),
	)
	s.logger.Info().
		Uint("report_id", report.ID).
		Str("from", string(report.Status)).
		Str("to", string(updated.Status)).
		Str("recommendation", level).
		Float64("auto_score", eval.auto.Score).
		Float64("duplicate_score", eval.duplicate.Score).
		Msg("report auto-processed")

	return dto.AutoProcessResponse{
		OK:             true,
		Status:         string(updated.Status),
		DiffSummary:    summary,
		Before:         before,
		After:          after,
		AutoScore:      eval.auto,
		Duplicate:      eval.duplicate,
		Recommendation: eval.recommendation,
	}, nil
}

func (s *autoProcessService) Diff(ctx context.Context, reportID uint) (dto.DiffResponse, error) {
	ctx, span := s.tracer.Start(ctx, "auto_process.diff", trace.WithAttributes(
		attribute.Int64("report.id", int64(reportID)),
	))
	defer span.End()

	entry, err := s.deps.Logs.LatestAutoWithDetail(ctx, reportID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.DiffResponse{}, ErrNoDiffFound
	}
	if err != nil {
		return dto.DiffResponse{}, s.fail(span, fmt.Errorf("query report log: %w", err))
	}

	var detail dto.AutoProcessDetail
	if err := json.Unmarshal(entry.Detail, &detail); err != nil {
		return dto.DiffResponse{}, s.fail(span, fmt.Errorf("decode report log detail: %w", err))
	}

	summary := detail.DiffSummary
	if summary == "" {
		summary = triage.DiffSummary(detail.Before, detail.After)
	}

	return dto.DiffResponse{
		OK:      true,
		Summary: summary,
		Before:  detail.Before,
		After:   detail.After,
		Lines:   triage.LineDiff(detail.Before.Memo, detail.After.Memo),
	}, nil
}

// Preview computes the same scores as Process without writing anything.
func (s *autoProcessService) Preview(ctx context.Context, reportID uint) (dto.AnalysisResponse, error) {
	ctx, span := s.tracer.Start(ctx, "auto_process.preview", trace.WithAttributes(
		attribute.Int64("report.id", int64(reportID)),
	))
	defer span.End()

	report, err := s.load(ctx, reportID)
	if err != nil {
		return dto.AnalysisResponse{}, s.fail(span, err)
	}

	eval, err := s.evaluate(ctx, report)
	if err != nil {
		return dto.AnalysisResponse{}, s.fail(span, err)
	}

	highRisk := s.cfg.Risk.IsHighRisk(report.AnomalyScore)
	next := eval.next
	if highRisk {
		next = report.Status
	}

	return dto.AnalysisResponse{
		OK:               true,
		ReportID:         report.ID,
		Status:           string(report.Status),
		AutoScore:        eval.auto,
		Duplicate:        eval.duplicate,
		Recommendation:   eval.recommendation,
		Cluster:          eval.cluster,
		AnomalyScore:     report.AnomalyScore,
		HighRisk:         highRisk,
		DuplicateWarning: s.cfg.Risk.IsDuplicateWarning(eval.duplicate.Score),
		NextStatus:       string(next),
		Explanation:      eval.explanation,
	}, nil
}

func (s *autoProcessService) load(ctx context.Context, reportID uint) (models.Report, error) {
	report, err := s.deps.Reports.GetByID(ctx, reportID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Report{}, ErrReportNotFound
	}
	if err != nil {
		return models.Report{}, fmt.Errorf("load report: %w", err)
	}
	return report, nil
}

func (s *autoProcessService) evaluate(ctx context.Context, report models.Report) (evaluation, error) {
	weights, err := s.deps.Weights.Current(ctx)
	if err != nil {
		return evaluation{}, err
	}

	auto := triage.CalcAutoProcessScore(triage.ScoreInput{
		Category:   report.Category,
		Content:    report.Content,
		ProviderID: report.ProviderID,
		Price:      report.Price,
	}, weights)

	var (
		neighbours []models.Report
		duplicate  = triage.CalcDuplicateScore(report.Content, report.CreatedAt, nil)
	)
	if report.ProviderID != nil {
		since := s.now().UTC().Add(-s.cfg.DuplicateWindow)
		neighbours, err = s.deps.Reports.ListRecentByProvider(ctx, *report.ProviderID, report.ID, since)
		if err != nil {
			return evaluation{}, fmt.Errorf("load duplicate candidates: %w", err)
		}
		candidates := make([]triage.DuplicateCandidate, 0, len(neighbours))
		for _, other := range neighbours {
			candidates = append(candidates, triage.DuplicateCandidate{ID: other.ID, Content: other.Content, CreatedAt: other.CreatedAt})
		}
		duplicate = triage.CalcDuplicateScore(report.Content, report.CreatedAt, candidates)
	}

	recommendation := triage.EvaluateAutoRecommendation(auto.Score, duplicate.Score)
	cluster, err := s.detectCluster(ctx, report, neighbours)
	if err != nil {
		return evaluation{}, err
	}

	next := report.Status
	if triage.CanAutoProcess(report.Status) {
		next = recommendation.NextStatus()
		if cluster.Suspicious {
			next = models.ReportStatusManualRequired
		}
	}

	return evaluation{
		auto:           auto,
		duplicate:      duplicate,
		recommendation: recommendation,
		cluster:        cluster,
		next:           next,
		explanation: triage.GenerateExplanation(triage.ExplanationInput{
			AutoScore:      auto.Score,
			DuplicateScore: duplicate.Score,
			ContentLength:  utf8.RuneCountInString(report.Content),
			Priority:       report.Priority,
		}),
	}, nil
}

// detectCluster compares the reported prices of the report and its neighbours
// against the catalog price of the same service.
func (s *autoProcessService) detectCluster(ctx context.Context, report models.Report, neighbours []models.Report) (triage.ClusterResult, error) {
	if s.deps.Prices == nil || report.ProviderID == nil || report.ServiceID == nil {
		return triage.ClusterResult{}, nil
	}

	catalog, err := s.deps.Prices.FindPrice(ctx, *report.ProviderID, *report.ServiceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return triage.ClusterResult{}, nil
	}
	if err != nil {
		return triage.ClusterResult{}, fmt.Errorf("load catalog price: %w", err)
	}
	if catalog.Price == nil {
		return triage.ClusterResult{}, nil
	}

	group := make([]models.Report, 0, len(neighbours)+1)
	for _, r := range append([]models.Report{report}, neighbours...) {
		if r.Price != nil && r.ServiceID != nil && *r.ServiceID == *report.ServiceID {
			group = append(group, r)
		}
	}

	userIDs := make([]string, 0, len(group))
	for _, r := range group {
		userIDs = append(userIDs, r.UserID)
	}
	trust := map[string]float64{}
	if s.deps.Profiles != nil {
		trust, err = s.deps.Profiles.TrustByIDs(ctx, userIDs)
		if err != nil {
			return triage.ClusterResult{}, fmt.Errorf("load reporter trust: %w", err)
		}
	}

	samples := make([]triage.ClusterSample, 0, len(group))
	for _, r := range group {
		userTrust, ok := trust[r.UserID]
		if !ok {
			userTrust = triage.DefaultTrust
		}
		samples = append(samples, triage.ClusterSample{PriceDelta: *r.Price - *catalog.Price, UserTrust: userTrust})
	}
	return triage.DetectCluster(samples), nil
}

func (s *autoProcessService) blockHighRisk(ctx context.Context, report models.Report) {
	observability.HighRiskBlocked().Inc()
	if err := s.deps.Notifier.NotifyHighRisk(ctx, report); err != nil {
		s.logger.Error().Err(err).Uint("report_id", report.ID).Msg("failed to notify admins about high risk report")
	}
	s.publish(ctx, dto.ReportEvent{
		Type:     dto.ReportEventHighRisk,
		ReportID: report.ID,
		Status:   string(report.Status),
	})
}

// acquire takes the per-report lock when Redis is configured. Lock errors other
// than contention fall back to the status compare-and-swap alone.
func (s *autoProcessService) acquire(ctx context.Context, reportID uint) (func(), error) {
	if s.deps.Lock == nil {
		return func() {}, nil
	}

	key := "report:process:" + strconv.FormatUint(uint64(reportID), 10)
	ok, err := s.deps.Lock.SetNX(ctx, key, s.nodeID, s.cfg.LockTTL).Result()
	if err != nil {
		s.logger.Warn().Err(err).Uint("report_id", reportID).Msg("failed to take report lock")
		return func() {}, nil
	}
	if !ok {
		return nil, ErrConcurrentUpdate
	}

	return func() {
		err := releaseLockScript.Run(context.WithoutCancel(ctx), s.deps.Lock, []string{key}, s.nodeID).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Uint("report_id", reportID).Msg("failed to release report lock")
		}
	}, nil
}

// releaseLockScript deletes the lock only while this node still owns it.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *autoProcessService) publish(ctx context.Context, event dto.ReportEvent) {
	if s.deps.Events == nil {
		return
	}
	if err := s.deps.Events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event", event.Type).Msg("failed to publish report event")
	}
}

func (s *autoProcessService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func snapshotOf(report models.Report) triage.Snapshot {
	return triage.Snapshot{Status: string(report.Status), Memo: report.Memo}
}

func optionalActor(actorID string) *string {
	if actorID == "" {
		return nil
	}
	return &actorID
}

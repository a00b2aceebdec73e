package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/medprice-api/internal/database"
	"github.com/noah-isme/medprice-api/internal/dto"
	"github.com/noah-isme/medprice-api/internal/models"
	"github.com/noah-isme/medprice-api/internal/repository"
	"github.com/noah-isme/medprice-api/internal/triage"
)

var fixtureNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type reportFixture struct {
	db        *gorm.DB
	reports   repository.ReportRepository
	logs      repository.ReportLogRepository
	profiles  repository.ProfileRepository
	providers repository.ProviderRepository
	prices    repository.PriceRepository
	weights   WeightsService
	trust     TrustService
	notifier  *countingNotifier
	events    *recordingEvents
	provider  models.Provider
	service   models.Service
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	provider := models.Provider{Name: "Seoul Skin Clinic", Region: "seoul", IsActive: true, AutoTrustScore: 1}
	require.NoError(t, db.Create(&provider).Error)
	svc := models.Service{Name: "Laser Toning", Category: "dermatology"}
	require.NoError(t, db.Create(&svc).Error)
	catalogPrice := 100000.0
	require.NoError(t, db.Create(&models.Price{
		ProviderID:   provider.ID,
		ServiceID:    &svc.ID,
		Price:        &catalogPrice,
		OriginalName: "Laser Toning 1 session",
	}).Error)

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())

	f := &reportFixture{
		db:        db,
		reports:   repository.NewReportRepository(db),
		logs:      repository.NewReportLogRepository(db),
		profiles:  repository.NewProfileRepository(db),
		providers: repository.NewProviderRepository(db),
		prices:    repository.NewPriceRepository(db),
		notifier:  &countingNotifier{},
		events:    &recordingEvents{},
		provider:  provider,
		service:   svc,
	}
	f.weights = NewWeightsService(repository.NewAutoWeightsRepository(db), nil, time.Minute, validate, logger)
	f.trust = NewTrustService(f.logs, f.profiles, f.providers, f.weights, logger)
	return f
}

func (f *reportFixture) autoService(t *testing.T) *autoProcessService {
	t.Helper()
	svc := NewAutoProcessService(AutoProcessDeps{
		Reports:  f.reports,
		Logs:     f.logs,
		Profiles: f.profiles,
		Prices:   f.prices,
		Weights:  f.weights,
		Trust:    f.trust,
		Notifier: f.notifier,
		Events:   f.events,
	}, AutoProcessConfig{Risk: triage.DefaultRiskPolicy()}, zerolog.Nop()).(*autoProcessService)
	svc.now = func() time.Time { return fixtureNow }
	return svc
}

func (f *reportFixture) reportService(t *testing.T) *reportService {
	t.Helper()
	svc := NewReportService(ReportServiceDeps{
		Reports:   f.reports,
		Logs:      f.logs,
		Providers: f.providers,
		Prices:    f.prices,
		Trust:     f.trust,
		Events:    f.events,
	}, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop()).(*reportService)
	svc.now = func() time.Time { return fixtureNow }
	return svc
}

func (f *reportFixture) profile(t *testing.T, id string, trust float64) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.UserProfile{ID: id, TrustScore: trust}).Error)
}

// seedReport inserts a complete report that scores 100 with neutral weights.
func (f *reportFixture) seedReport(t *testing.T, mutate func(*models.Report)) models.Report {
	t.Helper()
	price := 120000.0
	report := models.Report{
		UserID:     "user-1",
		ProviderID: &f.provider.ID,
		Category:   triage.CategoryPriceError,
		Content:    "The listed laser toning price is outdated; the clinic now charges more per session.",
		Price:      &price,
		Status:     models.ReportStatusPending,
		Priority:   models.ReportPriorityNormal,
		IsActive:   true,
		CreatedAt:  fixtureNow.Add(-time.Hour),
		UpdatedAt:  fixtureNow.Add(-time.Hour),
	}
	if mutate != nil {
		mutate(&report)
	}
	require.NoError(t, f.db.Create(&report).Error)
	return report
}

func (f *reportFixture) logCount(t *testing.T, reportID uint) int {
	t.Helper()
	entries, err := f.logs.ListByReport(context.Background(), reportID, 0)
	require.NoError(t, err)
	return len(entries)
}

type countingNotifier struct {
	mu      sync.Mutex
	reports []uint
}

func (n *countingNotifier) NotifyHighRisk(ctx context.Context, report models.Report) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, report.ID)
	return nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []dto.ReportEvent
}

func (r *recordingEvents) Publish(ctx context.Context, event dto.ReportEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEvents) Subscribe() (<-chan dto.ReportEvent, func()) {
	ch := make(chan dto.ReportEvent)
	return ch, func() {}
}

func (r *recordingEvents) Start(ctx context.Context) {}

func (r *recordingEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event.Type)
	}
	return out
}

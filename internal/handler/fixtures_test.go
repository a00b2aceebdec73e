package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/medprice-api/internal/config"
	"github.com/noah-isme/medprice-api/internal/database"
	"github.com/noah-isme/medprice-api/internal/handler"
	"github.com/noah-isme/medprice-api/internal/middleware"
	"github.com/noah-isme/medprice-api/internal/models"
	"github.com/noah-isme/medprice-api/internal/repository"
	"github.com/noah-isme/medprice-api/internal/router"
	"github.com/noah-isme/medprice-api/internal/service"
	"github.com/noah-isme/medprice-api/internal/triage"
)

const testSecret = "handler-test-secret"

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	provider models.Provider
	service  models.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:handler_"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	provider := models.Provider{Name: "Gangnam Dental", Region: "seoul", IsActive: true, AutoTrustScore: 1}
	require.NoError(t, db.Create(&provider).Error)
	svc := models.Service{Name: "Scaling", Category: "dental"}
	require.NoError(t, db.Create(&svc).Error)
	catalogPrice := 50000.0
	require.NoError(t, db.Create(&models.Price{
		ProviderID:   provider.ID,
		ServiceID:    &svc.ID,
		Price:        &catalogPrice,
		OriginalName: "Scaling (full mouth)",
	}).Error)

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())

	reports := repository.NewReportRepository(db)
	logs := repository.NewReportLogRepository(db)
	profiles := repository.NewProfileRepository(db)
	providers := repository.NewProviderRepository(db)
	prices := repository.NewPriceRepository(db)

	events := service.NewReportEventService(nil, "", nil, logger)
	weights := service.NewWeightsService(repository.NewAutoWeightsRepository(db), nil, time.Minute, validate, logger)
	trust := service.NewTrustService(logs, profiles, providers, weights, logger)

	reportService := service.NewReportService(service.ReportServiceDeps{
		Reports:   reports,
		Logs:      logs,
		Providers: providers,
		Prices:    prices,
		Trust:     trust,
		Events:    events,
	}, validate, logger)
	autoService := service.NewAutoProcessService(service.AutoProcessDeps{
		Reports:  reports,
		Logs:     logs,
		Profiles: profiles,
		Prices:   prices,
		Weights:  weights,
		Trust:    trust,
		Notifier: service.NewLogHighRiskNotifier(logger),
		Events:   events,
	}, service.AutoProcessConfig{Risk: triage.DefaultRiskPolicy()}, logger)

	cfg := config.Config{AppName: "MedPrice API", AppEnv: "test", ReportRateLimit: 3}

	app := fiber.New()
	middleware.Register(app, middleware.Config{})
	router.Register(app, cfg, router.Dependencies{
		ReportHandler:      handler.NewReportHandler(reportService, logger),
		ReportAutoHandler:  handler.NewReportAutoHandler(autoService, logger),
		AdminReportHandler: handler.NewAdminReportHandler(reportService, logger),
		ReportFeedHandler:  handler.NewReportFeedHandler(events, logger),
		WeightsHandler:     handler.NewWeightsHandler(weights, logger),
		DashboardHandler:   handler.NewDashboardHandler(service.NewDashboardService(reports, nil, time.Minute, logger), logger),
		PriceHandler:       handler.NewPriceHandler(service.NewPriceService(prices, logger), logger),
		JWTMiddleware:      middleware.JWTProtected(testSecret),
	})

	return &testEnv{app: app, db: db, provider: provider, service: svc}
}

// seedReport inserts a pending report that the pipeline recommends for automation.
func (e *testEnv) seedReport(t *testing.T, mutate func(*models.Report)) models.Report {
	t.Helper()
	price := 70000.0
	now := time.Now().UTC()
	report := models.Report{
		UserID:     "user-1",
		ProviderID: &e.provider.ID,
		ServiceID:  &e.service.ID,
		Category:   triage.CategoryPriceError,
		Content:    "Scaling now costs 70,000 won at the front desk instead of the listed price.",
		Price:      &price,
		Status:     models.ReportStatusPending,
		Priority:   models.ReportPriorityNormal,
		IsActive:   true,
		CreatedAt:  now.Add(-time.Hour),
		UpdatedAt:  now.Add(-time.Hour),
	}
	if mutate != nil {
		mutate(&report)
	}
	require.NoError(t, e.db.Create(&report).Error)
	return report
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func signToken(t *testing.T, subject, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func adminToken(t *testing.T) string { return signToken(t, "admin-1", middleware.RoleAdmin) }

func userToken(t *testing.T, id string) string { return signToken(t, id, middleware.RoleUser) }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, raw []byte, target interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	if target != nil {
		require.NoError(t, json.Unmarshal(env.Data, target))
	}
	return env
}

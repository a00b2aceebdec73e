package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/medprice-api/internal/config"
	"github.com/noah-isme/medprice-api/internal/database"
	"github.com/noah-isme/medprice-api/internal/handler"
	"github.com/noah-isme/medprice-api/internal/middleware"
	"github.com/noah-isme/medprice-api/internal/observability"
	"github.com/noah-isme/medprice-api/internal/repository"
	"github.com/noah-isme/medprice-api/internal/router"
	"github.com/noah-isme/medprice-api/internal/service"
	"github.com/noah-isme/medprice-api/internal/triage"
	"github.com/noah-isme/medprice-api/pkg/ai"
	"github.com/noah-isme/medprice-api/pkg/mailer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	observability.RegisterMetrics()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis disabled: caching, processing locks and cross-node events are off")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	reportRepo := repository.NewReportRepository(db)
	reportLogRepo := repository.NewReportLogRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	providerRepo := repository.NewProviderRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	weightsRepo := repository.NewAutoWeightsRepository(db)

	eventService := service.NewReportEventService(redisClient, cfg.EventChannel, natsConn, logger)
	eventService.Start(ctx)

	weightsService := service.NewWeightsService(weightsRepo, redisClient, cfg.WeightsCacheTTL, validate, logger)
	trustService := service.NewTrustService(reportLogRepo, profileRepo, providerRepo, weightsService, logger)

	reportService := service.NewReportService(service.ReportServiceDeps{
		Reports:    reportRepo,
		Logs:       reportLogRepo,
		Providers:  providerRepo,
		Prices:     priceRepo,
		Trust:      trustService,
		Events:     eventService,
		Classifier: buildClassifier(cfg, logger),
	}, validate, logger)

	autoService := service.NewAutoProcessService(service.AutoProcessDeps{
		Reports:  reportRepo,
		Logs:     reportLogRepo,
		Profiles: profileRepo,
		Prices:   priceRepo,
		Weights:  weightsService,
		Trust:    trustService,
		Notifier: buildNotifier(cfg, logger),
		Events:   eventService,
		Lock:     redisClient,
	}, service.AutoProcessConfig{
		DuplicateWindow: cfg.DuplicateWindow,
		LockTTL:         cfg.ProcessLockTTL,
		Risk: triage.RiskPolicy{
			HighAnomaly:     cfg.HighAnomaly,
			MediumDuplicate: cfg.MediumDuplicate,
		},
	}, logger)

	dashboardService := service.NewDashboardService(reportRepo, redisClient, cfg.DashboardCacheTTL, logger)
	priceService := service.NewPriceService(priceRepo, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ReportHandler:      handler.NewReportHandler(reportService, logger),
		ReportAutoHandler:  handler.NewReportAutoHandler(autoService, logger),
		AdminReportHandler: handler.NewAdminReportHandler(reportService, logger),
		ReportFeedHandler:  handler.NewReportFeedHandler(eventService, logger),
		WeightsHandler:     handler.NewWeightsHandler(weightsService, logger),
		DashboardHandler:   handler.NewDashboardHandler(dashboardService, logger),
		PriceHandler:       handler.NewPriceHandler(priceService, logger),
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, cancel)
}

func buildClassifier(cfg config.Config, logger zerolog.Logger) ai.Classifier {
	if cfg.AIProvider != "openai" {
		return nil
	}
	classifier, err := ai.NewOpenAIClassifier(ai.OpenAIConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.OpenAIModel,
		Logger: logger,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("openai classifier disabled, falling back to keyword rules")
		return nil
	}
	return classifier
}

func buildNotifier(cfg config.Config, logger zerolog.Logger) service.HighRiskNotifier {
	if !cfg.MailEnabled() {
		return service.NewLogHighRiskNotifier(logger)
	}
	sender, err := mailer.New(mailer.Options{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("smtp mailer disabled, high risk alerts are logged only")
		return service.NewLogHighRiskNotifier(logger)
	}
	return service.NewMailHighRiskNotifier(sender, strings.Split(cfg.AdminAlertEmail, ","), cfg.AppBaseURL, logger)
}

func waitForShutdown(app *fiber.App, stopBackground context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}

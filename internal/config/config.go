package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	AppBaseURL        string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	EventChannel      string
	JWTSecret         string
	SMTPHost          string
	SMTPPort          int
	SMTPUser          string
	SMTPPass          string
	SMTPFrom          string
	AdminAlertEmail   string
	DashboardCacheTTL time.Duration
	WeightsCacheTTL   time.Duration
	DuplicateWindow   time.Duration
	ProcessLockTTL    time.Duration
	HighAnomaly       float64
	MediumDuplicate   float64
	ReportRateLimit   int
	AIProvider        string
	OpenAIAPIKey      string
	OpenAIModel       string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// MailEnabled reports whether SMTP alerting is configured.
func (c Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != "" && c.AdminAlertEmail != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("MEDPRICE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "MedPrice API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.base_url", "http://localhost:3000")
	v.SetDefault("events.channel", "medprice:reports")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("dashboard.cache_ttl", "2m")
	v.SetDefault("weights.cache_ttl", "30s")
	v.SetDefault("duplicate.window", "72h")
	v.SetDefault("process.lock_ttl", "30s")
	v.SetDefault("risk.high_anomaly", 80)
	v.SetDefault("risk.medium_duplicate", 70)
	v.SetDefault("reports.rate_limit", 5)
	v.SetDefault("ai.provider", "none")
	v.SetDefault("openai.model", "gpt-4o-mini")

	dashboardTTL, err := parseDuration(v, "dashboard.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	weightsTTL, err := parseDuration(v, "weights.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	window, err := parseDuration(v, "duplicate.window")
	if err != nil {
		return Config{}, err
	}
	lockTTL, err := parseDuration(v, "process.lock_ttl")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		AppBaseURL:        strings.TrimRight(v.GetString("app.base_url"), "/"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		EventChannel:      v.GetString("events.channel"),
		JWTSecret:         v.GetString("jwt.secret"),
		SMTPHost:          v.GetString("smtp.host"),
		SMTPPort:          v.GetInt("smtp.port"),
		SMTPUser:          v.GetString("smtp.user"),
		SMTPPass:          v.GetString("smtp.pass"),
		SMTPFrom:          v.GetString("smtp.from"),
		AdminAlertEmail:   v.GetString("admin.alert_email"),
		DashboardCacheTTL: dashboardTTL,
		WeightsCacheTTL:   weightsTTL,
		DuplicateWindow:   window,
		ProcessLockTTL:    lockTTL,
		HighAnomaly:       v.GetFloat64("risk.high_anomaly"),
		MediumDuplicate:   v.GetFloat64("risk.medium_duplicate"),
		ReportRateLimit:   v.GetInt("reports.rate_limit"),
		AIProvider:        strings.ToLower(v.GetString("ai.provider")),
		OpenAIAPIKey:      v.GetString("openai_api_key"),
		OpenAIModel:       v.GetString("openai.model"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.SMTPPort <= 0 {
		cfg.SMTPPort = 587
	}

	if cfg.HighAnomaly <= 0 {
		cfg.HighAnomaly = 80
	}

	if cfg.MediumDuplicate <= 0 {
		cfg.MediumDuplicate = 70
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

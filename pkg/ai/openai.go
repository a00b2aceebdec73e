package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrUnknownCategory is returned when the model answers outside the allowed set.
var ErrUnknownCategory = errors.New("model returned an unknown category")

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "medprice",
		Subsystem: "ai",
		Name:      "classification_duration_seconds",
		Help:      "Duration of AI report classification requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medprice",
		Subsystem: "ai",
		Name:      "classification_failures_total",
		Help:      "Number of failed AI report classifications",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI classifier.
type OpenAIConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
	Logger    zerolog.Logger
}

// OpenAIClassifier implements Classifier against the chat completion API.
type OpenAIClassifier struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIClassifier builds a classifier using the provided configuration.
func NewOpenAIClassifier(cfg OpenAIConfig) (*OpenAIClassifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 64
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIClassifier{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/medprice-api/pkg/ai/openai"),
		logger: cfg.Logger.With().Str("component", "openai_classifier").Logger(),
	}, nil
}

// Classify asks the model for one of input.Categories.
func (c *OpenAIClassifier) Classify(parent context.Context, input ClassifyInput) (Classification, error) {
	ctx, span := c.tracer.Start(parent, "openai.classify", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifierSystemPrompt(input.Categories)},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(input)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	aiDuration.WithLabelValues(c.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return Classification{}, c.fail(span, fmt.Errorf("openai classify: %w", err))
	}
	if len(resp.Choices) == 0 {
		return Classification{}, c.fail(span, errors.New("no choices returned from openai"))
	}

	result, err := parseClassification(resp.Choices[0].Message.Content, input.Categories)
	if err != nil {
		return Classification{}, c.fail(span, err)
	}
	result.Model = c.cfg.Model
	span.SetAttributes(attribute.String("category", result.Category))
	c.logger.Debug().Str("category", result.Category).Float64("confidence", result.Confidence).Msg("report classified")

	return result, nil
}

func (c *OpenAIClassifier) fail(span trace.Span, err error) error {
	aiFailures.WithLabelValues(c.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func classifierSystemPrompt(categories []string) string {
	return "You classify user reports about medical price listings. Respond with a JSON object " +
		`{"category": string, "confidence": number between 0 and 1}. ` +
		"category must be one of: " + strings.Join(categories, ", ") + "."
}

func buildUserPrompt(input ClassifyInput) string {
	builder := strings.Builder{}
	if input.ServiceName != "" {
		builder.WriteString("Service: ")
		builder.WriteString(input.ServiceName)
		builder.WriteString("\n")
	}
	builder.WriteString("Report:\n")
	builder.WriteString(input.Content)
	return builder.String()
}

func parseClassification(content string, allowed []string) (Classification, error) {
	var data Classification
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &data); err != nil {
		return Classification{}, fmt.Errorf("parse classification json: %w", err)
	}

	category := strings.ToLower(strings.TrimSpace(data.Category))
	for _, candidate := range allowed {
		if category == candidate {
			data.Category = category
			if data.Confidence < 0 {
				data.Confidence = 0
			}
			if data.Confidence > 1 {
				data.Confidence = 1
			}
			return data, nil
		}
	}
	return Classification{}, fmt.Errorf("%w: %q", ErrUnknownCategory, data.Category)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/medprice-api/internal/dto"
	"github.com/noah-isme/medprice-api/internal/middleware"
	"github.com/noah-isme/medprice-api/internal/observability"
)

const (
	reportEventBufferSize = 32
	reportEventSeenTTL    = 2 * time.Minute
)

// ReportEventService fans report lifecycle events out to local feed
// subscribers and to other API nodes.
type ReportEventService interface {
	Publish(ctx context.Context, event dto.ReportEvent) error
	Subscribe() (<-chan dto.ReportEvent, func())
	Start(ctx context.Context)
}

type reportEventService struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	tracer       trace.Tracer
	broker       *reportEventBroker
	nodeID       string
	now          func() time.Time

	seenMu sync.Mutex
	seen   map[string]time.Time
}

type reportEventEnvelope struct {
	ID     string          `json:"id"`
	Source string          `json:"source"`
	Event  dto.ReportEvent `json:"event"`
}

type reportEventBroker struct {
	mu          sync.RWMutex
	subscribers map[chan dto.ReportEvent]struct{}
}

// NewReportEventService constructs the event service. Either transport may be nil.
func NewReportEventService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) ReportEventService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":events"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".events"
	}

	return &reportEventService{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "report_event_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/medprice-api/internal/service/report_events"),
		broker:       &reportEventBroker{subscribers: make(map[chan dto.ReportEvent]struct{})},
		nodeID:       uuid.NewString(),
		now:          time.Now,
		seen:         make(map[string]time.Time),
	}
}

func (s *reportEventService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

// Publish delivers the event locally first; a transport failure does not undo local delivery.
func (s *reportEventService) Publish(ctx context.Context, event dto.ReportEvent) error {
	ctx, span := s.tracer.Start(ctx, "report_events.publish", trace.WithAttributes(
		attribute.String("event.type", event.Type),
		attribute.Int64("report.id", int64(event.ReportID)),
	))
	defer span.End()

	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if event.CorrelationID == "" {
		event.CorrelationID = middleware.CorrelationIDFromContext(ctx)
	}

	s.broker.broadcast(event)
	observability.ReportEvents().WithLabelValues(event.Type).Inc()

	payload, err := json.Marshal(reportEventEnvelope{ID: uuid.NewString(), Source: s.nodeID, Event: event})
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			span.RecordError(err)
			return err
		}
	}
	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			span.RecordError(err)
			return err
		}
	}
	return nil
}

func (s *reportEventService) Subscribe() (<-chan dto.ReportEvent, func()) {
	channel := make(chan dto.ReportEvent, reportEventBufferSize)
	s.broker.subscribe(channel)
	observability.FeedClientsActive().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(channel)
			observability.FeedClientsActive().Dec()
		})
	}
	return channel, cleanup
}

func (s *reportEventService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			s.logger.Error().Err(err).Msg("report event redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload))
	}
}

func (s *reportEventService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to report event subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain report event subscription")
		}
	}()
}

// handleEnvelope rebroadcasts events from other nodes. Both transports carry the
// same envelope, so each envelope id is relayed once.
func (s *reportEventService) handleEnvelope(payload []byte) {
	var envelope reportEventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid report event payload")
		return
	}
	if envelope.Source == s.nodeID {
		return
	}
	if !s.markSeen(envelope.ID) {
		return
	}
	s.broker.broadcast(envelope.Event)
}

// markSeen reports whether id is new within reportEventSeenTTL.
func (s *reportEventService) markSeen(id string) bool {
	if id == "" {
		return true
	}

	now := s.now()
	s.seenMu.Lock()
	defer s.seenMu.Unlock()

	for key, at := range s.seen {
		if now.Sub(at) > reportEventSeenTTL {
			delete(s.seen, key)
		}
	}
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = now
	return true
}

func (b *reportEventBroker) subscribe(ch chan dto.ReportEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[ch] = struct{}{}
}

func (b *reportEventBroker) unsubscribe(ch chan dto.ReportEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

// broadcast drops events for subscribers whose buffer is full.
func (b *reportEventBroker) broadcast(event dto.ReportEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

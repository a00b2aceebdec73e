package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/medprice-api/internal/dto"
	"github.com/noah-isme/medprice-api/internal/middleware"
	"github.com/noah-isme/medprice-api/internal/service"
)

const feedKeepAlive = 30 * time.Second

// ReportFeedHandler streams report events to admin dashboards over websocket.
type ReportFeedHandler struct {
	events service.ReportEventService
	logger zerolog.Logger
}

// NewReportFeedHandler constructs the handler.
func NewReportFeedHandler(events service.ReportEventService, logger zerolog.Logger) *ReportFeedHandler {
	return &ReportFeedHandler{
		events: events,
		logger: logger.With().Str("component", "report_feed_handler").Logger(),
	}
}

// Register binds the websocket upgrade under the router group.
func (h *ReportFeedHandler) Register(router fiber.Router) {
	router.Use("/stream", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("correlation_id", middleware.GetCorrelationID(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/stream", websocket.New(h.handleConnection))
}

func (h *ReportFeedHandler) handleConnection(conn *websocket.Conn) {
	userID, _ := conn.Locals(middleware.LocalUserID).(string)
	correlation, _ := conn.Locals("correlation_id").(string)
	types := parseEventTypes(conn.Query("types"))
	logger := h.logger.With().Str("user_id", userID).Str("correlation_id", correlation).Logger()

	stream, cleanup := h.events.Subscribe()
	defer cleanup()

	logger.Info().Msg("report feed connected")
	defer logger.Info().Msg("report feed disconnected")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(feedKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-stream:
			if !ok {
				return
			}
			if !acceptsEvent(types, event) {
				continue
			}
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug().Err(err).Msg("report feed write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				logger.Debug().Err(err).Msg("report feed ping failed")
				return
			}
		case <-closed:
			return
		}
	}
}

func parseEventTypes(raw string) map[string]struct{} {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	types := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			types[trimmed] = struct{}{}
		}
	}
	return types
}

func acceptsEvent(types map[string]struct{}, event dto.ReportEvent) bool {
	if len(types) == 0 {
		return true
	}
	_, ok := types[event.Type]
	return ok
}

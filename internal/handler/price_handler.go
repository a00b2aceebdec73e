package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/medprice-api/internal/dto"
	"github.com/noah-isme/medprice-api/internal/service"
	"github.com/noah-isme/medprice-api/internal/utils"
)

// PriceHandler serves the public price comparison list.
type PriceHandler struct {
	service service.PriceService
	logger  zerolog.Logger
}

// NewPriceHandler constructs the handler.
func NewPriceHandler(service service.PriceService, logger zerolog.Logger) *PriceHandler {
	return &PriceHandler{
		service: service,
		logger:  logger.With().Str("component", "price_handler").Logger(),
	}
}

// Register attaches public price routes.
func (h *PriceHandler) Register(router fiber.Router) {
	router.Get("", h.search)
}

func (h *PriceHandler) search(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "pageSize")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pageSize")
	}

	req := dto.PriceSearchRequest{
		Region:   strings.TrimSpace(c.Query("region")),
		Query:    strings.TrimSpace(c.Query("q")),
		Sort:     strings.TrimSpace(c.Query("sort")),
		Page:     page,
		PageSize: pageSize,
	}

	if raw := strings.TrimSpace(c.Query("service_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid service_id")
		}
		serviceID := uint(parsed)
		req.ServiceID = &serviceID
	}

	result, err := h.service.Search(requestContext(c), req)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to search prices")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load prices")
	}

	return utils.SendSuccess(c, "prices", result)
}

package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/medprice-api/internal/dto"
	"github.com/noah-isme/medprice-api/internal/service"
	"github.com/noah-isme/medprice-api/internal/utils"
)

// WeightsHandler lets administrators inspect and tune the scorer coefficients.
type WeightsHandler struct {
	service service.WeightsService
	logger  zerolog.Logger
}

// NewWeightsHandler constructs the handler.
func NewWeightsHandler(service service.WeightsService, logger zerolog.Logger) *WeightsHandler {
	return &WeightsHandler{
		service: service,
		logger:  logger.With().Str("component", "weights_handler").Logger(),
	}
}

// Register attaches weight routes to the router group.
func (h *WeightsHandler) Register(router fiber.Router) {
	router.Get("", h.get)
	router.Put("", h.update)
}

func (h *WeightsHandler) get(c *fiber.Ctx) error {
	weights, err := h.service.Get(requestContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load weights")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load weights")
	}
	return utils.SendSuccess(c, "weights", weights)
}

func (h *WeightsHandler) update(c *fiber.Ctx) error {
	var req dto.WeightsUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	weights, err := h.service.Update(requestContext(c), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidWeights) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to update weights")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to update weights")
	}

	return utils.SendSuccess(c, "weights updated", weights)
}

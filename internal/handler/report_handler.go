package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/medprice-api/internal/dto"
	"github.com/noah-isme/medprice-api/internal/middleware"
	"github.com/noah-isme/medprice-api/internal/service"
	"github.com/noah-isme/medprice-api/internal/utils"
)

// ReportHandler serves the reporter-facing report endpoints.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches report routes. createGuards run only in front of report submission.
func (h *ReportHandler) Register(router fiber.Router, createGuards ...fiber.Handler) {
	router.Post("", withGuards(createGuards, h.create)...)
	router.Get("/mine", h.mine)
	router.Get("/:id", h.get)
	router.Get("/:id/logs", h.logs)
}

func (h *ReportHandler) create(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var req dto.ReportCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	report, err := h.service.Create(requestContext(c), userID, req)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrEmptyContent):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrProviderNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Str("user_id", userID).Msg("failed to create report")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to submit report")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "report submitted", report)
}

func (h *ReportHandler) mine(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "pageSize")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pageSize")
	}

	result, err := h.service.ListMine(requestContext(c), userID, page, pageSize)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list own reports")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load reports")
	}

	return utils.SendSuccess(c, "reports", result)
}

func (h *ReportHandler) get(c *fiber.Ctx) error {
	report, ok, err := h.loadVisible(c)
	if !ok {
		return err
	}
	return utils.SendSuccess(c, "report", report)
}

func (h *ReportHandler) logs(c *fiber.Ctx) error {
	report, ok, err := h.loadVisible(c)
	if !ok {
		return err
	}

	entries, err := h.service.Logs(requestContext(c), report.ID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("report_id", report.ID).Msg("failed to load report logs")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load report logs")
	}

	return utils.SendSuccess(c, "report logs", entries)
}

// loadVisible returns the report when the caller owns it or is an admin. When ok is false the
// response has already been written and err is the result to return.
func (h *ReportHandler) loadVisible(c *fiber.Ctx) (dto.ReportResponse, bool, error) {
	id, valid := parseIDParam(c)
	if !valid {
		return dto.ReportResponse{}, false, utils.SendError(c, fiber.StatusBadRequest, "invalid report id")
	}

	report, err := h.service.Get(requestContext(c), id)
	if err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			return dto.ReportResponse{}, false, utils.SendError(c, fiber.StatusNotFound, "report not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("report_id", id).Msg("failed to load report")
		return dto.ReportResponse{}, false, utils.SendError(c, fiber.StatusInternalServerError, "failed to load report")
	}

	if report.UserID != middleware.UserID(c) && middleware.UserRole(c) != middleware.RoleAdmin {
		return dto.ReportResponse{}, false, utils.SendError(c, fiber.StatusNotFound, "report not found")
	}

	return report, true, nil
}

package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/medprice-api/internal/dto"
	"github.com/noah-isme/medprice-api/internal/middleware"
	"github.com/noah-isme/medprice-api/internal/service"
	"github.com/noah-isme/medprice-api/internal/triage"
	"github.com/noah-isme/medprice-api/internal/utils"
)

// AdminReportHandler exposes report moderation endpoints for administrators.
type AdminReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewAdminReportHandler constructs the handler.
func NewAdminReportHandler(service service.ReportService, logger zerolog.Logger) *AdminReportHandler {
	return &AdminReportHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_report_handler").Logger(),
	}
}

// Register attaches moderation routes to the router group.
func (h *AdminReportHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Patch("/:id/status", h.updateStatus)
	router.Post("/:id/manual", h.requireManual)
	router.Post("/:id/complete", h.complete)
	router.Delete("/:id", h.deactivate)
}

func (h *AdminReportHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "pageSize")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pageSize")
	}

	req := dto.ReportListRequest{
		Filter:   strings.TrimSpace(c.Query("filter")),
		Sort:     strings.TrimSpace(c.Query("sort")),
		Page:     page,
		PageSize: pageSize,
	}

	result, err := h.service.List(requestContext(c), req)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list reports")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load reports")
	}

	return utils.SendSuccess(c, "reports", result)
}

func (h *AdminReportHandler) updateStatus(c *fiber.Ctx) error {
	id, ok := parseIDParam(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid report id")
	}

	var req dto.ReportStatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	report, err := h.service.UpdateStatus(requestContext(c), id, middleware.UserID(c), req)
	if err != nil {
		return h.transitionError(c, id, err)
	}
	return utils.SendSuccess(c, "report status updated", report)
}

func (h *AdminReportHandler) requireManual(c *fiber.Ctx) error {
	id, ok := parseIDParam(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid report id")
	}

	var req dto.ReportManualRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	report, err := h.service.RequireManual(requestContext(c), id, middleware.UserID(c), req.Reason)
	if err != nil {
		return h.transitionError(c, id, err)
	}
	return utils.SendSuccess(c, "report moved to manual review", report)
}

func (h *AdminReportHandler) complete(c *fiber.Ctx) error {
	id, ok := parseIDParam(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid report id")
	}

	report, err := h.service.Complete(requestContext(c), id, middleware.UserID(c))
	if err != nil {
		return h.transitionError(c, id, err)
	}
	return utils.SendSuccess(c, "report completed", report)
}

func (h *AdminReportHandler) deactivate(c *fiber.Ctx) error {
	id, ok := parseIDParam(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid report id")
	}

	if err := h.service.Deactivate(requestContext(c), id); err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "report not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("report_id", id).Msg("failed to deactivate report")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete report")
	}

	return utils.SendSuccess(c, "report deleted", nil)
}

func (h *AdminReportHandler) transitionError(c *fiber.Ctx, id uint, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrReasonRequired):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrReportNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "report not found")
	case errors.Is(err, triage.ErrInvalidTransition):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrConcurrentUpdate):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Uint("report_id", id).Msg("failed to update report status")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to update report")
	}
}

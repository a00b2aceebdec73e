package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/medprice-api/internal/middleware"
	"github.com/noah-isme/medprice-api/internal/service"
	"github.com/noah-isme/medprice-api/internal/utils"
)

// Error codes returned by the report processing endpoints.
const (
	CodeInvalidID        = "INVALID_ID"
	CodeReportNotFound   = "REPORT_NOT_FOUND"
	CodeUpdateFailed     = "UPDATE_FAILED"
	CodeHighRiskBlocked  = "HIGH_RISK_BLOCKED"
	CodeConcurrentUpdate = "CONCURRENT_UPDATE"
	CodeNoDiffFound      = "NO_DIFF_FOUND"
	CodeDiffQueryFailed  = "DIFF_QUERY_FAILED"
	CodeAnalysisFailed   = "ANALYSIS_FAILED"
)

// ReportAutoHandler exposes the automatic processing pipeline.
type ReportAutoHandler struct {
	service service.AutoProcessService
	logger  zerolog.Logger
}

// NewReportAutoHandler constructs the handler.
func NewReportAutoHandler(service service.AutoProcessService, logger zerolog.Logger) *ReportAutoHandler {
	return &ReportAutoHandler{
		service: service,
		logger:  logger.With().Str("component", "report_auto_handler").Logger(),
	}
}

// Register attaches the processing routes. Guards run before every route.
func (h *ReportAutoHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Post("/:id/auto", withGuards(guards, h.process)...)
	router.Get("/:id/auto", withGuards(guards, h.process)...)
	router.Get("/:id/diff", withGuards(guards, h.diff)...)
	router.Get("/:id/analysis", withGuards(guards, h.analysis)...)
}

func (h *ReportAutoHandler) process(c *fiber.Ctx) error {
	id, ok := parseIDParam(c)
	if !ok {
		return utils.SendCode(c, fiber.StatusBadRequest, CodeInvalidID, "")
	}

	result, err := h.service.Process(requestContext(c), id, middleware.UserID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReportNotFound):
			return utils.SendCode(c, fiber.StatusNotFound, CodeReportNotFound, "")
		case errors.Is(err, service.ErrHighRiskBlocked):
			return utils.SendCode(c, fiber.StatusUnprocessableEntity, CodeHighRiskBlocked, "report requires admin review")
		case errors.Is(err, service.ErrConcurrentUpdate):
			return utils.SendCode(c, fiber.StatusConflict, CodeConcurrentUpdate, "report changed while processing")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("report_id", id).Msg("auto-process failed")
			return utils.SendCode(c, fiber.StatusInternalServerError, CodeUpdateFailed, "")
		}
	}

	return utils.SendResult(c, fiber.StatusOK, result)
}

func (h *ReportAutoHandler) diff(c *fiber.Ctx) error {
	id, ok := parseIDParam(c)
	if !ok {
		return utils.SendCode(c, fiber.StatusBadRequest, CodeInvalidID, "")
	}

	result, err := h.service.Diff(requestContext(c), id)
	if err != nil {
		if errors.Is(err, service.ErrNoDiffFound) {
			return utils.SendCode(c, fiber.StatusNotFound, CodeNoDiffFound, "")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("report_id", id).Msg("diff query failed")
		return utils.SendCode(c, fiber.StatusInternalServerError, CodeDiffQueryFailed, "")
	}

	return utils.SendResult(c, fiber.StatusOK, result)
}

func (h *ReportAutoHandler) analysis(c *fiber.Ctx) error {
	id, ok := parseIDParam(c)
	if !ok {
		return utils.SendCode(c, fiber.StatusBadRequest, CodeInvalidID, "")
	}

	result, err := h.service.Preview(requestContext(c), id)
	if err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			return utils.SendCode(c, fiber.StatusNotFound, CodeReportNotFound, "")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("report_id", id).Msg("analysis failed")
		return utils.SendCode(c, fiber.StatusInternalServerError, CodeAnalysisFailed, "")
	}

	return utils.SendResult(c, fiber.StatusOK, result)
}

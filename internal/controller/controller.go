package controller

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"apms-analytics-service/internal/model"
	"apms-analytics-service/internal/service"
)

type AnalyticsController interface {
	Query(c *fiber.Ctx) error
	DailyCounts(c *fiber.Ctx) error
	StopReasonPareto(c *fiber.Ctx) error
	DowntimeReasons(c *fiber.Ctx) error
	Refs(c *fiber.Ctx) error
}

// analyticsController exposes HTTP handlers for the query endpoints.
type analyticsController struct {
	analyticsService service.AnalyticsService
}

// NewAnalyticsController builds an AnalyticsController.
func NewAnalyticsController(svc service.AnalyticsService) AnalyticsController {
	return &analyticsController{analyticsService: svc}
}

// Query executes the generic analytics engine for the posted request.
func (h *analyticsController) Query(c *fiber.Ctx) error {
	var req model.AnalyticsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json payload")
	}

	res, err := h.analyticsService.Query(c.Context(), req)
	if err != nil {
		return errorBody(c, err)
	}
	return c.JSON(res)
}

// DailyCounts serves the daily activity heatmap.
func (h *analyticsController) DailyCounts(c *fiber.Ctx) error {
	items, err := h.analyticsService.DailyCounts(c.Context())
	if err != nil {
		return errorBody(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// StopReasonPareto serves the top stop reasons chart.
func (h *analyticsController) StopReasonPareto(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(utils.Trim(c.Query("limit"), ' '))

	items, err := h.analyticsService.StopReasonPareto(c.Context(), limit)
	if err != nil {
		return errorBody(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// DowntimeReasons serves total downtime per stop reason.
func (h *analyticsController) DowntimeReasons(c *fiber.Ctx) error {
	filter := model.DowntimeFilter{
		LocationID: utils.Trim(c.Query("locationId"), ' '),
		From:       utils.Trim(c.Query("from"), ' '),
		To:         utils.Trim(c.Query("to"), ' '),
	}

	items, err := h.analyticsService.DowntimeReasons(c.Context(), filter)
	if err != nil {
		return errorBody(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// Refs serves the reference lists for dashboard pickers.
func (h *analyticsController) Refs(c *fiber.Ctx) error {
	res, err := h.analyticsService.Refs(c.Context())
	if err != nil {
		return errorBody(c, err)
	}
	return c.JSON(res)
}

// errorBody is the single error boundary: every failure becomes a renderable
// `{"error": ...}` payload. Execution failures keep status 200 so dashboards
// treat them as an empty-chart state; only input validation earns a 400.
func errorBody(c *fiber.Ctx, err error) error {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": verr.Message})
	}
	return c.JSON(fiber.Map{"error": err.Error()})
}

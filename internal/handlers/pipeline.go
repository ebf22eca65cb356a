package handlers

import (
	"sync/atomic"

	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/stem/pkg/tracing"

	"github.com/Ramsey-B/clover/pkg/pipeline"
)

var validate = validator.New()

// PipelineHandler handles pipeline run API endpoints
type PipelineHandler struct {
	service *pipeline.Service
	running atomic.Bool
	logger  ectologger.Logger
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(service *pipeline.Service, logger ectologger.Logger) *PipelineHandler {
	return &PipelineHandler{
		service: service,
		logger:  logger,
	}
}

// TriggerRunRequest represents the trigger run request body
type TriggerRunRequest struct {
	ChurnWindowDays int `json:"churn_window_days,omitempty" validate:"omitempty,min=1,max=730"`
}

// Register registers pipeline routes
func (h *PipelineHandler) Register(g *echo.Group) {
	g.POST("/runs", h.Trigger)
}

// Trigger starts a pipeline run. Runs are single threaded; a second trigger
// while one is in flight returns 409. An empty body runs with the configured
// defaults.
func (h *PipelineHandler) Trigger(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "PipelineHandler.Trigger")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	var req TriggerRunRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return BadRequest("invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return BadRequest("churn_window_days must be between 1 and 730")
		}
	}

	if !h.running.CompareAndSwap(false, true) {
		return Conflict("a pipeline run is already in progress")
	}
	defer h.running.Store(false)

	result, err := h.service.Run(ctx, pipeline.RunOptions{ChurnWindowDays: req.ChurnWindowDays})
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Triggered pipeline run failed")
		return err
	}

	return SuccessResponse(c, result)
}

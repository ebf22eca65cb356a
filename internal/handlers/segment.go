package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/stem/pkg/tracing"

	"github.com/Ramsey-B/clover/internal/repositories/customersegment"
	"github.com/Ramsey-B/clover/pkg/models"
)

var validSegments = map[string]bool{
	string(models.SegmentChampions):     true,
	string(models.SegmentLoyal):         true,
	string(models.SegmentNewCustomers):  true,
	string(models.SegmentNeedAttention): true,
	string(models.SegmentAtRisk):        true,
	string(models.SegmentHibernating):   true,
	string(models.SegmentRegular):       true,
}

// SegmentHandler handles segment API endpoints
type SegmentHandler struct {
	repo          *customersegment.Repository
	defaultTenant string
	logger        ectologger.Logger
}

// NewSegmentHandler creates a new segment handler
func NewSegmentHandler(repo *customersegment.Repository, defaultTenant string, logger ectologger.Logger) *SegmentHandler {
	return &SegmentHandler{
		repo:          repo,
		defaultTenant: defaultTenant,
		logger:        logger,
	}
}

// Register registers segment routes
func (h *SegmentHandler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/summary", h.Summary)
}

// List returns segmented customers, optionally filtered to one segment
func (h *SegmentHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "SegmentHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	segment := c.QueryParam("segment")
	if segment != "" && !validSegments[segment] {
		return BadRequest("unknown segment: " + segment)
	}

	rows, err := h.repo.List(ctx, TenantID(c, h.defaultTenant), segment, ParseLimit(c, 100))
	if err != nil {
		return err
	}

	return SuccessResponse(c, rows)
}

// Summary returns per-segment customer count, revenue and churn rate
func (h *SegmentHandler) Summary(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "SegmentHandler.Summary")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	summary, err := h.repo.Summary(ctx, TenantID(c, h.defaultTenant))
	if err != nil {
		return err
	}

	return SuccessResponse(c, summary)
}

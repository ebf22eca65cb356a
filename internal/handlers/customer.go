package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/stem/pkg/tracing"

	"github.com/Ramsey-B/clover/internal/repositories/customerfeature"
	"github.com/Ramsey-B/clover/internal/repositories/transaction"
)

// CustomerHandler handles customer API endpoints
type CustomerHandler struct {
	features      *customerfeature.Repository
	transactions  *transaction.Repository
	defaultTenant string
	logger        ectologger.Logger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(features *customerfeature.Repository, transactions *transaction.Repository, defaultTenant string, logger ectologger.Logger) *CustomerHandler {
	return &CustomerHandler{
		features:      features,
		transactions:  transactions,
		defaultTenant: defaultTenant,
		logger:        logger,
	}
}

// Register registers customer routes
func (h *CustomerHandler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/:id/features", h.GetFeatures)
	g.GET("/:id/transactions", h.GetTransactions)
}

// List returns customer feature rows, optionally filtered by churn state
func (h *CustomerHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CustomerHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	var churned *bool
	switch c.QueryParam("churned") {
	case "":
	case "true":
		v := true
		churned = &v
	case "false":
		v := false
		churned = &v
	default:
		return BadRequest("churned must be true or false")
	}

	rows, err := h.features.List(ctx, TenantID(c, h.defaultTenant), churned, ParseLimit(c, 100))
	if err != nil {
		return err
	}

	return SuccessResponse(c, rows)
}

// GetFeatures returns the feature row of one customer
func (h *CustomerHandler) GetFeatures(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CustomerHandler.GetFeatures")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id := c.Param("id")
	if id == "" {
		return BadRequest("missing customer id")
	}

	row, err := h.features.Get(ctx, TenantID(c, h.defaultTenant), id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, row)
}

// GetTransactions returns the transaction history of one customer
func (h *CustomerHandler) GetTransactions(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CustomerHandler.GetTransactions")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id := c.Param("id")
	if id == "" {
		return BadRequest("missing customer id")
	}

	txs, err := h.transactions.ListByCustomer(ctx, TenantID(c, h.defaultTenant), id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, txs)
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/stem/pkg/context"
)

// TenantID resolves the tenant for a request: the X-Tenant-ID header when
// set, otherwise the configured default tenant.
func TenantID(c echo.Context, defaultTenant string) string {
	ctx := c.Request().Context()
	if tenantID := appctx.GetTenantID(ctx); tenantID != "" {
		return tenantID
	}
	return defaultTenant
}

// ParseLimit parses the limit query parameter, falling back to def
func ParseLimit(c echo.Context, def int) int {
	raw := c.QueryParam("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return def
	}
	return limit
}

// SuccessResponse returns a 200 OK with data
func SuccessResponse(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}

// AcceptedResponse returns a 202 Accepted with data
func AcceptedResponse(c echo.Context, data any) error {
	return c.JSON(http.StatusAccepted, data)
}

// BadRequest returns a 400 Bad Request error
func BadRequest(message string) error {
	return httperror.NewHTTPError(http.StatusBadRequest, message)
}

// Conflict returns a 409 Conflict error
func Conflict(message string) error {
	return httperror.NewHTTPError(http.StatusConflict, message)
}

// ServiceUnavailable returns a 503 Service Unavailable error
func ServiceUnavailable(message string) error {
	return httperror.NewHTTPError(http.StatusServiceUnavailable, message)
}

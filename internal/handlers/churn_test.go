package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestChurnScores_MissingModelDegradesTo503(t *testing.T) {
	handler := NewChurnHandler(nil, t.TempDir(), "default", newTestLogger())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/churn/scores", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.Scores(c)
	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusServiceUnavailable, httperror.GetStatusCode(err))
	assert.Contains(t, err.Error(), "train", "the response should tell the operator what to do")
}

func TestPipelineTrigger_RejectsBadWindow(t *testing.T) {
	handler := NewPipelineHandler(nil, newTestLogger())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/runs",
		strings.NewReader(`{"churn_window_days": -5}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.Trigger(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

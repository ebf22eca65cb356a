package handlers

import (
	"errors"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/stem/pkg/tracing"

	"github.com/Ramsey-B/clover/internal/repositories/customerfeature"
	"github.com/Ramsey-B/clover/pkg/churn"
	"github.com/Ramsey-B/clover/pkg/metrics"
)

// ChurnScore is one customer's predicted churn probability
type ChurnScore struct {
	CustomerUniqueID string  `json:"customer_unique_id"`
	Probability      float64 `json:"probability"`
}

// ChurnScoresResponse is the churn scoring response
type ChurnScoresResponse struct {
	ChurnWindowDays int          `json:"churn_window_days"`
	Scores          []ChurnScore `json:"scores"`
}

// ChurnHandler handles churn scoring API endpoints
type ChurnHandler struct {
	features      *customerfeature.Repository
	modelsDir     string
	defaultTenant string
	logger        ectologger.Logger
}

// NewChurnHandler creates a new churn handler
func NewChurnHandler(features *customerfeature.Repository, modelsDir string, defaultTenant string, logger ectologger.Logger) *ChurnHandler {
	return &ChurnHandler{
		features:      features,
		modelsDir:     modelsDir,
		defaultTenant: defaultTenant,
		logger:        logger,
	}
}

// Register registers churn routes
func (h *ChurnHandler) Register(g *echo.Group) {
	g.GET("/scores", h.Scores)
}

// Scores predicts churn probability for every customer in the feature table.
// The model is loaded per request so a freshly trained artifact takes effect
// without a restart. A missing artifact degrades to 503 with guidance.
func (h *ChurnHandler) Scores(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ChurnHandler.Scores")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	model, err := churn.Load(h.modelsDir)
	if err != nil {
		if errors.Is(err, churn.ErrModelNotFound) {
			metrics.ChurnPredictionsTotal.WithLabelValues("model_missing").Inc()
			return ServiceUnavailable(err.Error())
		}
		h.logger.WithContext(ctx).WithError(err).Error("Failed to load churn model")
		metrics.ChurnPredictionsTotal.WithLabelValues("error").Inc()
		return err
	}

	rows, err := h.features.ListAll(ctx, TenantID(c, h.defaultTenant))
	if err != nil {
		metrics.ChurnPredictionsTotal.WithLabelValues("error").Inc()
		return err
	}

	probs := model.Predict(rows)
	scores := make([]ChurnScore, len(rows))
	for i, row := range rows {
		scores[i] = ChurnScore{
			CustomerUniqueID: row.CustomerUniqueID,
			Probability:      probs[i],
		}
	}

	metrics.ChurnPredictionsTotal.WithLabelValues("succeeded").Inc()
	return SuccessResponse(c, ChurnScoresResponse{
		ChurnWindowDays: model.ChurnWindowDays,
		Scores:          scores,
	})
}

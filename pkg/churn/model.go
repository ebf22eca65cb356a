// Package churn is the model collaborator: it trains and serves the proxy
// churn classifier over the customer feature table.
//
// recency_days is deliberately absent from the feature set. The churn label
// is defined as recency exceeding the window, so including recency would
// leak the label's own definition into the model.
package churn

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// ArtifactFile is the model artifact name inside the models directory.
const ArtifactFile = "churn_model.json"

// ErrModelNotFound signals that scoring was requested before a model was
// trained. Callers surface it as guidance, not as a crash.
var ErrModelNotFound = errors.New("churn model artifacts not found: train one with the train command or commit artifacts to the models directory")

// FeatureNames are the leak-safe training features, in model input order.
var FeatureNames = []string{
	"frequency_orders",
	"monetary_total",
	"avg_order_value",
	"avg_review_score",
	"avg_delivery_days",
}

// Model is a trained logistic churn classifier. Inputs are standardized
// with the training-set mean and standard deviation stored alongside the
// weights, so the artifact is self-contained.
type Model struct {
	FeatureNames    []string  `json:"feature_names"`
	Weights         []float64 `json:"weights"`
	Intercept       float64   `json:"intercept"`
	Means           []float64 `json:"means"`
	Stds            []float64 `json:"stds"`
	ChurnWindowDays int       `json:"churn_window_days"`
	TrainedAt       time.Time `json:"trained_at"`
}

// Load reads the model artifact from dir. Absent artifacts yield
// ErrModelNotFound so the caller can degrade to an explanatory message.
func Load(dir string) (*Model, error) {
	data, err := os.ReadFile(filepath.Join(dir, ArtifactFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("read churn model: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse churn model: %w", err)
	}
	if len(m.Weights) != len(m.FeatureNames) {
		return nil, fmt.Errorf("churn model artifact is inconsistent: %d weights for %d features", len(m.Weights), len(m.FeatureNames))
	}
	return &m, nil
}

// Save writes the model artifact to dir, creating it if needed.
func (m *Model) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create models dir: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode churn model: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ArtifactFile), data, 0o644); err != nil {
		return fmt.Errorf("write churn model: %w", err)
	}
	return nil
}

// FeatureVector extracts the model inputs from a feature row. Null averages
// fill as zero, matching training.
func FeatureVector(row models.CustomerFeatures) []float64 {
	avgReview := 0.0
	if row.AvgReviewScore != nil {
		avgReview = *row.AvgReviewScore
	}
	avgDelivery := 0.0
	if row.AvgDeliveryDays != nil {
		avgDelivery = *row.AvgDeliveryDays
	}
	return []float64{
		float64(row.FrequencyOrders),
		row.MonetaryTotal,
		row.AvgOrderValue,
		avgReview,
		avgDelivery,
	}
}

// Predict returns a churn probability per feature row.
func (m *Model) Predict(rows []models.CustomerFeatures) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = m.predictOne(FeatureVector(row))
	}
	return out
}

func (m *Model) predictOne(x []float64) float64 {
	sum := m.Intercept
	for j, v := range x {
		sum += m.Weights[j] * m.standardize(j, v)
	}
	return sigmoid(sum)
}

func (m *Model) standardize(j int, v float64) float64 {
	if j >= len(m.Means) || j >= len(m.Stds) || m.Stds[j] == 0 {
		return v
	}
	return (v - m.Means[j]) / m.Stds[j]
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

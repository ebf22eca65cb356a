package churn

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
)

// TrainerConfig holds training hyperparameters. Defaults are deliberately
// plain; tuning is out of scope for this service.
type TrainerConfig struct {
	LearningRate float64
	Epochs       int
	TestRatio    float64
	Seed         int64
}

// DefaultTrainerConfig returns the default training configuration.
func DefaultTrainerConfig(seed int64) TrainerConfig {
	return TrainerConfig{
		LearningRate: 0.1,
		Epochs:       300,
		TestRatio:    0.2,
		Seed:         seed,
	}
}

// Report summarizes a training run on the held-out split.
type Report struct {
	TrainRows int     `json:"train_rows"`
	TestRows  int     `json:"test_rows"`
	Accuracy  float64 `json:"accuracy"`
	AUC       float64 `json:"auc"`
}

// Trainer fits the logistic churn model by full-batch gradient descent on
// standardized features.
type Trainer struct {
	config TrainerConfig
	logger ectologger.Logger
}

// NewTrainer creates a trainer.
func NewTrainer(config TrainerConfig, logger ectologger.Logger) *Trainer {
	return &Trainer{config: config, logger: logger}
}

// Train fits a model on the feature table and evaluates it on a held-out
// split. The split is seeded so runs on the same dataset reproduce.
func (t *Trainer) Train(ctx context.Context, rows []models.CustomerFeatures) (*Model, *Report, error) {
	if len(rows) < 10 {
		return nil, nil, errors.New("churn: not enough feature rows to train on")
	}

	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	windowDays := rows[0].ChurnWindowDays
	for i, row := range rows {
		x[i] = FeatureVector(row)
		if row.Churned {
			y[i] = 1
		}
	}

	rng := rand.New(rand.NewSource(t.config.Seed))
	perm := rng.Perm(len(x))
	nTest := int(float64(len(x)) * t.config.TestRatio)
	if nTest == 0 {
		nTest = 1
	}

	var xTrain, xTest [][]float64
	var yTrain, yTest []float64
	for i, idx := range perm {
		if i < nTest {
			xTest = append(xTest, x[idx])
			yTest = append(yTest, y[idx])
		} else {
			xTrain = append(xTrain, x[idx])
			yTrain = append(yTrain, y[idx])
		}
	}

	means, stds := moments(xTrain)
	model := &Model{
		FeatureNames:    append([]string(nil), FeatureNames...),
		Weights:         make([]float64, len(FeatureNames)),
		Means:           means,
		Stds:            stds,
		ChurnWindowDays: windowDays,
		TrainedAt:       time.Now().UTC(),
	}

	t.fit(model, xTrain, yTrain)

	probs := make([]float64, len(xTest))
	for i, row := range xTest {
		probs[i] = model.predictOne(row)
	}
	report := &Report{
		TrainRows: len(xTrain),
		TestRows:  len(xTest),
		Accuracy:  accuracy(yTest, probs),
		AUC:       rocAUC(yTest, probs),
	}

	t.logger.WithContext(ctx).WithFields(map[string]any{
		"train_rows": report.TrainRows,
		"test_rows":  report.TestRows,
		"accuracy":   report.Accuracy,
		"auc":        report.AUC,
	}).Info("Trained churn model")

	return model, report, nil
}

// fit runs full-batch gradient descent on the cross-entropy loss.
func (t *Trainer) fit(model *Model, x [][]float64, y []float64) {
	n := float64(len(x))
	std := make([][]float64, len(x))
	for i, row := range x {
		std[i] = make([]float64, len(row))
		for j, v := range row {
			std[i][j] = model.standardize(j, v)
		}
	}

	for epoch := 0; epoch < t.config.Epochs; epoch++ {
		gradW := make([]float64, len(model.Weights))
		gradB := 0.0
		for i, row := range std {
			sum := model.Intercept
			for j, v := range row {
				sum += model.Weights[j] * v
			}
			diff := sigmoid(sum) - y[i]
			for j, v := range row {
				gradW[j] += diff * v
			}
			gradB += diff
		}
		for j := range model.Weights {
			model.Weights[j] -= t.config.LearningRate * gradW[j] / n
		}
		model.Intercept -= t.config.LearningRate * gradB / n
	}
}

func moments(x [][]float64) (means, stds []float64) {
	if len(x) == 0 {
		return nil, nil
	}
	cols := len(x[0])
	means = make([]float64, cols)
	stds = make([]float64, cols)
	for _, row := range x {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(len(x))
	}
	for _, row := range x {
		for j, v := range row {
			d := v - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / float64(len(x)))
	}
	return means, stds
}

func accuracy(yTrue, probs []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	correct := 0
	for i, p := range probs {
		pred := 0.0
		if p >= 0.5 {
			pred = 1
		}
		if pred == yTrue[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// rocAUC computes the area under the ROC curve by the rank statistic:
// the probability a random positive scores above a random negative, with
// ties counting half.
func rocAUC(yTrue, probs []float64) float64 {
	type scored struct {
		p float64
		y float64
	}
	rows := make([]scored, len(probs))
	var pos, neg float64
	for i := range probs {
		rows[i] = scored{p: probs[i], y: yTrue[i]}
		if yTrue[i] == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].p < rows[j].p })

	// Average ranks across tied scores.
	ranks := make([]float64, len(rows))
	for i := 0; i < len(rows); {
		j := i
		for j < len(rows) && rows[j].p == rows[i].p {
			j++
		}
		avg := float64(i+j+1) / 2.0
		for k := i; k < j; k++ {
			ranks[k] = avg
		}
		i = j
	}

	var rankSum float64
	for i, row := range rows {
		if row.y == 1 {
			rankSum += ranks[i]
		}
	}
	return (rankSum - pos*(pos+1)/2) / (pos * neg)
}

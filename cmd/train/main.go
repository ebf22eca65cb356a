package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/churn"
	"github.com/Ramsey-B/clover/pkg/dataset"
	"github.com/Ramsey-B/clover/pkg/pipeline"
)

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zapLogger.Sync()
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	featuresPath := filepath.Join(cfg.DataProcessedDir, pipeline.CustomerFeaturesFile)
	table, err := dataset.ReadCSV(featuresPath, "customer_features")
	if err != nil {
		logger.WithError(err).Error("Failed to read feature table")
		fmt.Fprintf(os.Stderr, "no feature table at %s; run the pipeline first\n", featuresPath)
		os.Exit(1)
	}

	rows, err := pipeline.ParseFeaturesTable(table)
	if err != nil {
		logger.WithError(err).Error("Failed to parse feature table")
		os.Exit(1)
	}

	trainer := churn.NewTrainer(churn.DefaultTrainerConfig(cfg.RandomSeed), logger)
	model, report, err := trainer.Train(context.Background(), rows)
	if err != nil {
		logger.WithError(err).Error("Training failed")
		os.Exit(1)
	}

	if err := model.Save(cfg.ModelsDir); err != nil {
		logger.WithError(err).Error("Failed to save model artifact")
		os.Exit(1)
	}

	fmt.Printf("trained on %d rows, evaluated on %d\n", report.TrainRows, report.TestRows)
	fmt.Printf("accuracy %.4f, auc %.4f\n", report.Accuracy, report.AUC)
	fmt.Printf("saved %s\n", filepath.Join(cfg.ModelsDir, churn.ArtifactFile))
}

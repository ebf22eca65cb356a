package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/Ramsey-B/stem/pkg/database"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/repositories/customerfeature"
	"github.com/Ramsey-B/clover/internal/repositories/customersegment"
	"github.com/Ramsey-B/clover/internal/repositories/transaction"
	"github.com/Ramsey-B/clover/pkg/dataset"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/kafka"
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

	ctx := context.Background()

	if err := checkRawDir(cfg.DataRawDir); err != nil {
		logger.WithError(err).Error("Raw data is missing")
		fmt.Fprintf(os.Stderr, "\n%v\n\nDownload the Olist e-commerce dataset and place the CSV exports in %s:\n", err, cfg.DataRawDir)
		for _, f := range dataset.RawFileNames() {
			fmt.Fprintf(os.Stderr, "  - %s\n", f)
		}
		os.Exit(1)
	}

	var txStore pipeline.TransactionStore
	var featureStore pipeline.FeatureStore
	var segmentStore pipeline.SegmentStore
	if cfg.PersistEnabled {
		sqlxDB, err := connectDB(cfg, logger)
		if err != nil {
			logger.WithError(err).Error("Failed to connect to database")
			os.Exit(1)
		}
		defer sqlxDB.Close()

		db := database.NewDatabaseInstance(sqlxDB, logger)
		txStore = transaction.NewRepository(db, logger)
		featureStore = customerfeature.NewRepository(db, logger)
		segmentStore = customersegment.NewRepository(db, logger)
	}

	var emitter pipeline.RunEmitter
	if cfg.KafkaProducerEnabled {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
		emitter = events.NewEmitter(producer, logger)
	}

	svc := pipeline.NewService(pipeline.Options{
		TenantID:        cfg.TenantID,
		RawDir:          cfg.DataRawDir,
		ProcessedDir:    cfg.DataProcessedDir,
		ChurnWindowDays: cfg.ChurnWindowDays,
		RFMLabels:       cfg.RFMLabels,
	}, txStore, featureStore, segmentStore, emitter, logger)

	result, err := svc.Run(ctx, pipeline.RunOptions{})
	if err != nil {
		os.Exit(1)
	}

	fmt.Printf("run %s complete: %d transactions, %d customers, snapshot %s\n",
		result.RunID, result.Transactions, result.Customers,
		result.SnapshotDate.Format("2006-01-02"))
	for segment, n := range result.SegmentDistribution {
		fmt.Printf("  %-15s %d\n", segment, n)
	}
}

// checkRawDir verifies the raw dataset files exist before starting a run,
// so a fresh checkout fails with instructions instead of a load error.
func checkRawDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("raw data directory %s does not exist", dir)
	}
	for _, f := range dataset.RawFileNames() {
		if _, err := os.Stat(dir + "/" + f); err != nil {
			return fmt.Errorf("raw data file %s is missing from %s", f, dir)
		}
	}
	return nil
}

func connectDB(cfg config.Config, logger ectologger.Logger) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName,
		cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)
	sqlxDB, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		return nil, err
	}

	driver, err := migratepg.WithInstance(sqlxDB.DB, &migratepg.Config{})
	if err != nil {
		return nil, fmt.Errorf("create migration driver: %w", err)
	}
	ms := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	if err := ms.Migrate(cfg.DatabaseName, driver); err != nil {
		return nil, err
	}

	return sqlxDB, nil
}

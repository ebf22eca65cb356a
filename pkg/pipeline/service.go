// Package pipeline orchestrates one batch run: raw CSVs in, segmented
// customers out. Every stage materializes its full output before the next
// stage starts, so a failed run leaves no partial downstream state.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/stem/pkg/tracing"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/dataset"
	"github.com/Ramsey-B/clover/pkg/etl"
	"github.com/Ramsey-B/clover/pkg/features"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/segmentation"
)

// TransactionStore persists the transaction table of a run.
type TransactionStore interface {
	ReplaceRun(ctx context.Context, tenantID string, runID string, txs []models.Transaction) error
}

// FeatureStore persists the customer feature table of a run.
type FeatureStore interface {
	ReplaceRun(ctx context.Context, tenantID string, runID string, rows []models.CustomerFeatures) error
}

// SegmentStore persists the customer segment table of a run.
type SegmentStore interface {
	ReplaceRun(ctx context.Context, tenantID string, runID string, rows []models.CustomerSegment) error
}

// RunEmitter publishes run lifecycle events.
type RunEmitter interface {
	EmitSegmentsUpdated(ctx context.Context, tenantID string, runID string, snapshot time.Time, transactions int, segments []models.CustomerSegment, churnWindowDays int) error
	EmitRunFailed(ctx context.Context, tenantID string, runID string, runErr error) error
}

// Options configures a pipeline service.
type Options struct {
	TenantID        string
	RawDir          string
	ProcessedDir    string
	ChurnWindowDays int
	RFMLabels       []int
}

// Result summarizes a completed run.
type Result struct {
	RunID               string         `json:"run_id"`
	SnapshotDate        time.Time      `json:"snapshot_date"`
	Transactions        int            `json:"transactions"`
	Customers           int            `json:"customers"`
	SegmentDistribution map[string]int `json:"segment_distribution"`
	Duration            time.Duration  `json:"-"`
}

// Service runs the segmentation pipeline end to end.
type Service struct {
	opts     Options
	loader   *dataset.Loader
	builder  *etl.Builder
	agg      *features.Aggregator
	assigner *segmentation.Assigner

	txStore      TransactionStore
	featureStore FeatureStore
	segmentStore SegmentStore
	emitter      RunEmitter

	logger ectologger.Logger
}

// NewService wires a pipeline service. Stores and emitter may be nil; the
// run then skips persistence or event emission respectively and only writes
// the processed CSVs.
func NewService(opts Options, txStore TransactionStore, featureStore FeatureStore, segmentStore SegmentStore, emitter RunEmitter, logger ectologger.Logger) *Service {
	return &Service{
		opts:         opts,
		loader:       dataset.NewLoader(opts.RawDir, logger),
		builder:      etl.NewBuilder(logger),
		agg:          features.NewAggregator(logger),
		assigner:     segmentation.NewAssigner(opts.RFMLabels, logger),
		txStore:      txStore,
		featureStore: featureStore,
		segmentStore: segmentStore,
		emitter:      emitter,
		logger:       logger,
	}
}

// RunOptions are per-run overrides. Zero values fall back to the service
// defaults.
type RunOptions struct {
	ChurnWindowDays int
}

// Run executes one batch run and returns its summary. Stages run in order
// and single threaded; a stage error aborts the run before any downstream
// output is written.
func (s *Service) Run(ctx context.Context, runOpts RunOptions) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Service.Run")
	defer span.End()

	windowDays := s.opts.ChurnWindowDays
	if runOpts.ChurnWindowDays > 0 {
		windowDays = runOpts.ChurnWindowDays
	}

	runID := uuid.New().String()
	started := time.Now()
	log := s.logger.WithContext(ctx).WithField("run_id", runID)
	log.Info("Starting pipeline run")

	result, err := s.run(ctx, runID, windowDays)
	elapsed := time.Since(started)
	if err != nil {
		metrics.RecordPipelineRun(s.opts.TenantID, "failed", elapsed.Seconds())
		log.WithError(err).Error("Pipeline run failed")
		if s.emitter != nil {
			if emitErr := s.emitter.EmitRunFailed(ctx, s.opts.TenantID, runID, err); emitErr != nil {
				log.WithError(emitErr).Warn("Failed to emit run failure event")
			}
		}
		return nil, err
	}

	result.Duration = elapsed
	metrics.RecordPipelineRun(s.opts.TenantID, "succeeded", elapsed.Seconds())
	metrics.TransactionsBuilt.Set(float64(result.Transactions))
	metrics.CustomersSegmented.Set(float64(result.Customers))
	metrics.RecordSegmentSizes(result.SegmentDistribution)

	log.WithFields(map[string]any{
		"transactions": result.Transactions,
		"customers":    result.Customers,
		"duration_ms":  elapsed.Milliseconds(),
	}).Info("Pipeline run complete")

	return result, nil
}

func (s *Service) run(ctx context.Context, runID string, windowDays int) (*Result, error) {
	stageStart := time.Now()
	raw, err := s.loader.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	metrics.RecordStage("load", time.Since(stageStart).Seconds())

	stageStart = time.Now()
	txs, err := s.builder.Build(ctx, raw)
	if err != nil {
		return nil, err
	}
	metrics.RecordStage("build", time.Since(stageStart).Seconds())

	stageStart = time.Now()
	snapshot := features.SnapshotDate(txs)
	featureRows := s.agg.Aggregate(ctx, txs, snapshot, windowDays)
	metrics.RecordStage("aggregate", time.Since(stageStart).Seconds())

	stageStart = time.Now()
	segments := s.assigner.Apply(ctx, featureRows)
	metrics.RecordStage("segment", time.Since(stageStart).Seconds())

	stageStart = time.Now()
	if err := s.writeProcessed(txs, featureRows, segments, windowDays); err != nil {
		return nil, err
	}
	metrics.RecordStage("export", time.Since(stageStart).Seconds())

	if err := s.persist(ctx, runID, txs, featureRows, segments); err != nil {
		return nil, err
	}

	distribution := make(map[string]int)
	for _, seg := range segments {
		distribution[string(seg.SegmentName)]++
	}

	if s.emitter != nil {
		if err := s.emitter.EmitSegmentsUpdated(ctx, s.opts.TenantID, runID, snapshot, len(txs), segments, windowDays); err != nil {
			// The run's outputs are already durable; a lost event is
			// recoverable by re-running, so it does not fail the run.
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to emit segments.updated event")
		}
	}

	return &Result{
		RunID:               runID,
		SnapshotDate:        snapshot,
		Transactions:        len(txs),
		Customers:           len(featureRows),
		SegmentDistribution: distribution,
	}, nil
}

func (s *Service) writeProcessed(txs []models.Transaction, featureRows []models.CustomerFeatures, segments []models.CustomerSegment, windowDays int) error {
	outputs := []struct {
		table *dataset.Table
		file  string
	}{
		{TransactionsTable(txs), TransactionsFile},
		{FeaturesTable(featureRows, windowDays), CustomerFeaturesFile},
		{SegmentsTable(segments), CustomerSegmentsFile},
	}
	for _, out := range outputs {
		path := filepath.Join(s.opts.ProcessedDir, out.file)
		if err := out.table.WriteCSV(path); err != nil {
			return fmt.Errorf("write processed table %s: %w", out.file, err)
		}
	}
	return nil
}

func (s *Service) persist(ctx context.Context, runID string, txs []models.Transaction, featureRows []models.CustomerFeatures, segments []models.CustomerSegment) error {
	if s.txStore != nil {
		if err := s.txStore.ReplaceRun(ctx, s.opts.TenantID, runID, txs); err != nil {
			return err
		}
	}
	if s.featureStore != nil {
		if err := s.featureStore.ReplaceRun(ctx, s.opts.TenantID, runID, featureRows); err != nil {
			return err
		}
	}
	if s.segmentStore != nil {
		if err := s.segmentStore.ReplaceRun(ctx, s.opts.TenantID, runID, segments); err != nil {
			return err
		}
	}
	return nil
}

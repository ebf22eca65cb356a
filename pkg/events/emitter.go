// Package events handles event emission for pipeline run lifecycle changes
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/stem/pkg/tracing"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter handles event emission for completed pipeline runs
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitSegmentsUpdated emits a segments.updated event after a pipeline run
// replaces the segment tables. Downstream consumers refresh dashboards and
// exports off this signal.
func (e *Emitter) EmitSegmentsUpdated(ctx context.Context, tenantID string, runID string, snapshot time.Time, transactions int, segments []models.CustomerSegment, churnWindowDays int) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitSegmentsUpdated")
	defer span.End()

	distribution := make(map[string]int)
	for _, s := range segments {
		distribution[string(s.SegmentName)]++
	}

	event := &kafka.RunEvent{
		EventType:           "segments.updated",
		TenantID:            tenantID,
		RunID:               runID,
		SnapshotDate:        snapshot,
		Transactions:        transactions,
		Customers:           len(segments),
		ChurnWindowDays:     churnWindowDays,
		SegmentDistribution: distribution,
	}

	if err := e.producer.PublishRunEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit segments.updated event")
		return err
	}

	return nil
}

// EmitRunFailed emits a run.failed event so operators see broken batch runs
// without scraping logs.
func (e *Emitter) EmitRunFailed(ctx context.Context, tenantID string, runID string, runErr error) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunFailed")
	defer span.End()

	event := &kafka.RunEvent{
		EventType: "run.failed",
		TenantID:  tenantID,
		RunID:     runID,
		Error:     runErr.Error(),
	}

	if err := e.producer.PublishRunEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit run.failed event")
		return err
	}

	return nil
}

package customersegment

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/stem/pkg/database"
	"github.com/Ramsey-B/stem/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/models"
)

const insertBatchSize = 1000

// Repository handles customer segment persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new customer segment repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ReplaceRun replaces the segment table contents for a tenant with the rows
// of one pipeline run, atomically.
func (r *Repository) ReplaceRun(ctx context.Context, tenantID string, runID string, rows []models.CustomerSegment) error {
	ctx, span := tracing.StartSpan(ctx, "customersegment.Repository.ReplaceRun")
	defer span.End()

	ctx, tx, err := database.GetTx(ctx, r.logger, r.db, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom("customer_segments")
	db.Where(db.Equal("tenant_id", tenantID))

	query, args := db.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to clear customer segments for run")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace customer segments")
	}

	for start := 0; start < len(rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("customer_segments")
		sb.Cols("tenant_id", "run_id", "customer_unique_id", "recency_days", "frequency_orders", "monetary_total", "churned", "r_score", "f_score", "m_score", "rfm_score", "segment_name")
		for _, s := range rows[start:end] {
			sb.Values(tenantID, runID, s.CustomerUniqueID, s.RecencyDays, s.FrequencyOrders, s.MonetaryTotal, s.Churned, s.RScore, s.FScore, s.MScore, s.RFMScore, s.SegmentName)
		}

		query, args := sb.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": runID}).Error("Failed to insert customer segments batch")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace customer segments")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit customer segments")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"run_id": runID, "count": len(rows)}).Debug("Replaced customer segment table")
	return nil
}

// List retrieves segment rows, optionally filtered to one segment name
func (r *Repository) List(ctx context.Context, tenantID string, segment string, limit int) ([]models.CustomerSegment, error) {
	ctx, span := tracing.StartSpan(ctx, "customersegment.Repository.List")
	defer span.End()

	if limit < 1 || limit > 1000 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("customer_unique_id", "recency_days", "frequency_orders", "monetary_total", "churned", "r_score", "f_score", "m_score", "rfm_score", "segment_name")
	sb.From("customer_segments")

	where := []string{sb.Equal("tenant_id", tenantID)}
	if segment != "" {
		where = append(where, sb.Equal("segment_name", segment))
	}
	sb.Where(where...)
	sb.OrderBy("monetary_total DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var rows []models.CustomerSegment
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list customer segments")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list customer segments")
	}

	return rows, nil
}

// Summary aggregates each segment into customer count, total revenue and
// churn rate, largest segments first
func (r *Repository) Summary(ctx context.Context, tenantID string) ([]models.SegmentSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "customersegment.Repository.Summary")
	defer span.End()

	query := `
		SELECT segment_name,
			COUNT(*) AS customers,
			COALESCE(SUM(monetary_total), 0) AS revenue,
			COALESCE(AVG(CASE WHEN churned THEN 1.0 ELSE 0.0 END), 0) AS churn_rate
		FROM customer_segments
		WHERE tenant_id = $1
		GROUP BY segment_name
		ORDER BY customers DESC
	`

	var rows []models.SegmentSummary
	if err := r.db.SelectContext(ctx, &rows, query, tenantID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to summarize customer segments")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to summarize customer segments")
	}

	return rows, nil
}

package customerfeature

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/stem/pkg/database"
	"github.com/Ramsey-B/stem/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/models"
)

const insertBatchSize = 1000

// Repository handles customer feature persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new customer feature repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ReplaceRun replaces the feature table contents for a tenant with the rows
// of one pipeline run, atomically.
func (r *Repository) ReplaceRun(ctx context.Context, tenantID string, runID string, rows []models.CustomerFeatures) error {
	ctx, span := tracing.StartSpan(ctx, "customerfeature.Repository.ReplaceRun")
	defer span.End()

	ctx, tx, err := database.GetTx(ctx, r.logger, r.db, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom("customer_features")
	db.Where(db.Equal("tenant_id", tenantID))

	query, args := db.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to clear customer features for run")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace customer features")
	}

	for start := 0; start < len(rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("customer_features")
		sb.Cols("tenant_id", "run_id", "customer_unique_id", "recency_days", "frequency_orders", "monetary_total", "avg_order_value", "avg_review_score", "avg_delivery_days", "last_purchase", "churned", "churn_window_days")
		for _, f := range rows[start:end] {
			sb.Values(tenantID, runID, f.CustomerUniqueID, f.RecencyDays, f.FrequencyOrders, f.MonetaryTotal, f.AvgOrderValue, f.AvgReviewScore, f.AvgDeliveryDays, f.LastPurchase, f.Churned, f.ChurnWindowDays)
		}

		query, args := sb.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": runID}).Error("Failed to insert customer features batch")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace customer features")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit customer features")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"run_id": runID, "count": len(rows)}).Debug("Replaced customer feature table")
	return nil
}

// Get retrieves the feature row of one customer
func (r *Repository) Get(ctx context.Context, tenantID string, customerUniqueID string) (*models.CustomerFeatures, error) {
	ctx, span := tracing.StartSpan(ctx, "customerfeature.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("customer_unique_id", "recency_days", "frequency_orders", "monetary_total", "avg_order_value", "avg_review_score", "avg_delivery_days", "last_purchase", "churned", "churn_window_days")
	sb.From("customer_features")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("customer_unique_id", customerUniqueID),
	)

	query, args := sb.Build()
	var row models.CustomerFeatures
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("customer %s not found", customerUniqueID))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get customer features")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get customer features")
	}

	return &row, nil
}

// List retrieves feature rows for a tenant ordered by customer id
func (r *Repository) List(ctx context.Context, tenantID string, churned *bool, limit int) ([]models.CustomerFeatures, error) {
	ctx, span := tracing.StartSpan(ctx, "customerfeature.Repository.List")
	defer span.End()

	if limit < 1 || limit > 1000 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("customer_unique_id", "recency_days", "frequency_orders", "monetary_total", "avg_order_value", "avg_review_score", "avg_delivery_days", "last_purchase", "churned", "churn_window_days")
	sb.From("customer_features")

	where := []string{sb.Equal("tenant_id", tenantID)}
	if churned != nil {
		where = append(where, sb.Equal("churned", *churned))
	}
	sb.Where(where...)
	sb.OrderBy("customer_unique_id ASC")
	sb.Limit(limit)

	query, args := sb.Build()
	var rows []models.CustomerFeatures
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list customer features")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list customer features")
	}

	return rows, nil
}

// ListAll retrieves every feature row of a tenant, for batch scoring
func (r *Repository) ListAll(ctx context.Context, tenantID string) ([]models.CustomerFeatures, error) {
	ctx, span := tracing.StartSpan(ctx, "customerfeature.Repository.ListAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("customer_unique_id", "recency_days", "frequency_orders", "monetary_total", "avg_order_value", "avg_review_score", "avg_delivery_days", "last_purchase", "churned", "churn_window_days")
	sb.From("customer_features")
	sb.Where(sb.Equal("tenant_id", tenantID))
	sb.OrderBy("customer_unique_id ASC")

	query, args := sb.Build()
	var rows []models.CustomerFeatures
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list all customer features")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list customer features")
	}

	return rows, nil
}

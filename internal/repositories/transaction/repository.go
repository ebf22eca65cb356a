package transaction

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

// insertBatchSize keeps each INSERT under the Postgres placeholder limit.
const insertBatchSize = 1000

// Repository handles transaction table persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new transaction repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ReplaceRun replaces the transaction table contents for a tenant with the
// output of a pipeline run. The delete and inserts share one database
// transaction so readers never observe a partially loaded run.
func (r *Repository) ReplaceRun(ctx context.Context, tenantID string, runID string, txs []models.Transaction) error {
	ctx, span := tracing.StartSpan(ctx, "transaction.Repository.ReplaceRun")
	defer span.End()

	ctx, tx, err := database.GetTx(ctx, r.logger, r.db, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom("transactions")
	db.Where(db.Equal("tenant_id", tenantID))

	query, args := db.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to clear transactions for run")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace transactions")
	}

	for start := 0; start < len(txs); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(txs) {
			end = len(txs)
		}

		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("transactions")
		sb.Cols("tenant_id", "run_id", "order_id", "customer_unique_id", "order_purchase_timestamp", "order_delivered_customer_date", "revenue", "freight_value", "total_payment", "review_score", "delivery_days", "order_status")
		for _, t := range txs[start:end] {
			sb.Values(tenantID, runID, t.OrderID, t.CustomerUniqueID, t.PurchasedAt, t.DeliveredAt, t.Revenue, t.FreightValue, t.TotalPayment, t.ReviewScore, t.DeliveryDays, t.OrderStatus)
		}

		query, args := sb.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": runID}).Error("Failed to insert transactions batch")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace transactions")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transactions")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"run_id": runID, "count": len(txs)}).Debug("Replaced transaction table")
	return nil
}

// List retrieves transactions for a tenant, most recent purchases first
func (r *Repository) List(ctx context.Context, tenantID string, limit int) ([]models.Transaction, error) {
	ctx, span := tracing.StartSpan(ctx, "transaction.Repository.List")
	defer span.End()

	if limit < 1 || limit > 1000 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("order_id", "customer_unique_id", "order_purchase_timestamp", "order_delivered_customer_date", "revenue", "freight_value", "total_payment", "review_score", "delivery_days", "order_status")
	sb.From("transactions")
	sb.Where(sb.Equal("tenant_id", tenantID))
	sb.OrderBy("order_purchase_timestamp DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var txs []models.Transaction
	if err := r.db.SelectContext(ctx, &txs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list transactions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list transactions")
	}

	return txs, nil
}

// ListByCustomer retrieves all transactions of one customer
func (r *Repository) ListByCustomer(ctx context.Context, tenantID string, customerUniqueID string) ([]models.Transaction, error) {
	ctx, span := tracing.StartSpan(ctx, "transaction.Repository.ListByCustomer")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("order_id", "customer_unique_id", "order_purchase_timestamp", "order_delivered_customer_date", "revenue", "freight_value", "total_payment", "review_score", "delivery_days", "order_status")
	sb.From("transactions")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("customer_unique_id", customerUniqueID),
	)
	sb.OrderBy("order_purchase_timestamp DESC")

	query, args := sb.Build()
	var txs []models.Transaction
	if err := r.db.SelectContext(ctx, &txs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list transactions by customer")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list transactions")
	}

	return txs, nil
}

// Count returns the number of stored transactions for a tenant
func (r *Repository) Count(ctx context.Context, tenantID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "transaction.Repository.Count")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("transactions")
	sb.Where(sb.Equal("tenant_id", tenantID))

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count transactions")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count transactions")
	}

	return count, nil
}

// Package etl builds the order-level transaction table from raw exports.
package etl

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/stem/pkg/tracing"

	"github.com/Ramsey-B/clover/pkg/dataset"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/schema"
)

// Raw column names expected from the Olist exports.
const (
	ColOrderID          = "order_id"
	ColCustomerID       = "customer_id"
	ColCustomerUniqueID = "customer_unique_id"
	ColPurchaseTS       = "order_purchase_timestamp"
	ColDeliveredTS      = "order_delivered_customer_date"
	ColOrderStatus      = "order_status"
	ColPrice            = "price"
	ColFreightValue     = "freight_value"
	ColPaymentValue     = "payment_value"
	ColReviewScore      = "review_score"
)

// StatusDelivered is the only order status that survives cleaning.
const StatusDelivered = "delivered"

// Minimum required columns per raw table. Validated before any join.
var (
	requiredOrders    = []string{ColOrderID, ColCustomerID, ColPurchaseTS, ColDeliveredTS, ColOrderStatus}
	requiredItems     = []string{ColOrderID, ColPrice, ColFreightValue}
	requiredCustomers = []string{ColCustomerID, ColCustomerUniqueID}
	requiredPayments  = []string{ColOrderID, ColPaymentValue}
	requiredReviews   = []string{ColOrderID, ColReviewScore}
)

// Timestamp layouts accepted in raw exports. Values that match none parse
// to null rather than failing the build.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// Builder assembles clean one-row-per-order transactions from the five raw
// tables. Any missing required column aborts the whole build; no partial
// output is produced.
type Builder struct {
	logger ectologger.Logger
}

// NewBuilder creates a transaction builder.
func NewBuilder(logger ectologger.Logger) *Builder {
	return &Builder{logger: logger}
}

// itemAgg is the per-order roll-up of order_items.
type itemAgg struct {
	revenue float64
	freight float64
}

// Build validates the raw tables and produces the transaction table:
// delivered orders only, revenue always present, exactly one row per
// order_id, customer identity resolved to customer_unique_id.
func (b *Builder) Build(ctx context.Context, raw *dataset.RawTables) ([]models.Transaction, error) {
	ctx, span := tracing.StartSpan(ctx, "etl.Builder.Build")
	defer span.End()

	if err := validate(raw); err != nil {
		return nil, err
	}

	items := aggregateItems(raw.OrderItems)
	payments := aggregatePayments(raw.Payments)
	reviews := firstReviewScores(raw.Reviews)
	customerIDs := customerMapping(raw.Customers)

	seen := make(map[string]bool, raw.Orders.Len())
	txs := make([]models.Transaction, 0, raw.Orders.Len())

	var droppedStatus, droppedRevenue, droppedDupes int
	for i := 0; i < raw.Orders.Len(); i++ {
		orderID := raw.Orders.Value(i, ColOrderID)

		if raw.Orders.Value(i, ColOrderStatus) != StatusDelivered {
			droppedStatus++
			continue
		}

		agg, ok := items[orderID]
		if !ok {
			// No item aggregate matched: revenue is null, drop the row.
			droppedRevenue++
			continue
		}

		if seen[orderID] {
			droppedDupes++
			continue
		}
		seen[orderID] = true

		tx := models.Transaction{
			OrderID:          orderID,
			CustomerUniqueID: customerIDs[raw.Orders.Value(i, ColCustomerID)],
			Revenue:          agg.revenue,
			FreightValue:     agg.freight,
			TotalPayment:     payments[orderID],
			OrderStatus:      StatusDelivered,
		}

		if purchased, ok := parseTimestamp(raw.Orders.Value(i, ColPurchaseTS)); ok {
			tx.PurchasedAt = purchased
		}
		if delivered, ok := parseTimestamp(raw.Orders.Value(i, ColDeliveredTS)); ok {
			tx.DeliveredAt = &delivered
		}
		tx.DeliveryDays = deliveryDays(tx.PurchasedAt, tx.DeliveredAt)

		if score, ok := reviews[orderID]; ok {
			tx.ReviewScore = &score
		}

		txs = append(txs, tx)
	}

	b.logger.WithContext(ctx).WithFields(map[string]any{
		"orders_in":       raw.Orders.Len(),
		"transactions":    len(txs),
		"dropped_status":  droppedStatus,
		"dropped_revenue": droppedRevenue,
		"dropped_dupes":   droppedDupes,
	}).Info("Built transaction table")

	return txs, nil
}

func validate(raw *dataset.RawTables) error {
	checks := []struct {
		table    *dataset.Table
		required []string
	}{
		{raw.Orders, requiredOrders},
		{raw.OrderItems, requiredItems},
		{raw.Customers, requiredCustomers},
		{raw.Payments, requiredPayments},
		{raw.Reviews, requiredReviews},
	}
	for _, c := range checks {
		if err := schema.RequireColumns(c.table, c.required); err != nil {
			return err
		}
	}
	return nil
}

// aggregateItems rolls order_items up to order level: revenue = sum of
// price, freight = sum of freight_value. Unparseable cells are skipped.
func aggregateItems(items *dataset.Table) map[string]itemAgg {
	out := make(map[string]itemAgg)
	for i := 0; i < items.Len(); i++ {
		orderID := items.Value(i, ColOrderID)
		agg := out[orderID]
		if v, err := strconv.ParseFloat(items.Value(i, ColPrice), 64); err == nil {
			agg.revenue += v
		}
		if v, err := strconv.ParseFloat(items.Value(i, ColFreightValue), 64); err == nil {
			agg.freight += v
		}
		out[orderID] = agg
	}
	return out
}

func aggregatePayments(payments *dataset.Table) map[string]float64 {
	out := make(map[string]float64)
	for i := 0; i < payments.Len(); i++ {
		if v, err := strconv.ParseFloat(payments.Value(i, ColPaymentValue), 64); err == nil {
			out[payments.Value(i, ColOrderID)] += v
		}
	}
	return out
}

// firstReviewScores keeps one review score per order. Orders with multiple
// reviews keep the first seen, matching the de-dup policy of the build.
func firstReviewScores(reviews *dataset.Table) map[string]float64 {
	out := make(map[string]float64)
	for i := 0; i < reviews.Len(); i++ {
		orderID := reviews.Value(i, ColOrderID)
		if _, ok := out[orderID]; ok {
			continue
		}
		if v, err := strconv.ParseFloat(reviews.Value(i, ColReviewScore), 64); err == nil {
			out[orderID] = v
		}
	}
	return out
}

// customerMapping resolves the many-to-one customer_id -> customer_unique_id
// relation used to give each order a stable customer identity.
func customerMapping(customers *dataset.Table) map[string]string {
	out := make(map[string]string, customers.Len())
	for i := 0; i < customers.Len(); i++ {
		out[customers.Value(i, ColCustomerID)] = customers.Value(i, ColCustomerUniqueID)
	}
	return out
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// deliveryDays is the whole-day difference between delivery and purchase,
// floored like a calendar-day subtraction. Null when either side is null.
// Negative values are possible on inconsistent exports and are preserved.
func deliveryDays(purchased time.Time, delivered *time.Time) *int {
	if purchased.IsZero() || delivered == nil {
		return nil
	}
	days := int(math.Floor(delivered.Sub(purchased).Hours() / 24))
	return &days
}

// Package features collapses the transaction table to one row per customer
// and derives the proxy churn label.
package features

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/stem/pkg/tracing"

	"github.com/Ramsey-B/clover/pkg/models"
)

// SnapshotDate returns the single global reference date for a transaction
// set: the maximum purchase timestamp across all rows. All recency is
// measured against this one value, never against per-customer "now".
func SnapshotDate(txs []models.Transaction) time.Time {
	var snapshot time.Time
	for _, tx := range txs {
		if tx.PurchasedAt.After(snapshot) {
			snapshot = tx.PurchasedAt
		}
	}
	return snapshot
}

// Aggregator builds customer feature rows from transactions.
type Aggregator struct {
	logger ectologger.Logger
}

// NewAggregator creates a feature aggregator.
func NewAggregator(logger ectologger.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

type accumulator struct {
	lastPurchase time.Time
	orders       int
	monetary     float64
	reviewSum    float64
	reviewN      int
	deliverySum  float64
	deliveryN    int
}

// Aggregate groups transactions by customer_unique_id and computes the RFM
// inputs, quality signals and the churn label. The snapshot date is an
// explicit parameter so runs are reproducible and testable in isolation;
// callers normally pass SnapshotDate(txs).
//
// The churn label is strictly recency > windowDays: a customer whose last
// purchase is exactly windowDays old is not churned.
func (a *Aggregator) Aggregate(ctx context.Context, txs []models.Transaction, snapshot time.Time, windowDays int) []models.CustomerFeatures {
	ctx, span := tracing.StartSpan(ctx, "features.Aggregator.Aggregate")
	defer span.End()

	byCustomer := make(map[string]*accumulator)
	for _, tx := range txs {
		acc, ok := byCustomer[tx.CustomerUniqueID]
		if !ok {
			acc = &accumulator{}
			byCustomer[tx.CustomerUniqueID] = acc
		}
		acc.orders++
		acc.monetary += tx.Revenue
		if tx.PurchasedAt.After(acc.lastPurchase) {
			acc.lastPurchase = tx.PurchasedAt
		}
		if tx.ReviewScore != nil {
			acc.reviewSum += *tx.ReviewScore
			acc.reviewN++
		}
		if tx.DeliveryDays != nil {
			acc.deliverySum += float64(*tx.DeliveryDays)
			acc.deliveryN++
		}
	}

	rows := make([]models.CustomerFeatures, 0, len(byCustomer))
	for id, acc := range byCustomer {
		recency := wholeDays(acc.lastPurchase, snapshot)

		row := models.CustomerFeatures{
			CustomerUniqueID: id,
			RecencyDays:      recency,
			FrequencyOrders:  acc.orders,
			MonetaryTotal:    acc.monetary,
			// orders is always >= 1 by construction of the group-by; no
			// zero guard is needed here. Revisit if this aggregator is
			// ever fed rows that don't come from the group-by.
			AvgOrderValue:   acc.monetary / float64(acc.orders),
			LastPurchase:    acc.lastPurchase,
			Churned:         recency > windowDays,
			ChurnWindowDays: windowDays,
		}
		if acc.reviewN > 0 {
			avg := acc.reviewSum / float64(acc.reviewN)
			row.AvgReviewScore = &avg
		}
		if acc.deliveryN > 0 {
			avg := acc.deliverySum / float64(acc.deliveryN)
			row.AvgDeliveryDays = &avg
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CustomerUniqueID < rows[j].CustomerUniqueID
	})

	a.logger.WithContext(ctx).WithFields(map[string]any{
		"customers":    len(rows),
		"snapshot":     snapshot,
		"churn_window": windowDays,
		"churn_column": models.ChurnColumn(windowDays),
	}).Info("Built customer feature table")

	return rows
}

// wholeDays floors the day difference between from and to. Customers whose
// purchase timestamps all failed to parse have a zero last purchase and
// read as long churned, which is the conservative outcome.
func wholeDays(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

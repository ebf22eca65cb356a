package features

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func newTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestSnapshotDate(t *testing.T) {
	txs := []models.Transaction{
		{PurchasedAt: date("2018-03-01 10:00:00")},
		{PurchasedAt: date("2018-08-15 09:30:00")},
		{PurchasedAt: date("2018-05-20 14:00:00")},
	}

	assert.Equal(t, date("2018-08-15 09:30:00"), SnapshotDate(txs))
}

func TestAggregate_GroupsByCustomer(t *testing.T) {
	snapshot := date("2018-09-01 00:00:00")
	txs := []models.Transaction{
		{OrderID: "o1", CustomerUniqueID: "alice", PurchasedAt: date("2018-08-01 12:00:00"), Revenue: 100, ReviewScore: floatPtr(5), DeliveryDays: intPtr(8)},
		{OrderID: "o2", CustomerUniqueID: "alice", PurchasedAt: date("2018-08-20 12:00:00"), Revenue: 50, ReviewScore: floatPtr(3), DeliveryDays: intPtr(12)},
		{OrderID: "o3", CustomerUniqueID: "bob", PurchasedAt: date("2018-02-10 08:00:00"), Revenue: 200},
	}

	agg := NewAggregator(newTestLogger())
	rows := agg.Aggregate(context.Background(), txs, snapshot, 90)

	require.Len(t, rows, 2)
	alice, bob := rows[0], rows[1]
	require.Equal(t, "alice", alice.CustomerUniqueID, "rows should be sorted by customer id")
	require.Equal(t, "bob", bob.CustomerUniqueID)

	t.Run("alice aggregates", func(t *testing.T) {
		assert.Equal(t, 2, alice.FrequencyOrders)
		assert.Equal(t, 150.0, alice.MonetaryTotal)
		assert.Equal(t, 75.0, alice.AvgOrderValue)
		assert.Equal(t, 11, alice.RecencyDays, "recency counts from the latest purchase")
		assert.Equal(t, date("2018-08-20 12:00:00"), alice.LastPurchase)
		require.NotNil(t, alice.AvgReviewScore)
		assert.Equal(t, 4.0, *alice.AvgReviewScore)
		require.NotNil(t, alice.AvgDeliveryDays)
		assert.Equal(t, 10.0, *alice.AvgDeliveryDays)
		assert.False(t, alice.Churned)
	})

	t.Run("bob has null averages", func(t *testing.T) {
		assert.Equal(t, 1, bob.FrequencyOrders)
		assert.Nil(t, bob.AvgReviewScore)
		assert.Nil(t, bob.AvgDeliveryDays)
		assert.True(t, bob.Churned)
	})
}

func TestAggregate_ChurnBoundary(t *testing.T) {
	snapshot := date("2018-09-01 00:00:00")

	tests := []struct {
		name        string
		purchasedAt time.Time
		churned     bool
	}{
		{"exactly at the window is not churned", snapshot.AddDate(0, 0, -90), false},
		{"one day past the window is churned", snapshot.AddDate(0, 0, -91), true},
		{"purchase on the snapshot date", snapshot, false},
	}

	agg := NewAggregator(newTestLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := agg.Aggregate(context.Background(), []models.Transaction{
				{OrderID: "o1", CustomerUniqueID: "c1", PurchasedAt: tt.purchasedAt, Revenue: 10},
			}, snapshot, 90)

			require.Len(t, rows, 1)
			assert.Equal(t, tt.churned, rows[0].Churned)
		})
	}
}

func TestAggregate_RecencyFloorsPartialDays(t *testing.T) {
	snapshot := date("2018-09-01 12:00:00")
	txs := []models.Transaction{
		{OrderID: "o1", CustomerUniqueID: "c1", PurchasedAt: date("2018-08-30 18:00:00"), Revenue: 10},
	}

	rows := NewAggregator(newTestLogger()).Aggregate(context.Background(), txs, snapshot, 90)

	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].RecencyDays, "42 hours is one whole day")
}

func TestAggregate_WindowTravelsWithRows(t *testing.T) {
	snapshot := date("2018-09-01 00:00:00")
	txs := []models.Transaction{
		{OrderID: "o1", CustomerUniqueID: "c1", PurchasedAt: snapshot, Revenue: 10},
	}

	rows := NewAggregator(newTestLogger()).Aggregate(context.Background(), txs, snapshot, 60)

	require.Len(t, rows, 1)
	assert.Equal(t, 60, rows[0].ChurnWindowDays)
	assert.Equal(t, "churn_60d", models.ChurnColumn(rows[0].ChurnWindowDays))
}

func TestAggregate_Empty(t *testing.T) {
	rows := NewAggregator(newTestLogger()).Aggregate(context.Background(), nil, time.Time{}, 90)

	assert.Empty(t, rows)
}

package pipeline

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/dataset"
	"github.com/Ramsey-B/clover/pkg/models"
)

func TestFeaturesTable_RoundTrip(t *testing.T) {
	review := 4.5
	rows := []models.CustomerFeatures{
		{
			CustomerUniqueID: "u-alpha",
			RecencyDays:      12,
			FrequencyOrders:  3,
			MonetaryTotal:    250.5,
			AvgOrderValue:    83.5,
			AvgReviewScore:   &review,
			LastPurchase:     time.Date(2018, 8, 20, 12, 0, 0, 0, time.UTC),
			Churned:          false,
			ChurnWindowDays:  90,
		},
		{
			CustomerUniqueID: "u-beta",
			RecencyDays:      200,
			FrequencyOrders:  1,
			MonetaryTotal:    40,
			AvgOrderValue:    40,
			LastPurchase:     time.Date(2018, 2, 1, 8, 30, 0, 0, time.UTC),
			Churned:          true,
			ChurnWindowDays:  90,
		},
	}

	path := filepath.Join(t.TempDir(), "customer_features.csv")
	require.NoError(t, FeaturesTable(rows, 90).WriteCSV(path))

	table, err := dataset.ReadCSV(path, "customer_features")
	require.NoError(t, err)
	require.True(t, table.HasColumn("churn_90d"))

	back, err := ParseFeaturesTable(table)
	require.NoError(t, err)
	assert.Equal(t, rows, back)
}

func TestParseFeaturesTable_NoChurnColumn(t *testing.T) {
	table := dataset.New("customer_features", []string{"customer_unique_id", "recency_days"})

	_, err := ParseFeaturesTable(table)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "churn_")
}

func TestTransactionsTable_NullsAreEmptyCells(t *testing.T) {
	txs := []models.Transaction{
		{
			OrderID:          "o1",
			CustomerUniqueID: "u-alpha",
			PurchasedAt:      time.Date(2018, 8, 1, 10, 0, 0, 0, time.UTC),
			Revenue:          80,
			OrderStatus:      "delivered",
		},
	}

	table := TransactionsTable(txs)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "", table.Value(0, "order_delivered_customer_date"))
	assert.Equal(t, "", table.Value(0, "review_score"))
	assert.Equal(t, "", table.Value(0, "delivery_days"))
	assert.Equal(t, "80", table.Value(0, "revenue"))
}

func TestSegmentsTable_Columns(t *testing.T) {
	rows := []models.CustomerSegment{
		{
			CustomerUniqueID: "u-alpha",
			RecencyDays:      5,
			FrequencyOrders:  8,
			MonetaryTotal:    900,
			RScore:           4, FScore: 4, MScore: 4,
			RFMScore:    "444",
			SegmentName: models.SegmentChampions,
		},
	}

	table := SegmentsTable(rows)
	assert.Equal(t, "Champions", table.Value(0, "segment_name"))
	assert.Equal(t, "444", table.Value(0, "rfm_score"))
	assert.Equal(t, "false", table.Value(0, "churned"))
}

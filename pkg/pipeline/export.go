package pipeline

import (
	"strconv"
	"time"

	"github.com/Ramsey-B/clover/pkg/dataset"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Processed output file names.
const (
	TransactionsFile     = "transactions.csv"
	CustomerFeaturesFile = "customer_features.csv"
	CustomerSegmentsFile = "customer_segments.csv"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// TransactionsTable renders the transaction rows as a CSV-ready table.
func TransactionsTable(txs []models.Transaction) *dataset.Table {
	t := dataset.New("transactions", []string{
		"order_id", "customer_unique_id", "order_purchase_timestamp",
		"order_delivered_customer_date", "revenue", "freight_value",
		"total_payment", "review_score", "delivery_days", "order_status",
	})
	for _, tx := range txs {
		t.Append([]string{
			tx.OrderID,
			tx.CustomerUniqueID,
			tx.PurchasedAt.Format(exportTimeLayout),
			formatTimePtr(tx.DeliveredAt),
			formatFloat(tx.Revenue),
			formatFloat(tx.FreightValue),
			formatFloat(tx.TotalPayment),
			formatFloatPtr(tx.ReviewScore),
			formatIntPtr(tx.DeliveryDays),
			tx.OrderStatus,
		})
	}
	return t
}

// FeaturesTable renders the customer feature rows as a CSV-ready table. The
// churn column embeds the window in its name, e.g. churn_90d, so consumers
// can discover the window from the schema alone.
func FeaturesTable(rows []models.CustomerFeatures, windowDays int) *dataset.Table {
	t := dataset.New("customer_features", []string{
		"customer_unique_id", "recency_days", "frequency_orders",
		"monetary_total", "avg_order_value", "avg_review_score",
		"avg_delivery_days", "last_purchase", models.ChurnColumn(windowDays),
	})
	for _, r := range rows {
		t.Append([]string{
			r.CustomerUniqueID,
			strconv.Itoa(r.RecencyDays),
			strconv.Itoa(r.FrequencyOrders),
			formatFloat(r.MonetaryTotal),
			formatFloat(r.AvgOrderValue),
			formatFloatPtr(r.AvgReviewScore),
			formatFloatPtr(r.AvgDeliveryDays),
			r.LastPurchase.Format(exportTimeLayout),
			strconv.FormatBool(r.Churned),
		})
	}
	return t
}

// SegmentsTable renders the customer segment rows as a CSV-ready table.
func SegmentsTable(rows []models.CustomerSegment) *dataset.Table {
	t := dataset.New("customer_segments", []string{
		"customer_unique_id", "recency_days", "frequency_orders",
		"monetary_total", "churned", "r_score", "f_score", "m_score",
		"rfm_score", "segment_name",
	})
	for _, r := range rows {
		t.Append([]string{
			r.CustomerUniqueID,
			strconv.Itoa(r.RecencyDays),
			strconv.Itoa(r.FrequencyOrders),
			formatFloat(r.MonetaryTotal),
			strconv.FormatBool(r.Churned),
			strconv.Itoa(r.RScore),
			strconv.Itoa(r.FScore),
			strconv.Itoa(r.MScore),
			r.RFMScore,
			string(r.SegmentName),
		})
	}
	return t
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatTimePtr(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(exportTimeLayout)
}

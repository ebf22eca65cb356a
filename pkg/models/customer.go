package models

import (
	"fmt"
	"time"
)

// CustomerFeatures is one row per customer_unique_id: the RFM inputs plus
// quality and delivery signals, and the proxy churn label.
//
// The churn label is relative to the dataset snapshot date (the max purchase
// timestamp over the whole transaction set), not to wall-clock "now", so the
// label is reproducible across runs on the same dataset. The window that
// produced the label travels with the row as ChurnWindowDays instead of being
// encoded only in a column name.
type CustomerFeatures struct {
	CustomerUniqueID string    `json:"customer_unique_id" db:"customer_unique_id"`
	RecencyDays      int       `json:"recency_days" db:"recency_days"`
	FrequencyOrders  int       `json:"frequency_orders" db:"frequency_orders"`
	MonetaryTotal    float64   `json:"monetary_total" db:"monetary_total"`
	AvgOrderValue    float64   `json:"avg_order_value" db:"avg_order_value"`
	AvgReviewScore   *float64  `json:"avg_review_score,omitempty" db:"avg_review_score"`
	AvgDeliveryDays  *float64  `json:"avg_delivery_days,omitempty" db:"avg_delivery_days"`
	LastPurchase     time.Time `json:"last_purchase" db:"last_purchase"`
	Churned          bool      `json:"churned" db:"churned"`
	ChurnWindowDays  int       `json:"churn_window_days" db:"churn_window_days"`
}

// ChurnColumn returns the window-embedding column name used in CSV exports,
// e.g. "churn_90d". External consumers discover the window from the schema
// alone via the "churn_" prefix.
func ChurnColumn(windowDays int) string {
	return fmt.Sprintf("churn_%dd", windowDays)
}

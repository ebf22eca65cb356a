package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Ramsey-B/clover/pkg/dataset"
	"github.com/Ramsey-B/clover/pkg/models"
)

// ParseFeaturesTable reads customer feature rows back out of a processed
// table. The churn window is recovered from the churn_{N}d column name, so
// the file is self-describing.
func ParseFeaturesTable(t *dataset.Table) ([]models.CustomerFeatures, error) {
	churnColumn, windowDays, err := findChurnColumn(t.Columns)
	if err != nil {
		return nil, err
	}

	rows := make([]models.CustomerFeatures, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		recency, err := strconv.Atoi(t.Value(i, "recency_days"))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad recency_days: %w", i, err)
		}
		frequency, err := strconv.Atoi(t.Value(i, "frequency_orders"))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad frequency_orders: %w", i, err)
		}
		monetary, err := strconv.ParseFloat(t.Value(i, "monetary_total"), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad monetary_total: %w", i, err)
		}
		avgOrder, err := strconv.ParseFloat(t.Value(i, "avg_order_value"), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad avg_order_value: %w", i, err)
		}
		lastPurchase, err := time.Parse(exportTimeLayout, t.Value(i, "last_purchase"))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad last_purchase: %w", i, err)
		}

		row := models.CustomerFeatures{
			CustomerUniqueID: t.Value(i, "customer_unique_id"),
			RecencyDays:      recency,
			FrequencyOrders:  frequency,
			MonetaryTotal:    monetary,
			AvgOrderValue:    avgOrder,
			LastPurchase:     lastPurchase,
			Churned:          t.Value(i, churnColumn) == "true",
			ChurnWindowDays:  windowDays,
		}
		if v := t.Value(i, "avg_review_score"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad avg_review_score: %w", i, err)
			}
			row.AvgReviewScore = &f
		}
		if v := t.Value(i, "avg_delivery_days"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad avg_delivery_days: %w", i, err)
			}
			row.AvgDeliveryDays = &f
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func findChurnColumn(columns []string) (string, int, error) {
	for _, c := range columns {
		if !strings.HasPrefix(c, "churn_") || !strings.HasSuffix(c, "d") {
			continue
		}
		days, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(c, "churn_"), "d"))
		if err != nil || days <= 0 {
			continue
		}
		return c, days, nil
	}
	return "", 0, fmt.Errorf("feature table has no churn_{days}d column (columns: %s)", strings.Join(columns, ", "))
}

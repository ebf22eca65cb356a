package models

// Segment is a named customer segment derived from RFM scores.
type Segment string

const (
	SegmentChampions     Segment = "Champions"
	SegmentLoyal         Segment = "Loyal"
	SegmentNewCustomers  Segment = "New Customers"
	SegmentNeedAttention Segment = "Need Attention"
	SegmentAtRisk        Segment = "At Risk"
	SegmentHibernating   Segment = "Hibernating"
	SegmentRegular       Segment = "Regular"
)

// CustomerSegment is a feature row plus its ordinal RFM scores, composite
// code and segment name. One row per customer_unique_id per pipeline run.
type CustomerSegment struct {
	CustomerUniqueID string  `json:"customer_unique_id" db:"customer_unique_id"`
	RecencyDays      int     `json:"recency_days" db:"recency_days"`
	FrequencyOrders  int     `json:"frequency_orders" db:"frequency_orders"`
	MonetaryTotal    float64 `json:"monetary_total" db:"monetary_total"`
	Churned          bool    `json:"churned" db:"churned"`
	RScore           int     `json:"r_score" db:"r_score"`
	FScore           int     `json:"f_score" db:"f_score"`
	MScore           int     `json:"m_score" db:"m_score"`
	RFMScore         string  `json:"rfm_score" db:"rfm_score"`
	SegmentName      Segment `json:"segment_name" db:"segment_name"`
}

// SegmentSummary aggregates a segment for reporting: customer count, total
// revenue and churn rate.
type SegmentSummary struct {
	SegmentName Segment `json:"segment_name" db:"segment_name"`
	Customers   int     `json:"customers" db:"customers"`
	Revenue     float64 `json:"revenue" db:"revenue"`
	ChurnRate   float64 `json:"churn_rate" db:"churn_rate"`
}

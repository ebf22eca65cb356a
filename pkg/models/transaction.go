package models

import "time"

// Transaction is one delivered order with a resolved stable customer identity.
// It is the output of the ETL build step: raw orders joined with item, payment,
// review and customer data, filtered to clean one-row-per-order records.
type Transaction struct {
	OrderID          string     `json:"order_id" db:"order_id"`
	CustomerUniqueID string     `json:"customer_unique_id" db:"customer_unique_id"`
	PurchasedAt      time.Time  `json:"order_purchase_timestamp" db:"order_purchase_timestamp"`
	DeliveredAt      *time.Time `json:"order_delivered_customer_date,omitempty" db:"order_delivered_customer_date"`
	Revenue          float64    `json:"revenue" db:"revenue"`
	FreightValue     float64    `json:"freight_value" db:"freight_value"`
	TotalPayment     float64    `json:"total_payment" db:"total_payment"`
	ReviewScore      *float64   `json:"review_score,omitempty" db:"review_score"`
	DeliveryDays     *int       `json:"delivery_days,omitempty" db:"delivery_days"`
	OrderStatus      string     `json:"order_status" db:"order_status"`
}

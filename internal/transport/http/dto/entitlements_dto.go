package dto

import "time"

type EntitlementResponse struct {
	ID          int64     `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Category    string    `json:"category"`
	PriceID     string    `json:"price_id"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type EntitlementListResponse struct {
	Entitlements []EntitlementResponse `json:"entitlements"`
}

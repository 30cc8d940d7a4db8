package dto

type CheckoutRequest struct {
	ProductID    string `json:"product_id"`
	ReferrerCode string `json:"referrer_code,omitempty"`
}

type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
	PriceID   string `json:"price_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

type DevConfirmRequest struct {
	UserID     int64  `json:"user_id,omitempty"`
	UserEmail  string `json:"user_email,omitempty"`
	ProductID  string `json:"product_id"`
	ReferrerID int64  `json:"referrer_id,omitempty"`
}

type DevConfirmResponse struct {
	Outcome         string `json:"outcome"`
	PaymentIntentID string `json:"payment_intent_id"`
}

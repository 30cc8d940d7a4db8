package dto

type ProductResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
}

type ResolvedPriceResponse struct {
	PriceID   string `json:"price_id"`
	ProductID string `json:"product_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

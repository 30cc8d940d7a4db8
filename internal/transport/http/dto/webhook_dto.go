package dto

type WebhookAckResponse struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome,omitempty"`
}

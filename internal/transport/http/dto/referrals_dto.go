package dto

type ReferralStatsResponse struct {
	Code    string `json:"code"`
	Credits int64  `json:"credits"`
	Total   int64  `json:"total"`
	Pending int64  `json:"pending"`
}

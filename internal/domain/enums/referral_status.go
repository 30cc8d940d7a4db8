package enums

type ReferralStatus string

const (
	ReferralStatusPending  ReferralStatus = "pending"
	ReferralStatusCredited ReferralStatus = "credited"
)

package enums

type EntitlementStatus string

const (
	EntitlementStatusActive   EntitlementStatus = "active"
	EntitlementStatusRefunded EntitlementStatus = "refunded"
)

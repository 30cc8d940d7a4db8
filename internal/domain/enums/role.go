package enums

type Role string

const (
	RoleUser  Role = "USER"
	RoleOwner Role = "OWNER"
)

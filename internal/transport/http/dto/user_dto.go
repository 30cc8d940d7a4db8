package dto

type RegisterRequest struct {
	Email            string `json:"email"`
	EmploymentStatus string `json:"employment_status"`
	EmploymentOther  string `json:"employment_other"`
}

type ProfileRequest struct {
	EmploymentStatus string `json:"employment_status"`
	EmploymentOther  string `json:"employment_other"`
}

type MeResponse struct {
	ID               int64   `json:"id"`
	Email            string  `json:"email"`
	EmploymentStatus *string `json:"employment_status"`
	EmploymentOther  *string `json:"employment_other"`
	ReferralCode     *string `json:"referral_code"`
	ReferralCredits  int64   `json:"referral_credits"`
	Role             string  `json:"role"`
}

type EmploymentStatusesResponse struct {
	Statuses []string `json:"statuses"`
}

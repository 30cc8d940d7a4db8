package dto

type MagicLinkRequest struct {
	Email string `json:"email"`
}

type MagicLinkResponse struct {
	OK bool `json:"ok"`
}

type VerifyRequest struct {
	Token string `json:"token"`
}

type AuthTokensResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresInSec int64  `json:"expires_in_sec"`
	UserID       int64  `json:"user_id"`
	Role         string `json:"role"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutResponse struct {
	OK bool `json:"ok"`
}

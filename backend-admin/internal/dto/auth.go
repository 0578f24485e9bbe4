package dto

import "time"

// LoginRequest represents the tenant staff login payload
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// LoginResponse carries the issued access token
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        string    `json:"role"`
	TenantID    string    `json:"tenant_id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
}

// ActivateRequest sets the first password from an activation link
type ActivateRequest struct {
	Token                string `json:"token" form:"token" binding:"required"`
	Password             string `json:"password" form:"password" binding:"required"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation"`
}

package dto

import (
	"time"

	"github.com/spec-kit/bounty-service/internal/domain"
)

// SignupRequest payload for new accounts.
type SignupRequest struct {
	Email       string          `json:"email"`
	DisplayName string          `json:"display_name"`
	Password    string          `json:"password"`
	Role        domain.UserRole `json:"role"`
	CompanyName *string         `json:"company_name,omitempty"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PasswordResetRequest payload.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PayoutAddressRequest payload.
type PayoutAddressRequest struct {
	Address string `json:"address"`
}

// ProfileResponse is the public view of a profile. PasswordHash never leaves
// the service.
type ProfileResponse struct {
	ID            string          `json:"id"`
	Email         string          `json:"email"`
	DisplayName   string          `json:"display_name"`
	Role          domain.UserRole `json:"role"`
	CompanyName   *string         `json:"company_name,omitempty"`
	PayoutAddress *string         `json:"payout_address,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

package domain

import "time"

// Credentials is the login payload accepted by the backend.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the {token, user} envelope returned by login-like endpoints.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Registration carries the fields of a new account.
type Registration struct {
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Role                 Role   `json:"role,omitempty"`
}

// PasswordReset completes a reset started with a reset code.
type PasswordReset struct {
	Email                string `json:"email"`
	Code                 string `json:"code"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// TokenInfo is what can be learned from a session token without verifying it.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

package dto

import "time"

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Name       string `json:"name" binding:"required"`
	Password   string `json:"password" binding:"required"`
	IssueToken bool   `json:"issue_token"`
}

// LoginResponse represents the response for a successful login.
type LoginResponse struct {
	Outcome     string       `json:"outcome"`
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token,omitempty"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
}

// TokenRequest is the OAuth2 password grant form.
type TokenRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// TokenResponse is the OAuth2 token response.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

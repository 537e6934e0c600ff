package domain

import (
	"context"
	"time"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult carries the raw session token exactly once, for the cookie.
type LoginResult struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Authenticate(ctx context.Context, token string) (*Session, error)
	Logout(ctx context.Context, token string) error

	// EnsureUser creates the account when it does not exist yet. Used to
	// seed the first operator from the environment.
	EnsureUser(ctx context.Context, username, password string) error
}

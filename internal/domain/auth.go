package domain

import "time"

// Identity is the caller identity carried explicitly through service calls.
type Identity struct {
	UserID string
	Role   Role
	Email  string
}

// Token describes an issued access token.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

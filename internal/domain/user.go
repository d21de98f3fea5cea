package domain

import "time"

// Role grants access levels to authenticated callers.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// User is the domain model for accounts that file and work tickets.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	Name         string
	CreatedAt    time.Time
}

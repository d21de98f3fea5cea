package domain

import "time"

// AnonymousScope scopes idempotency keys sent without an identity.
const AnonymousScope = "anonymous"

// IdempotencyRecord stores the first successful response for a key.
type IdempotencyRecord struct {
	ID          string
	Scope       string
	Key         string
	UserID      *string
	Method      string
	Route       string
	RequestHash string
	StatusCode  int
	ContentType string
	Response    []byte
	CreatedAt   time.Time
}

// Matches reports whether another request may replay this record.
func (r *IdempotencyRecord) Matches(method, route, requestHash string) bool {
	return r.Method == method && r.Route == route && r.RequestHash == requestHash
}

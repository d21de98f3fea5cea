package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// MaxIdempotencyKeyLength bounds client supplied keys.
const MaxIdempotencyKeyLength = 255

// IdempotentRequest identifies a key-bearing write.
type IdempotentRequest struct {
	Key    string
	UserID *string
	Method string
	Route  string
	Body   []byte
}

// CapturedResponse is the response a handler produced, as stored for replay.
type CapturedResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// ResponseProducer runs the wrapped handler and returns what it wrote.
type ResponseProducer func(ctx context.Context) (*CapturedResponse, error)

// IdempotencyCache replays the first successful response for a key.
type IdempotencyCache struct {
	records repository.IdempotencyRepository
	clock   clockwork.Clock
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewIdempotencyCache builds the cache.
func NewIdempotencyCache(records repository.IdempotencyRepository, clock clockwork.Clock, logger *zap.Logger, metrics *observability.Metrics) *IdempotencyCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdempotencyCache{records: records, clock: clock, logger: logger, metrics: metrics}
}

// Fingerprint hashes a request body.
func Fingerprint(body []byte) string {
	sum := blake3.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Scope returns the namespace a key lives in.
func Scope(userID *string) string {
	if userID == nil || *userID == "" {
		return domain.AnonymousScope
	}
	return *userID
}

// Intercept runs produce at most once per (scope, key) and replays the
// stored response afterwards. replayed reports whether produce was skipped
// or its result replaced by a concurrent winner.
func (c *IdempotencyCache) Intercept(ctx context.Context, req IdempotentRequest, produce ResponseProducer) (*CapturedResponse, bool, error) {
	if req.Key == "" {
		resp, err := produce(ctx)
		return resp, false, err
	}
	if len(req.Key) > MaxIdempotencyKeyLength {
		return nil, false, apperrors.NewValidationError("Idempotency-Key is too long", map[string]any{
			"max_length": MaxIdempotencyKeyLength,
		})
	}

	scope := Scope(req.UserID)
	hash := Fingerprint(req.Body)

	existing, err := c.records.Get(ctx, scope, req.Key)
	switch {
	case err == nil:
		return c.replay(existing, req, hash)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, fmt.Errorf("lookup idempotency key: %w", err)
	}

	resp, err := produce(ctx)
	if err != nil {
		return nil, false, err
	}
	if resp == nil || resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp, false, nil
	}

	record := &domain.IdempotencyRecord{
		Scope:       scope,
		Key:         req.Key,
		UserID:      req.UserID,
		Method:      req.Method,
		Route:       req.Route,
		RequestHash: hash,
		StatusCode:  resp.StatusCode,
		ContentType: resp.ContentType,
		Response:    resp.Body,
		CreatedAt:   c.clock.Now().UTC(),
	}
	// Insert detached from the request context; the write already happened.
	insertErr := c.records.Create(context.WithoutCancel(ctx), record)
	if insertErr == nil {
		return resp, false, nil
	}
	if !errors.Is(insertErr, repository.ErrDuplicate) {
		c.logger.Warn("failed to store idempotent response",
			zap.String("scope", scope),
			zap.String("key", req.Key),
			zap.Error(insertErr),
		)
		return resp, false, nil
	}

	// A concurrent request with the same key won the insert.
	winner, err := c.records.Get(context.WithoutCancel(ctx), scope, req.Key)
	if err != nil {
		return nil, false, fmt.Errorf("reload idempotency key: %w", err)
	}
	return c.replay(winner, req, hash)
}

func (c *IdempotencyCache) replay(record *domain.IdempotencyRecord, req IdempotentRequest, hash string) (*CapturedResponse, bool, error) {
	if !record.Matches(req.Method, req.Route, hash) {
		return nil, false, apperrors.NewKeyReuseConflict(req.Key)
	}
	c.metrics.RecordIdempotencyReplay()
	return &CapturedResponse{
		StatusCode:  record.StatusCode,
		ContentType: record.ContentType,
		Body:        record.Response,
	}, true, nil
}

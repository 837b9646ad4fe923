package actionlog

import (
	"context"
	"time"

	"github.com/voltonic/campusgrid/core/logger"
	"github.com/voltonic/campusgrid/core/model"
)

// RetryStore wraps a Store with bounded-backoff retries on Append. Control
// decisions must not depend on logging success, so exhausted retries are
// surfaced to the logger and the error returned for observability only.
type RetryStore struct {
	Store
	retries int
	backoff time.Duration
	log     logger.Logger
}

// NewRetryStore wraps inner with the given retry budget. Non-positive
// values default to 3 retries and 50ms initial backoff.
func NewRetryStore(inner Store, retries int, backoff time.Duration, log logger.Logger) *RetryStore {
	if retries <= 0 {
		retries = 3
	}
	if backoff <= 0 {
		backoff = 50 * time.Millisecond
	}
	return &RetryStore{Store: inner, retries: retries, backoff: backoff, log: log}
}

// Append retries the inner append with exponential backoff.
func (s *RetryStore) Append(ctx context.Context, e model.ActionEntry) error {
	wait := s.backoff
	var err error
	for attempt := 0; attempt < s.retries; attempt++ {
		if err = s.Store.Append(ctx, e); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		wait *= 2
	}
	if s.log != nil {
		s.log.Errorf("action log append failed after %d attempts: %v", s.retries, err)
	}
	return err
}

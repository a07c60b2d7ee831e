package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrAllProvidersFailed is returned when every attempt in a chain failed.
var ErrAllProvidersFailed = errors.New("all providers failed")

// Attempt is one provider call in a fallback chain. Valid, when set, decides whether a
// result without an error still counts as a success.
type Attempt[T any] struct {
	Provider string
	Fetch    func(ctx context.Context) (T, error)
	Valid    func(T) bool
}

// AttemptError records why a provider in a chain was skipped.
type AttemptError struct {
	Provider string
	Err      error
}

func (e AttemptError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e AttemptError) Unwrap() error { return e.Err }

var errRejected = errors.New("result rejected")

// FirstOf runs attempts in order and returns the first valid result. Attempts are never
// retried and a failure does not affect later calls. A cancelled context stops the chain.
func FirstOf[T any](ctx context.Context, attempts ...Attempt[T]) (T, []AttemptError, error) {
	var zero T
	logger := zerolog.Ctx(ctx)
	failures := make([]AttemptError, 0, len(attempts))

	for _, a := range attempts {
		if err := ctx.Err(); err != nil {
			return zero, failures, err
		}

		v, err := a.Fetch(ctx)
		if err == nil && a.Valid != nil && !a.Valid(v) {
			err = errRejected
		}
		if err == nil {
			if len(failures) > 0 {
				logger.Debug().Str("provider", a.Provider).Int("skipped", len(failures)).Msg("fallback provider answered")
			}
			return v, failures, nil
		}

		logger.Warn().Str("provider", a.Provider).Err(err).Msg("provider attempt failed")
		failures = append(failures, AttemptError{Provider: a.Provider, Err: err})
	}

	return zero, failures, ErrAllProvidersFailed
}

// withTimeout bounds each call of fn by timeout. A zero timeout leaves fn as is.
func withTimeout[T any](timeout time.Duration, fn func(ctx context.Context) (T, error)) func(ctx context.Context) (T, error) {
	if timeout <= 0 {
		return fn
	}
	return func(ctx context.Context) (T, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return fn(ctx)
	}
}

package application

import (
	"context"
	"time"

	"github.com/bnema/anicord/internal/ports"
)

const (
	DefaultRetryAttempts = 5
	DefaultRetryDelay    = time.Second
)

// RetryPolicy retries an operation a fixed number of times with a fixed delay.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: DefaultRetryAttempts, Delay: DefaultRetryDelay}
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// attempts are exhausted. It returns the number of attempts made and the last
// error. Once ctx is done the context error is returned instead.
func (p RetryPolicy) Do(ctx context.Context, clock ports.Clock, retryable func(error) bool, fn func(context.Context) error) (int, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return attempt - 1, ctxErr
		}

		err = fn(ctx)
		if err == nil {
			return attempt, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return attempt, ctxErr
		}
		if !retryable(err) {
			return attempt, err
		}
		if attempt == attempts {
			return attempt, err
		}

		if sleepErr := clock.Sleep(ctx, p.Delay); sleepErr != nil {
			return attempt, sleepErr
		}
	}

	return attempts, err
}

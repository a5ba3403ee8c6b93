package action

import (
	"context"
	"errors"
	"time"
)

type RetryPolicyType string

const (
	RETRY_POLICY_NONE    RetryPolicyType = "none"
	RETRY_POLICY_FIXED   RetryPolicyType = "fixed"
	RETRY_POLICY_BACKOFF RetryPolicyType = "backoff"
)

// RetryPolicy decides whether a failed attempt is retried and after how long.
// attempt starts at 1.
type RetryPolicy interface {
	Next(attempt int, err error) (time.Duration, bool)
}

type NoRetry struct{}

func (NoRetry) Next(int, error) (time.Duration, bool) {
	return 0, false
}

type FixedRetry struct {
	Attempts int
	Delay    time.Duration
}

func (r FixedRetry) Next(attempt int, err error) (time.Duration, bool) {
	if !retryable(err) || attempt >= r.Attempts {
		return 0, false
	}
	return r.Delay, true
}

type BackoffRetry struct {
	Attempts int
	Delay    time.Duration
}

func (r BackoffRetry) Next(attempt int, err error) (time.Duration, bool) {
	if !retryable(err) || attempt >= r.Attempts {
		return 0, false
	}
	return r.Delay * time.Duration(attempt), true
}

func NewRetryPolicy(policy RetryPolicyType, attempts int, delay time.Duration) RetryPolicy {
	switch policy {
	case RETRY_POLICY_FIXED:
		return FixedRetry{Attempts: attempts, Delay: delay}
	case RETRY_POLICY_BACKOFF:
		return BackoffRetry{Attempts: attempts, Delay: delay}
	default:
		return NoRetry{}
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var validation ParamError
	return !errors.As(err, &validation)
}

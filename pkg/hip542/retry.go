package hip542

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func (policy RetryPolicy) withDefaults() RetryPolicy {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = DefaultRetryPolicy.InitialInterval
	}
	if policy.MaxInterval < policy.InitialInterval {
		policy.MaxInterval = policy.InitialInterval
		if DefaultRetryPolicy.MaxInterval > policy.MaxInterval {
			policy.MaxInterval = DefaultRetryPolicy.MaxInterval
		}
	}
	return policy
}

func (policy RetryPolicy) backOff(ctx context.Context) backoff.BackOffContext {
	policy = policy.withDefaults()

	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = policy.InitialInterval
	exponential.MaxInterval = policy.MaxInterval
	exponential.MaxElapsedTime = 0
	exponential.Reset()

	return backoff.WithContext(
		backoff.WithMaxRetries(exponential, uint64(policy.MaxAttempts-1)),
		ctx,
	)
}

// retryWhile repeats lookup while retryable reports true for its error, up to
// the policy. Any other error stops immediately. The last error is returned
// once attempts run out, or ctx.Err() if the context ended first.
func retryWhile(
	ctx context.Context,
	policy RetryPolicy,
	lookup func() error,
	retryable func(error) bool,
	notify func(err error, wait time.Duration),
) error {
	operation := func() error {
		err := lookup()
		if err == nil || retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	return backoff.RetryNotify(operation, policy.backOff(ctx), notify)
}

package dispatch

import "time"

const (
	DefaultMaxAttempts   = 3
	DefaultBaseDelay     = 30 * time.Second
	DefaultBackoffFactor = 2
	defaultMaxDelay      = 15 * time.Minute
)

// RetryPolicy decides whether another delivery attempt is worth making and
// how long to wait before it. It is a pure value: the same inputs always
// produce the same answer.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Factor      int
	MaxDelay    time.Duration
}

// DefaultRetryPolicy returns the stock policy: 3 attempts, 30s base delay,
// doubling per attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Factor:      DefaultBackoffFactor,
		MaxDelay:    defaultMaxDelay,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.Factor < 1 {
		p.Factor = DefaultBackoffFactor
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}
	return p
}

// Next returns the backoff delay before the attempt following attemptsMade,
// where attemptsMade counts delivery attempts already completed, including
// the one that just failed. The second return value is false once the
// attempt budget is exhausted.
//
// Delays grow exponentially: base * factor^(attemptsMade-1), capped at
// MaxDelay. With the defaults the sequence is 30s after the first failure
// and 60s after the second; the third failure exhausts the budget.
func (p RetryPolicy) Next(attemptsMade int) (time.Duration, bool) {
	p = p.normalized()

	if attemptsMade >= p.MaxAttempts {
		return 0, false
	}
	if attemptsMade < 1 {
		attemptsMade = 1
	}

	delay := p.BaseDelay
	for i := 1; i < attemptsMade; i++ {
		delay *= time.Duration(p.Factor)
		if delay >= p.MaxDelay {
			return p.MaxDelay, true
		}
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	return delay, true
}

package backoff

import "time"

// Strategy calculates the delay before a retry. Implementations must be
// safe for concurrent use.
type Strategy interface {
	// NextInterval returns the delay before the given retry.
	// Attempt starts at 1 for the first retry.
	NextInterval(attempt int) time.Duration
}

// Exponential doubles the delay on every retry: Base * 2^(attempt-1).
// No jitter and no cap; callers bound the number of attempts instead.
type Exponential struct {
	Base time.Duration
}

func (e Exponential) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return e.Base << uint(attempt-1)
}

// Fixed returns the same delay for every retry.
type Fixed struct {
	Interval time.Duration
}

func (f Fixed) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}

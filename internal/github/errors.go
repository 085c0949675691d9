package github

import (
	"fmt"
	"time"
)

// SearchError is a failed repository search that was not rate limited
type SearchError struct {
	StatusCode int
	Query      string
	Err        error
}

func (e *SearchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("search %q failed: %v", e.Query, e.Err)
	}
	return fmt.Sprintf("search %q failed with status %d: %v", e.Query, e.StatusCode, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// RateLimitError means the search quota is spent until Reset
type RateLimitError struct {
	Reset     time.Time
	Limit     int
	Remaining int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("search rate limit exceeded (%d/%d left), resets at %s",
		e.Remaining, e.Limit, e.Reset.Format(time.RFC3339))
}

// RetryAfter returns how long until the quota resets, never negative
func (e *RateLimitError) RetryAfter(now time.Time) time.Duration {
	if d := e.Reset.Sub(now); d > 0 {
		return d
	}
	return 0
}

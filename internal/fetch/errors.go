package fetch

import (
	"fmt"

	"webpeel/internal/challenge"
)

// BlockedError reports a challenge verdict at the top strategy tier or
// a block-status response carrying bot-protection signals.
type BlockedError struct {
	URL     string
	Status  int
	Verdict challenge.Verdict
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("fetch blocked: %s (status %d, %s)", e.URL, e.Status, e.Verdict.Type)
}

// TimeoutError reports that the request deadline elapsed.
type TimeoutError struct {
	URL string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("fetch timed out: %s", e.URL)
}

// NetworkError reports a DNS, TCP, or TLS failure.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// BadStatusError reports a non-retryable HTTP error status.
type BadStatusError struct {
	URL    string
	Status int
}

func (e *BadStatusError) Error() string {
	return fmt.Sprintf("bad status %d fetching %s", e.Status, e.URL)
}

// DisallowedError reports a robots.txt denial when robots respect is on.
type DisallowedError struct {
	URL string
}

func (e *DisallowedError) Error() string {
	return fmt.Sprintf("robots.txt disallows fetching %s", e.URL)
}

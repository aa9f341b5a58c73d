package preview

import (
	"errors"
	"fmt"
)

// Kind classifies fetch failures.
type Kind string

const (
	KindInvalidURL    Kind = "invalid_url"
	KindRateLimited   Kind = "rate_limited"
	KindUpstreamFetch Kind = "upstream_fetch"
	KindTimeout       Kind = "timeout"
)

// Error is returned by Fetcher for every failure.
type Error struct {
	Kind Kind
	// Status is the upstream HTTP status for KindUpstreamFetch, 0 when the
	// request never produced a response.
	Status        int
	RetryAfter    int
	QueuePosition int
	Err           error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindUpstreamFetch && e.Status > 0:
		return fmt.Sprintf("preview %s: upstream status %d", e.Kind, e.Status)
	case e.Kind == KindRateLimited:
		return fmt.Sprintf("preview %s: retry after %ds", e.Kind, e.RetryAfter)
	case e.Err != nil:
		return fmt.Sprintf("preview %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("preview %s", e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// SafeMessage is the text shown to users. It never includes upstream detail.
func (e *Error) SafeMessage() string {
	switch e.Kind {
	case KindInvalidURL:
		return "Please enter a valid http or https URL."
	case KindRateLimited:
		return fmt.Sprintf("Too many preview requests. Please try again in %d seconds.", e.RetryAfter)
	case KindTimeout:
		return "The site took too long to respond. Please try again."
	default:
		return "Could not load a preview for this link. Please try again."
	}
}

// AsError extracts a preview error from err.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

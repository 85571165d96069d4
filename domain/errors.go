package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("Internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrInvalidInput will throw if the given request-body or params is not valid
	ErrInvalidInput = errors.New("Given Param is not valid")
	// ErrUnauthorized will throw if the upstream rejects our api key
	ErrUnauthorized = errors.New("Unauthorized")
	// ErrRateLimited will throw if the upstream answers 429
	ErrRateLimited = errors.New("Rate limited by upstream")
	// ErrNetwork will throw if no response was received at all
	ErrNetwork = errors.New("Network error")
	// ErrDecode marks an unparseable model response. It stays inside the
	// prediction service, the fallback generator absorbs it.
	ErrDecode = errors.New("Unparseable model response")

	// ErrUpstream matches any *UpstreamError under errors.Is
	ErrUpstream = errors.New("Upstream error")

	ErrInvalidAddress = errors.New("Invalid address")
	ErrInvalidTokenId = errors.New("Invalid token id")
	ErrInvalidURL     = errors.New("Invalid marketplace url")
)

// UpstreamError carries status code and body of an unexpected non-2xx
// upstream response for diagnostics.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

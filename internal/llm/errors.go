package llm

import "errors"

var (
	// ErrUpstreamRateLimit reports the provider's own 429. Surfaced to
	// callers as RATE_LIMIT, distinct from this service's quota denial.
	ErrUpstreamRateLimit = errors.New("llm: upstream rate limited")

	// ErrUpstreamAuth covers 401/403 from the provider. Never retried.
	ErrUpstreamAuth = errors.New("llm: upstream authentication failed")

	// ErrEmptyResponse means the provider answered with no usable content.
	ErrEmptyResponse = errors.New("llm: empty response")

	// ErrUnparseable means the content did not match the expected JSON
	// shape for the feature.
	ErrUnparseable = errors.New("llm: unparseable response")
)

// retryable reports whether a completion error is worth another attempt.
// Auth and rate-limit class failures are terminal for the request.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUpstreamRateLimit) || errors.Is(err, ErrUpstreamAuth) {
		return false
	}
	if errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrUnparseable) {
		return false
	}
	return true
}

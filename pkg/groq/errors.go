package groq

import "errors"

// Error categories the caller can branch on. The message pipeline maps each
// category to a distinct user-facing reply.
var (
	// ErrRateLimited indicates the API rejected the request with 429.
	ErrRateLimited = errors.New("groq: rate limited")

	// ErrAuth indicates an invalid or missing API key (401/403).
	ErrAuth = errors.New("groq: authentication failed")

	// ErrEmptyCompletion indicates the API returned no usable choice.
	ErrEmptyCompletion = errors.New("groq: empty completion")
)

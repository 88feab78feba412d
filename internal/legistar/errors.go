package legistar

import "fmt"

// AuthError means the upstream rejected credentials (401/403). Never
// retried: the token is missing, wrong, or insufficient.
type AuthError struct {
	StatusCode int
	URL        string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("legistar rejected credentials (status %d) for %s: check the API token", e.StatusCode, e.URL)
}

// UpstreamError means the upstream signalled a non-transient
// misconfiguration, typically a 404 for a wrong city code or endpoint
// path. Never retried.
type UpstreamError struct {
	StatusCode int
	URL        string
	Detail     string
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("legistar upstream error (status %d) for %s", e.StatusCode, e.URL)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// NetworkError covers transport failures, timeouts, and 5xx responses.
// Safe to retry a bounded number of times.
type NetworkError struct {
	Err        error
	StatusCode int
	URL        string
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("legistar request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("legistar request to %s failed with status %d", e.URL, e.StatusCode)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Retryable marks the error transient for the retry layer.
func (e *NetworkError) Retryable() bool { return true }

package spotify

import "fmt"

// APIError is returned for any non-2xx response from the Spotify Web API.
// It carries enough detail for logging; callers decide whether to retry.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify api error: status=%d %s body=%s", e.StatusCode, e.Status, e.Body)
}

// TokenRefreshError is returned when the token endpoint rejects a
// refresh_token grant. It is never retried here; the caller's retry
// policy governs.
type TokenRefreshError struct {
	StatusCode int
	Body       string
}

func (e *TokenRefreshError) Error() string {
	return fmt.Sprintf("spotify token refresh failed: status=%d body=%s", e.StatusCode, e.Body)
}

package authapi

import "fmt"

// AuthError is returned when the token service rejects an exchange or an
// identity lookup. Status carries the HTTP status of the rejection so
// callers can dispatch on it without string matching.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authapi: %s (status %d)", e.Message, e.Status)
}

// TransportError is returned for non-2xx responses that carry no recognizable
// auth semantics.
type TransportError struct {
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("authapi: HTTP %d: %s", e.Status, e.Body)
}

// errorBody is the union of error shapes the token service produces across
// its endpoints.
type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Detail           string `json:"detail"`
}

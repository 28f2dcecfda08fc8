package auth

import "fmt"

// AuthError reports a rejected or malformed credential exchange. The stored
// token is wiped before it is returned.
type AuthError struct {
	// StatusCode is the HTTP status of the token endpoint response, or zero
	// when the response arrived but could not be used as a token
	StatusCode int

	// Detail carries the token endpoint's response body or the parse failure
	Detail string
}

func (e *AuthError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("token exchange returned an unusable response: %s", e.Detail)
	}
	return fmt.Sprintf("token exchange rejected with status %d: %s", e.StatusCode, e.Detail)
}

// NetworkError reports a token exchange that received no response at all,
// as opposed to a rejection.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("token exchange received no response: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrSessionEnded matches every *SessionEndedError. Callers send the user back to sign in.
var ErrSessionEnded = errors.New("apiclient: session ended, sign in again")

// ErrSessionChanged is the cause of a *SessionEndedError when the session was signed out
// or replaced while a refresh was in flight. The renewed pair is discarded.
var ErrSessionChanged = errors.New("apiclient: session changed during refresh")

// StatusError is a non-2xx API response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("apiclient: %s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("apiclient: %s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// SessionEndedError reports that the session is gone because credentials could not be renewed.
// Cause is the refresh failure, the original 401 when no refresh credential existed,
// or ErrSessionChanged.
type SessionEndedError struct {
	Cause error
}

func (e *SessionEndedError) Error() string {
	return "apiclient: session ended: " + e.Cause.Error()
}

func (e *SessionEndedError) Unwrap() error { return e.Cause }

func (e *SessionEndedError) Is(target error) bool { return target == ErrSessionEnded }

// StatusCode extracts the HTTP status of a *StatusError anywhere in err's chain.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}

func isExpired(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}

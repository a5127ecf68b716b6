package session

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/abelbrown/snooze/internal/api"
)

// AuthKind classifies an authentication failure.
type AuthKind int

const (
	InvalidCredentials AuthKind = iota
	NetworkFailure
	UsernameTaken
)

func (k AuthKind) String() string {
	switch k {
	case InvalidCredentials:
		return "invalid credentials"
	case NetworkFailure:
		return "network failure"
	case UsernameTaken:
		return "username taken"
	default:
		return fmt.Sprintf("AuthKind(%d)", int(k))
	}
}

// AuthError is returned by Authenticate and Signup when the service rejects
// the credentials or cannot be reached.
type AuthError struct {
	Kind AuthKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "auth: " + e.Kind.String()
	}
	return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuthKind reports whether err is an AuthError of kind k.
func IsAuthKind(err error, k AuthKind) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Kind == k
}

// classifyAuth maps a client error from login or signup. Server faults (5xx)
// stay ServiceErrors; they say nothing about the credentials.
func classifyAuth(err error) error {
	if api.IsNetwork(err) {
		return &AuthError{Kind: NetworkFailure, Err: err}
	}
	switch status := api.StatusOf(err); {
	case status == http.StatusConflict:
		return &AuthError{Kind: UsernameTaken, Err: err}
	case status >= 400 && status < 500:
		return &AuthError{Kind: InvalidCredentials, Err: err}
	}
	return err
}

// PersistError means the in-memory change took effect but the preference
// store could not be written. The next restore may still see the old list.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return "save preferences: " + e.Err.Error()
}

func (e *PersistError) Unwrap() error { return e.Err }

// IsPersistError reports whether err only failed to reach the preference
// store.
func IsPersistError(err error) bool {
	var pe *PersistError
	return errors.As(err, &pe)
}

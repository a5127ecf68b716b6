package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ServiceError is any non-success HTTP response from the story service.
type ServiceError struct {
	Status     int
	StatusText string
	Message    string // server-provided detail, may be empty
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("story service: %d %s: %s", e.Status, e.StatusText, e.Message)
	}
	return fmt.Sprintf("story service: %d %s", e.Status, e.StatusText)
}

// NetworkError is a transport failure: the request never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

func newServiceError(status int, body []byte) *ServiceError {
	se := &ServiceError{Status: status, StatusText: http.StatusText(status)}
	var payload errorPayload
	if len(body) > 0 && decodeJSON(body, &payload) == nil {
		se.Message = payload.Error.Message
	}
	return se
}

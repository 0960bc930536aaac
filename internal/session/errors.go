package session

import (
	"errors"
	"fmt"
)

// MsgCredentialsUnavailable is shown when the token service returns nothing.
const MsgCredentialsUnavailable = "Failed to fetch connection details - check sandbox ID"

var (
	ErrCredentialsUnavailable = errors.New("connection details unavailable")
	ErrConnectionFailed       = errors.New("connection failed")
	ErrAttemptInProgress      = errors.New("connection attempt already in progress")
	ErrEmptyIdentifier        = errors.New("room and participant names must not be empty")
	ErrNotConnected           = errors.New("not connected")
	ErrAlreadyConnected       = errors.New("already connected to a room")
)

type SessionError struct {
	Op      string
	Err     error
	Details string
}

func (e *SessionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *SessionError {
	return &SessionError{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *SessionError {
	return &SessionError{Op: op, Err: err, Details: details}
}

// connectionErrorMessage renders a failure the way the prompt shows it.
func connectionErrorMessage(err error) string {
	return "Connection error: " + err.Error()
}

package service

import "errors"

// Domain errors. Handlers map them to status codes.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username or email already registered")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTaskNotFound       = errors.New("task not found")
	ErrInvalidTask        = errors.New("invalid task")
	ErrInvalidTimeRange   = errors.New("invalid time range: from must be <= to")
)

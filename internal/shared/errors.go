package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidToken indicates a missing, expired or malformed bearer token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInactiveUser occurs when a deactivated user presents a valid token.
	ErrInactiveUser = errors.New("user inactive")
)

package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a referenced account, user or session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDocumentNotFound is returned by document stores for a missing id.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDocumentConflict is returned when creating a document whose id is taken.
	ErrDocumentConflict = errors.New("document already exists")

	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrEmailTaken         = errors.New("an account with this email already exists")
)

// RemoteError describes a failed call to the backing document store.
type RemoteError struct {
	Op   string // store operation, e.g. "createDocument"
	Code string // backend specific code (SQLSTATE for postgres)
	Type string // backend kind
	Err  error
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s): %v", e.Type, e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

package service

import "errors"

// Sentinel errors shared across services. Handlers map these onto the
// response error codes; nothing in the core retries automatically.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrNotOwner            = errors.New("assignment belongs to another instructor")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailTaken          = errors.New("email already registered")
	ErrDuplicateSubmission = errors.New("submission token already consumed")
	ErrEmptyBank           = errors.New("question bank is empty")
	ErrIdentityRequired    = errors.New("user id or full name is required")
)

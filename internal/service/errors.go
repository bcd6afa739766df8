package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAlreadyCompleted   = errors.New("shopping list already completed")
	ErrNothingToComplete  = errors.New("no completed items to move into the pantry")
	ErrAlreadyMember      = errors.New("user already belongs to a family")
	ErrNotMember          = errors.New("user does not belong to a family")
	ErrLLMNotConfigured   = errors.New("LLM API key is not configured")
	ErrEmptyCompletion    = errors.New("LLM returned empty content")
	ErrUnexpectedShape    = errors.New("LLM response has an unexpected shape")
	ErrStorageUnavailable = errors.New("report storage is not configured")
)

// ValidationError describes one rejected input field. It matches ErrValidation
// under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Input errors.
	ErrValidation = errors.New("validation failed")

	// Ledger errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateCategory = errors.New("a category with this name and type already exists")
	ErrCategoryInUse     = errors.New("category is still referenced by transactions")

	// Backend errors.
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrNotAuthenticated   = errors.New("not authenticated")

	// Backup errors.
	ErrInvalidBackup = errors.New("invalid backup file")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidationError describes malformed input rejected before any storage call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// UserMessage maps an error from the ledger to the message shown to the user.
func UserMessage(err error) string {
	var userErr *UserError
	var validationErr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &userErr):
		return userErr.UserMessage
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.Is(err, ErrDuplicateCategory):
		return "Já existe uma categoria com este nome e tipo"
	case errors.Is(err, ErrCategoryInUse):
		return "A categoria possui transações vinculadas"
	case errors.Is(err, ErrNotAuthenticated):
		return "Usuário não autenticado"
	case errors.Is(err, ErrStorageUnavailable):
		return "Não foi possível acessar o armazenamento local"
	case errors.Is(err, ErrNotFound):
		return "Registro não encontrado"
	default:
		return err.Error()
	}
}

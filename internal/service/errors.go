package service

import "errors"

var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("this short URL already exists")
	ErrNotFound       = errors.New("not found")
	ErrTransientStore = errors.New("store temporarily unavailable")
)

// ValidationError describes the first invalid input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrCoverImageRequired   = errors.New("cover image is required")
	ErrCoverImageInvalid    = errors.New("cover image must be an image file")
	ErrCoverUploadFailed    = errors.New("image upload failed")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrAuthNotConfigured    = errors.New("admin login is not configured")
	ErrUnsupportedMediaKind = errors.New("unsupported media kind")
)

// ValidationError reports one message per offending request field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

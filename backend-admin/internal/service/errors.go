package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidActivation  = errors.New("activation link is invalid or was already used")
	ErrActivationExpired  = errors.New("activation link has expired")
	ErrPropertyNotFound   = errors.New("property not found")
	ErrPropertyCodeTaken  = errors.New("property code already exists")
	ErrContactNotFound    = errors.New("contact not found")
	ErrImageNotFound      = errors.New("image not found")
	ErrUnsupportedImage   = errors.New("only jpeg, png, webp and gif images are accepted")
	ErrImageTooLarge      = errors.New("image exceeds the maximum upload size")
	ErrEmptyUpload        = errors.New("uploaded file is empty")
)

// ValidationError carries field-level validation failures
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns nil when fields is empty
func NewValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
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

// AsValidationError unwraps a *ValidationError
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

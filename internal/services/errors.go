package services

import (
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries one message per offending input field.
type ValidationError struct {
	Fields map[string]string
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

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// notFound maps a missing row to ErrNotFound and passes everything else on.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

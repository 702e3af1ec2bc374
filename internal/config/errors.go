package config

import (
	"errors"
	"fmt"

	"github.com/dshills/strata/internal/config/loader"
)

var (
	// ErrTypeMismatch matches every *TypeError.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrValidationFailed matches every *ValidationError.
	ErrValidationFailed = errors.New("validation failed")
)

// ParseError reports a config file that could not be decoded.
type ParseError = loader.ParseError

// ValidationError reports a setting whose value is out of range.
type ValidationError struct {
	Path    string // e.g. "history.maxEntries"
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s, got %v", e.Path, e.Message, e.Value)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }

// TypeError reports a setting of the wrong type.
type TypeError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: want %s, have %s", e.Path, e.Expected, e.Actual)
}

func (e *TypeError) Is(target error) bool { return target == ErrTypeMismatch }

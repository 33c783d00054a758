package wfc

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCatalog      = errors.New("wfc: tile catalog is empty")
	ErrEmptyFallback     = errors.New("wfc: fallback tile set is empty")
	ErrInvalidDimensions = errors.New("wfc: dimensions must be positive")
	ErrDuplicateTile     = errors.New("wfc: duplicate tile id")
	ErrUnknownPolicy     = errors.New("wfc: unknown propagation policy")
)

// ConfigurationError is returned when a grid cannot be initialized.
// Generation never starts after one of these.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

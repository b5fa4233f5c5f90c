package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"koleksi/internal/repositories"
)

var (
	// ErrNotFound means the entity does not exist or belongs to another principal.
	// The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the write would break a uniqueness rule.
	ErrConflict = errors.New("conflict")
	// ErrUnauthenticated means no principal could be resolved for the caller.
	ErrUnauthenticated = errors.New("authentication required")
)

// ValidationError carries one message per rejected field. Nothing is persisted
// when it is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field, keeping the first message reported for it.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

// OrNil returns e when it holds at least one field, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// storeError converts repository errors into the service error kinds.
func storeError(err error, kind, id string) error {
	var verr *ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &verr):
		return err
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return err
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	case errors.Is(err, repositories.ErrDuplicate):
		return fmt.Errorf("%s %s: %w", kind, id, ErrConflict)
	default:
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}
}

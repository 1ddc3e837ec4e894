package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"yatube/internal/repository"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the acting user may not change the target.
	ErrForbidden  = errors.New("forbidden")
	ErrFollowSelf = errors.New("cannot follow yourself")
	// ErrInvalidCredentials hides whether the username or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError carries per-field messages for re-rendering a form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// lookup maps a repository miss onto ErrNotFound, keeping what was missing.
func lookup(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

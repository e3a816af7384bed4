package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every service. Handlers map these onto HTTP
// status codes; services wrap them with entity-specific context.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrInvalidInput    = errors.New("invalid input")
	ErrTerminalState   = errors.New("terminal state")
)

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func Unauthenticatedf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrUnauthenticated)...)
}

func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrForbidden)...)
}

func Conflictf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

func Invalidf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidInput)...)
}

func Terminalf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrTerminalState)...)
}

package auth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("resource conflict")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// ErrInvalidCredentials is returned for every failed login, whatever the cause.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials or user is inactive", ErrUnauthenticated)

// MissingPermissionsError lists every permission name that failed to resolve.
type MissingPermissionsError struct {
	Names []string
}

func (e *MissingPermissionsError) Error() string {
	return fmt.Sprintf("permissions not found: %s", strings.Join(e.Names, ", "))
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *MissingPermissionsError) Is(target error) bool {
	return target == ErrNotFound
}

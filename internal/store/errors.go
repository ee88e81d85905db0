package store

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

var (
	ErrNotFound         = errors.New("store: not found")
	ErrPermissionDenied = errors.New("store: permission denied")
	ErrInvalidQuery     = errors.New("store: invalid query")
	ErrClosed           = errors.New("store: closed")
)

const permissionDeniedCode = "STORE_PERMISSION_DENIED"

// NotFoundError is returned when a document cannot be located.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Collection)
	}
	return fmt.Sprintf("%s %q not found", e.Collection, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// PermissionDenied tags err as an authorization failure for op so callers can
// route it to diagnostics instead of treating it as a missing record.
func PermissionDenied(err error, op string) error {
	if err == nil {
		err = ErrPermissionDenied
	}
	return goerrors.Wrap(err, goerrors.CategoryAuthz, "store: permission denied: "+op).
		WithTextCode(permissionDeniedCode)
}

// IsPermissionDenied reports whether err is an authorization failure.
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrPermissionDenied) || goerrors.IsCategory(err, goerrors.CategoryAuthz)
}

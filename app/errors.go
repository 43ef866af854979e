package app

import (
	"fmt"
	"net/textproto"

	"github.com/pkg/errors"
)

// Category classifies why a transfer failed.
type Category int

const (
	// CategoryGeneric covers everything not matched by a more specific
	// category: refused connections, TLS failures, transient server
	// replies and I/O errors.
	CategoryGeneric Category = iota
	// CategoryPermission is a permanent (5xx) rejection by the server.
	CategoryPermission
	// CategoryMissingSource means the local file could not be opened for
	// reading (upload) or created for writing (download).
	CategoryMissingSource
	// CategoryInvalidConfig means the request itself was unusable.
	CategoryInvalidConfig
	// CategoryTeardown is a failure while closing the connection.
	CategoryTeardown
)

func (c Category) String() string {
	switch c {
	case CategoryPermission:
		return "permission"
	case CategoryMissingSource:
		return "missing source"
	case CategoryInvalidConfig:
		return "invalid configuration"
	case CategoryTeardown:
		return "teardown"
	default:
		return "generic"
	}
}

func (c Category) logPrefix() string {
	switch c {
	case CategoryPermission:
		return "Permission error"
	case CategoryMissingSource:
		return "Source file not found"
	case CategoryInvalidConfig:
		return "Invalid value error"
	default:
		return "An error occurred"
	}
}

var ErrPartialCredentials = errors.New("User and password cannot be partially provided")

// TransferError is a categorized transfer failure.
type TransferError struct {
	Category Category
	Err      error
}

func newError(category Category, err error) *TransferError {
	return &TransferError{Category: category, Err: err}
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// CategoryOf returns the category of err if it carries one.
func CategoryOf(err error) (Category, bool) {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Category, true
	}
	return CategoryGeneric, false
}

// classify wraps err into a TransferError. Errors already categorized keep
// their category; permanent server replies are permission errors.
func classify(err error) *TransferError {
	var te *TransferError
	if errors.As(err, &te) {
		return te
	}

	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && protoErr.Code >= 500 && protoErr.Code < 600 {
		return newError(CategoryPermission, err)
	}

	return newError(CategoryGeneric, err)
}

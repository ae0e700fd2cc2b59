package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidInput         = errors.New("invalid input")
	ErrConflict             = errors.New("conflict")
	ErrTooMany              = errors.New("too many requests")
	ErrInternal             = errors.New("internal")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrDimensionMismatch    = errors.New("embedding dimension mismatch")
)

// BackendError reports a failed embedding call. Batch is the zero-based index
// of the batch that failed; the whole encode call is void when it is returned.
type BackendError struct {
	Batch int
	Err   error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("embedding backend failed at batch %d: %v", e.Batch, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// QueryError wraps an embedding or index failure raised while serving a query.
type QueryError struct {
	Stage string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("retrieval failed at %s stage: %v", e.Stage, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrUnauthorized
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrTooMany
	ErrInternal
	ErrInvalidConfiguration
	ErrDimensionMismatch
	ErrEmbeddingBackend
	ErrRetrieval
	ErrIngestFailed
)

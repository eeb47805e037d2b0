package knowledge

import "errors"

var (
	// ErrInvalidArgument is returned for malformed caller input: an empty
	// query, a non-positive topK, or chunking parameters where the overlap
	// is not smaller than the chunk size. Never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmbedding is returned when the embedding provider fails. The store
	// propagates it unchanged; retry policy belongs to the caller.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIngest is returned when a file input cannot be read during Index.
	ErrIngest = errors.New("reading document failed")

	// ErrDecode is returned when a file input is not valid UTF-8 text.
	ErrDecode = errors.New("document is not valid UTF-8")

	// ErrDimensionMismatch is returned when a provider produces vectors
	// whose dimensionality differs from the vectors already stored.
	ErrDimensionMismatch = errors.New("embedding dimensionality mismatch")
)

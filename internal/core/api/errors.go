package api

import "errors"

// Error mapping is done in the server package's status translation.
// Validation errors map to 400, unknown books/entries/groups to 404,
// oversized scan text to 413, invalid book data to 422, the session
// cap to 429, and database errors to 500.
var (
	// ErrValidation indicates a malformed or incomplete request.
	ErrValidation = errors.New("invalid request")

	// ErrSessionLimit indicates the in-memory session registry is full.
	// Idle sessions expire after sessionTTL; raising max_sessions or
	// retrying later both clear the condition.
	ErrSessionLimit = errors.New("session limit reached")
)

package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested page or item does not exist.
	// After a successful import every referenced id is resolvable, so
	// hitting this during search points at a damaged database.
	ErrNotFound = errors.New("not found")

	// ErrIntegrityViolation indicates the stored note forest is corrupt:
	// an item claims both a parent page and a parent item, or neither.
	// This is never repaired silently.
	ErrIntegrityViolation = errors.New("note store integrity violation")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyResult indicates a similarity search ran against a store
	// with no embeddings at all. Downstream stages need non-empty
	// context, so this is a failure rather than an empty result list.
	ErrEmptyResult = errors.New("no embeddings in store")

	// ErrProviderUnavailable indicates the embedding or chat provider is
	// not configured or could not be reached after retries.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

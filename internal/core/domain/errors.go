package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a sync is already running for the
	// repository. Concurrent syncs on the same repository are rejected.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// reachable. Chunks are stored without vectors.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRunnerUnavailable indicates no usable documentation runner
	// strategy is configured.
	ErrRunnerUnavailable = errors.New("documentation runner unavailable")

	// ErrNoPages indicates generation produced no usable pages after all
	// salvage and continuation attempts.
	ErrNoPages = errors.New("no usable pages after salvage and continuation")

	// ErrEmptyOutput indicates the model returned zero content.
	// Distinct from ErrNoPages to aid diagnosis.
	ErrEmptyOutput = errors.New("model returned zero content")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

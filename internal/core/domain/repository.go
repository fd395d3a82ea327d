package domain

import (
	"fmt"
	"time"
)

// SyncStatus is the lifecycle state of a repository's index.
type SyncStatus string

// Repository sync statuses.
const (
	StatusPending SyncStatus = "PENDING"
	StatusSyncing SyncStatus = "SYNCING"
	StatusSynced  SyncStatus = "SYNCED"
	StatusError   SyncStatus = "ERROR"
)

// CanTransitionTo reports whether the status machine allows moving to next.
// PENDING -> SYNCING -> {SYNCED | ERROR}, and any terminal state may start
// a new sync (back to SYNCING).
func (s SyncStatus) CanTransitionTo(next SyncStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusSyncing
	case StatusSyncing:
		return next == StatusSynced || next == StatusError
	case StatusSynced, StatusError:
		return next == StatusSyncing
	default:
		return false
	}
}

// SyncStage is the sub-stage of an in-flight sync.
type SyncStage string

// Sync sub-stages, in execution order.
const (
	StageDiscovering    SyncStage = "discovering"
	StageIndexing       SyncStage = "indexing"
	StageEmbedding      SyncStage = "embedding"
	StageGeneratingDocs SyncStage = "generating_docs"
)

// SyncProgress is the mutable, persisted progress record for a sync.
// A crash mid-sync leaves the last written stage inspectable.
type SyncProgress struct {
	// Stage is the current sub-stage, empty when no sync is running.
	Stage SyncStage

	// ProcessedCount is the number of files processed so far.
	ProcessedCount int

	// TotalCount is the number of files selected for indexing.
	TotalCount int

	// LastError holds the failure message when status is ERROR.
	LastError string
}

// Repository is a registered source-control repository.
// Mutated exclusively by the sync orchestrator; status transitions are
// serialised per repository.
type Repository struct {
	// ID is the unique identifier for the repository.
	ID string

	// Owner is the repository owner (user or organisation).
	Owner string

	// Name is the repository name.
	Name string

	// Branch is the branch selected for indexing.
	Branch string

	// Status is the current sync status.
	Status SyncStatus

	// Progress is the mutable progress record for the current/last sync.
	Progress SyncProgress

	// LastCommitSHA is the commit the index was last built from.
	LastCommitSHA string

	// CreatedAt is when the repository was registered.
	CreatedAt time.Time

	// UpdatedAt is when the repository was last modified.
	UpdatedAt time.Time
}

// FullName returns the canonical "owner/name" form.
func (r *Repository) FullName() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

// Validate checks the repository is well-formed for registration.
func (r *Repository) Validate() error {
	if r.Owner == "" {
		return fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return nil
}

package knowledge

import (
	"context"
	"time"
)

// ListFilter narrows List results. Zero value lists everything.
type ListFilter struct {
	// Status restricts results to one lifecycle state when non-empty.
	Status Status

	// Categories restricts results to the given categories when non-empty.
	Categories []Domain
}

// ContentUpdate is a partial edit of a record's curated content.
// Nil fields are left unchanged. Edits never change status.
type ContentUpdate struct {
	Topic       *string
	Narrative   *string
	Keywords    []string
	Subcategory *string
}

// Store is the persistence boundary for knowledge records.
//
// The store is the single owner of record mutation; every other component
// reads and writes through this contract. Implementations must enforce the
// moderation state machine: Approve and Reject succeed only from pending and
// return ErrInvalidTransition from a terminal state.
type Store interface {
	// Insert persists a new record.
	Insert(ctx context.Context, record *Record) error

	// Get returns a record by id, or ErrRecordNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns records matching the filter, ordered by creation time
	// ascending.
	List(ctx context.Context, filter ListFilter) ([]*Record, error)

	// Approve transitions a pending record to approved, setting approvedBy
	// and approvedAt. A non-empty narrative overrides the stored one at
	// this transition.
	Approve(ctx context.Context, id, approvedBy, narrative string, at time.Time) error

	// Reject transitions a pending record to rejected. Reason may be empty.
	Reject(ctx context.Context, id, reason string) error

	// UpdateContent edits curated fields without touching status.
	UpdateContent(ctx context.Context, id string, update ContentUpdate) error

	// Delete removes a record at any status. The only destructive operation.
	Delete(ctx context.Context, id string) error

	// RecordUse increments a record's use count and stamps lastUsedAt.
	RecordUse(ctx context.Context, id string, at time.Time) error

	// AddFeedback increments the helpful or not-helpful counter.
	AddFeedback(ctx context.Context, id string, helpful bool) error

	// CountByStatus returns record counts per lifecycle state.
	CountByStatus(ctx context.Context) (map[Status]int, error)

	// Close releases store resources.
	Close() error
}

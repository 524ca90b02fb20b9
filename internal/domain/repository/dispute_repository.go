package repository

import (
	"context"
	"time"

	"bountyhub/internal/domain/entity"
)

// DisputeMutation edits a dispute inside a guarded transaction. Returning an
// error aborts the transaction without writing anything.
type DisputeMutation func(d *entity.Dispute) error

// DisputeRepository persists the dispute aggregate. Every mutating method
// executes as one atomic unit: current status is re-read and checked inside
// the transaction, so two concurrent writers cannot both win. Methods taking
// an audit entry write it in the same transaction as the state change.
type DisputeRepository interface {
	// Create persists a new dispute with its initial evidence and audit entry.
	// Fails with CONFLICT if a dispute already exists for the cancellation.
	Create(ctx context.Context, dispute *entity.Dispute, evidence []*entity.Evidence, audit *entity.AuditLogEntry) error

	GetByID(ctx context.Context, id string) (*entity.Dispute, error)
	GetByCancellationID(ctx context.Context, cancellationID string) (*entity.Dispute, error)

	List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]*entity.Dispute, int64, error)

	// CountByStatus returns dispute counts keyed by status.
	CountByStatus(ctx context.Context) (map[entity.DisputeStatus]int64, error)

	// ListAutoCloseDue returns open/under_review disputes whose auto-close
	// deadline has passed.
	ListAutoCloseDue(ctx context.Context, now time.Time, limit int) ([]*entity.Dispute, error)

	// ListEscalationDue returns open/under_review, not-yet-escalated disputes
	// created before the cutoff.
	ListEscalationDue(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Dispute, error)

	// Transition re-reads the dispute, verifies its status is one of from,
	// applies mutate and writes the result plus the audit entry atomically.
	// A status outside from fails with INVALID_STATE and leaves the record
	// untouched.
	Transition(ctx context.Context, disputeID string, from []entity.DisputeStatus, mutate DisputeMutation, audit *entity.AuditLogEntry) (*entity.Dispute, error)

	// AddEvidence appends an evidence item and extends the activity deadline
	// in one transaction, guarded on the dispute still being active.
	AddEvidence(ctx context.Context, disputeID string, evidence *entity.Evidence, touch DisputeMutation, audit *entity.AuditLogEntry) error

	// AddComment appends a comment under the same guard and atomicity rules
	// as AddEvidence.
	AddComment(ctx context.Context, disputeID string, comment *entity.Comment, touch DisputeMutation, audit *entity.AuditLogEntry) error

	ListEvidence(ctx context.Context, disputeID string) ([]*entity.Evidence, error)
	ListComments(ctx context.Context, disputeID string) ([]*entity.Comment, error)
}

package repository

import (
	"context"
	"time"

	"bountyhub/internal/domain/entity"
)

// ResolutionRepository persists settlement decisions. Creation is atomic with
// the dispute's under_review -> resolved transition.
type ResolutionRepository interface {
	// Create writes the resolution, flips the dispute to resolved and records
	// the audit entry in one transaction. Fails with INVALID_STATE if the
	// dispute is not under_review.
	Create(ctx context.Context, resolution *entity.Resolution, audit *entity.AuditLogEntry) (*entity.Dispute, error)

	// Active returns the current non-superseded resolution for a dispute.
	Active(ctx context.Context, disputeID string) (*entity.Resolution, error)

	ListByDispute(ctx context.Context, disputeID string) ([]*entity.Resolution, error)

	// MarkSettled records a successful settlement invocation and its audit
	// entry. Idempotent: an already-settled resolution is left untouched and
	// no duplicate audit entry is written.
	MarkSettled(ctx context.Context, disputeID, resolutionID string, settledAt time.Time, audit *entity.AuditLogEntry) error

	// ListPendingSettlement returns non-superseded resolutions still waiting
	// on the settlement rail.
	ListPendingSettlement(ctx context.Context, limit int) ([]*entity.Resolution, error)
}

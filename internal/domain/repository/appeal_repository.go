package repository

import (
	"context"

	"bountyhub/internal/domain/entity"
)

// AppealRepository persists the single appeal a dispute may carry.
type AppealRepository interface {
	// Create writes the appeal and the audit entry atomically, guarded on the
	// dispute being resolved. Fails with CONFLICT if an appeal already exists.
	Create(ctx context.Context, appeal *entity.Appeal, audit *entity.AuditLogEntry) error

	// GetByDispute returns the dispute's appeal, or NOT_FOUND.
	GetByDispute(ctx context.Context, disputeID string) (*entity.Appeal, error)

	// Decide finalizes the appeal. An accepted decision reopens the dispute
	// and marks the prior resolution superseded; a rejected one leaves the
	// dispute resolved. All of it is one transaction. Fails with
	// INVALID_STATE if the appeal is already decided.
	Decide(ctx context.Context, disputeID, appealID string, decision entity.AppealStatus, adminID string, touch DisputeMutation, audit *entity.AuditLogEntry) (*entity.Dispute, error)
}

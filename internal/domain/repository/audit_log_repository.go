package repository

import (
	"context"

	"bountyhub/internal/domain/entity"
)

// AuditLogRepository reads the append-only audit trail. Writes happen inside
// the dispute/resolution/appeal transactions; nothing ever updates or deletes
// an entry.
type AuditLogRepository interface {
	ListByDispute(ctx context.Context, disputeID string) ([]*entity.AuditLogEntry, error)
}

package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"bountyhub/internal/domain/entity"
	"bountyhub/internal/domain/repository"
	"bountyhub/pkg/errors"
)

type firestoreAuditLogRepository struct {
	client *firestore.Client
}

func NewFirestoreAuditLogRepository(client *firestore.Client) repository.AuditLogRepository {
	return &firestoreAuditLogRepository{
		client: client,
	}
}

func (r *firestoreAuditLogRepository) ListByDispute(ctx context.Context, disputeID string) ([]*entity.AuditLogEntry, error) {
	iter := r.client.Collection(auditLogsCollection).
		Where("disputeId", "==", disputeID).
		OrderBy("createdAt", firestore.Asc).Documents(ctx)

	var entries []*entity.AuditLogEntry
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate audit log", err)
		}

		var entry entity.AuditLogEntry
		if err := doc.DataTo(&entry); err != nil {
			return nil, errors.Internal("Failed to parse audit log data", err)
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bountyhub/internal/domain/entity"
	"bountyhub/internal/domain/repository"
	"bountyhub/pkg/errors"
)

const appealsCollection = "appeals"

type firestoreAppealRepository struct {
	client *firestore.Client
}

func NewFirestoreAppealRepository(client *firestore.Client) repository.AppealRepository {
	return &firestoreAppealRepository{
		client: client,
	}
}

func (r *firestoreAppealRepository) Create(ctx context.Context, appeal *entity.Appeal, audit *entity.AuditLogEntry) error {
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		disputeRef := r.client.Collection(disputesCollection).Doc(appeal.DisputeID)
		dispute, err := readDispute(tx, disputeRef)
		if err != nil {
			return err
		}

		if dispute.Status != entity.DisputeStatusResolved {
			return errors.InvalidState(
				fmt.Sprintf("dispute is %s; appeals require resolved", dispute.Status))
		}

		// One appeal per dispute, ever.
		existing := tx.Documents(r.client.Collection(appealsCollection).
			Where("disputeId", "==", appeal.DisputeID).Limit(1))
		if _, err := existing.Next(); err != iterator.Done {
			if err != nil {
				return errors.Internal("Failed to check for existing appeal", err)
			}
			return errors.Conflict("An appeal already exists for this dispute")
		}

		apRef := r.client.Collection(appealsCollection).Doc(appeal.ID)
		if err := tx.Set(apRef, appeal); err != nil {
			return err
		}
		return writeAudit(tx, r.client, audit)
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return err
		}
		return errors.Internal("Failed to create appeal", err)
	}
	return nil
}

func (r *firestoreAppealRepository) GetByDispute(ctx context.Context, disputeID string) (*entity.Appeal, error) {
	iter := r.client.Collection(appealsCollection).
		Where("disputeId", "==", disputeID).Limit(1).Documents(ctx)

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Appeal", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query appeal", err)
	}

	var appeal entity.Appeal
	if err := doc.DataTo(&appeal); err != nil {
		return nil, errors.Internal("Failed to parse appeal data", err)
	}

	return &appeal, nil
}

func (r *firestoreAppealRepository) Decide(ctx context.Context, disputeID, appealID string, decision entity.AppealStatus, adminID string, touch repository.DisputeMutation, audit *entity.AuditLogEntry) (*entity.Dispute, error) {
	var updated *entity.Dispute

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		apRef := r.client.Collection(appealsCollection).Doc(appealID)
		apDoc, err := tx.Get(apRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Appeal", err)
			}
			return err
		}

		var appeal entity.Appeal
		if err := apDoc.DataTo(&appeal); err != nil {
			return errors.Internal("Failed to parse appeal data", err)
		}
		if appeal.Decided() {
			return errors.InvalidState("appeal has already been decided")
		}

		disputeRef := r.client.Collection(disputesCollection).Doc(disputeID)
		dispute, err := readDispute(tx, disputeRef)
		if err != nil {
			return err
		}
		if dispute.Status != entity.DisputeStatusResolved {
			return errors.InvalidState(
				fmt.Sprintf("dispute is %s; appeal review requires resolved", dispute.Status))
		}

		if err := touch(dispute); err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Update(apRef, []firestore.Update{
			{Path: "status", Value: string(decision)},
			{Path: "reviewedBy", Value: adminID},
			{Path: "decidedAt", Value: now},
		}); err != nil {
			return err
		}

		if err := tx.Set(disputeRef, dispute); err != nil {
			return err
		}

		// Acceptance retires the contested resolution; the record survives
		// for history.
		if decision == entity.AppealStatusAccepted {
			resRef := r.client.Collection(resolutionsCollection).Doc(appeal.ResolutionID)
			if err := tx.Update(resRef, []firestore.Update{
				{Path: "superseded", Value: true},
			}); err != nil {
				return err
			}
		}

		if err := writeAudit(tx, r.client, audit); err != nil {
			return err
		}

		updated = dispute
		return nil
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return nil, err
		}
		return nil, errors.Internal("Failed to decide appeal", err)
	}

	return updated, nil
}

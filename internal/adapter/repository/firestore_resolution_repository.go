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

const resolutionsCollection = "resolutions"

type firestoreResolutionRepository struct {
	client *firestore.Client
}

func NewFirestoreResolutionRepository(client *firestore.Client) repository.ResolutionRepository {
	return &firestoreResolutionRepository{
		client: client,
	}
}

func (r *firestoreResolutionRepository) Create(ctx context.Context, resolution *entity.Resolution, audit *entity.AuditLogEntry) (*entity.Dispute, error) {
	var updated *entity.Dispute

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := r.client.Collection(disputesCollection).Doc(resolution.DisputeID)
		dispute, err := readDispute(tx, ref)
		if err != nil {
			return err
		}

		if dispute.Status != entity.DisputeStatusUnderReview {
			return errors.InvalidState(
				fmt.Sprintf("dispute is %s; resolution requires under_review", dispute.Status))
		}

		now := time.Now()
		dispute.Status = entity.DisputeStatusResolved
		dispute.ResolvedAt = &now
		dispute.UpdatedAt = now

		if err := tx.Set(ref, dispute); err != nil {
			return err
		}
		resRef := r.client.Collection(resolutionsCollection).Doc(resolution.ID)
		if err := tx.Set(resRef, resolution); err != nil {
			return err
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
		return nil, errors.Internal("Failed to create resolution", err)
	}

	return updated, nil
}

func (r *firestoreResolutionRepository) Active(ctx context.Context, disputeID string) (*entity.Resolution, error) {
	iter := r.client.Collection(resolutionsCollection).
		Where("disputeId", "==", disputeID).
		Where("superseded", "==", false).
		Limit(1).Documents(ctx)

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Resolution", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query resolution", err)
	}

	var resolution entity.Resolution
	if err := doc.DataTo(&resolution); err != nil {
		return nil, errors.Internal("Failed to parse resolution data", err)
	}

	return &resolution, nil
}

func (r *firestoreResolutionRepository) ListByDispute(ctx context.Context, disputeID string) ([]*entity.Resolution, error) {
	iter := r.client.Collection(resolutionsCollection).
		Where("disputeId", "==", disputeID).
		OrderBy("createdAt", firestore.Asc).Documents(ctx)

	var resolutions []*entity.Resolution
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate resolutions", err)
		}

		var resolution entity.Resolution
		if err := doc.DataTo(&resolution); err != nil {
			return nil, errors.Internal("Failed to parse resolution data", err)
		}
		resolutions = append(resolutions, &resolution)
	}

	return resolutions, nil
}

func (r *firestoreResolutionRepository) MarkSettled(ctx context.Context, disputeID, resolutionID string, settledAt time.Time, audit *entity.AuditLogEntry) error {
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := r.client.Collection(resolutionsCollection).Doc(resolutionID)
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Resolution", err)
			}
			return err
		}

		var resolution entity.Resolution
		if err := doc.DataTo(&resolution); err != nil {
			return errors.Internal("Failed to parse resolution data", err)
		}

		// Idempotent: a second settlement confirmation changes nothing.
		if resolution.SettlementStatus == entity.SettlementSettled {
			return nil
		}

		if err := tx.Update(ref, []firestore.Update{
			{Path: "settlementStatus", Value: string(entity.SettlementSettled)},
			{Path: "settledAt", Value: settledAt},
		}); err != nil {
			return err
		}
		return writeAudit(tx, r.client, audit)
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return err
		}
		return errors.Internal("Failed to mark resolution settled", err)
	}
	return nil
}

func (r *firestoreResolutionRepository) ListPendingSettlement(ctx context.Context, limit int) ([]*entity.Resolution, error) {
	iter := r.client.Collection(resolutionsCollection).
		Where("settlementStatus", "==", string(entity.SettlementPending)).
		Where("superseded", "==", false).
		Limit(limit).Documents(ctx)

	var resolutions []*entity.Resolution
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate pending resolutions", err)
		}

		var resolution entity.Resolution
		if err := doc.DataTo(&resolution); err != nil {
			return nil, errors.Internal("Failed to parse resolution data", err)
		}
		resolutions = append(resolutions, &resolution)
	}

	return resolutions, nil
}

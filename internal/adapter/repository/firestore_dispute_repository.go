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

const (
	disputesCollection  = "disputes"
	evidenceCollection  = "evidence"
	commentsCollection  = "comments"
	auditLogsCollection = "audit_logs"
)

type firestoreDisputeRepository struct {
	client *firestore.Client
}

func NewFirestoreDisputeRepository(client *firestore.Client) repository.DisputeRepository {
	return &firestoreDisputeRepository{
		client: client,
	}
}

func (r *firestoreDisputeRepository) Create(ctx context.Context, dispute *entity.Dispute, evidence []*entity.Evidence, audit *entity.AuditLogEntry) error {
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// One dispute per cancellation, checked inside the transaction.
		existing := tx.Documents(r.client.Collection(disputesCollection).
			Where("cancellationId", "==", dispute.CancellationID).Limit(1))
		if _, err := existing.Next(); err != iterator.Done {
			if err != nil {
				return errors.Internal("Failed to check for existing dispute", err)
			}
			return errors.Conflict("A dispute already exists for this cancellation")
		}

		ref := r.client.Collection(disputesCollection).Doc(dispute.ID)
		if err := tx.Set(ref, dispute); err != nil {
			return err
		}

		for _, ev := range evidence {
			evRef := ref.Collection(evidenceCollection).Doc(ev.ID)
			if err := tx.Set(evRef, ev); err != nil {
				return err
			}
		}

		return writeAudit(tx, r.client, audit)
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return err
		}
		return errors.Internal("Failed to create dispute", err)
	}
	return nil
}

func (r *firestoreDisputeRepository) GetByID(ctx context.Context, id string) (*entity.Dispute, error) {
	doc, err := r.client.Collection(disputesCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Dispute", err)
		}
		return nil, errors.Internal("Failed to get dispute", err)
	}

	var dispute entity.Dispute
	if err := doc.DataTo(&dispute); err != nil {
		return nil, errors.Internal("Failed to parse dispute data", err)
	}

	return &dispute, nil
}

func (r *firestoreDisputeRepository) GetByCancellationID(ctx context.Context, cancellationID string) (*entity.Dispute, error) {
	iter := r.client.Collection(disputesCollection).
		Where("cancellationId", "==", cancellationID).Limit(1).Documents(ctx)

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Dispute", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query dispute", err)
	}

	var dispute entity.Dispute
	if err := doc.DataTo(&dispute); err != nil {
		return nil, errors.Internal("Failed to parse dispute data", err)
	}

	return &dispute, nil
}

func (r *firestoreDisputeRepository) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]*entity.Dispute, int64, error) {
	collection := r.client.Collection(disputesCollection)
	query := collection.OrderBy("createdAt", firestore.Desc)

	for key, value := range filter {
		if key == "participant" {
			query = query.Where("participants", "array-contains", value)
			continue
		}
		query = query.Where(key, "==", value)
	}

	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count disputes", err)
	}
	total := int64(len(countDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var disputes []*entity.Dispute

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate disputes", err)
		}

		var dispute entity.Dispute
		if err := doc.DataTo(&dispute); err != nil {
			return nil, 0, errors.Internal("Failed to parse dispute data", err)
		}
		disputes = append(disputes, &dispute)
	}

	return disputes, total, nil
}

func (r *firestoreDisputeRepository) CountByStatus(ctx context.Context) (map[entity.DisputeStatus]int64, error) {
	counts := make(map[entity.DisputeStatus]int64)

	statuses := []entity.DisputeStatus{
		entity.DisputeStatusOpen,
		entity.DisputeStatusUnderReview,
		entity.DisputeStatusResolved,
		entity.DisputeStatusClosed,
		entity.DisputeStatusReopened,
	}

	for _, s := range statuses {
		docs, err := r.client.Collection(disputesCollection).
			Where("status", "==", string(s)).Documents(ctx).GetAll()
		if err != nil {
			return nil, errors.Internal("Failed to count disputes", err)
		}
		counts[s] = int64(len(docs))
	}

	return counts, nil
}

func (r *firestoreDisputeRepository) ListAutoCloseDue(ctx context.Context, now time.Time, limit int) ([]*entity.Dispute, error) {
	query := r.client.Collection(disputesCollection).
		Where("status", "in", []string{
			string(entity.DisputeStatusOpen),
			string(entity.DisputeStatusUnderReview),
		}).
		Where("autoCloseAt", "<", now).
		Limit(limit)

	return collectDisputes(query.Documents(ctx))
}

func (r *firestoreDisputeRepository) ListEscalationDue(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Dispute, error) {
	query := r.client.Collection(disputesCollection).
		Where("status", "in", []string{
			string(entity.DisputeStatusOpen),
			string(entity.DisputeStatusUnderReview),
		}).
		Where("escalated", "==", false).
		Where("createdAt", "<", cutoff).
		Limit(limit)

	return collectDisputes(query.Documents(ctx))
}

func (r *firestoreDisputeRepository) Transition(ctx context.Context, disputeID string, from []entity.DisputeStatus, mutate repository.DisputeMutation, audit *entity.AuditLogEntry) (*entity.Dispute, error) {
	var updated *entity.Dispute

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := r.client.Collection(disputesCollection).Doc(disputeID)
		dispute, err := readDispute(tx, ref)
		if err != nil {
			return err
		}

		if !statusIn(dispute.Status, from) {
			return errors.InvalidState(
				fmt.Sprintf("dispute is %s; operation requires one of %v", dispute.Status, from))
		}

		if err := mutate(dispute); err != nil {
			return err
		}

		if err := tx.Set(ref, dispute); err != nil {
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
		return nil, errors.Internal("Failed to transition dispute", err)
	}

	return updated, nil
}

func (r *firestoreDisputeRepository) AddEvidence(ctx context.Context, disputeID string, evidence *entity.Evidence, touch repository.DisputeMutation, audit *entity.AuditLogEntry) error {
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := r.client.Collection(disputesCollection).Doc(disputeID)
		dispute, err := readDispute(tx, ref)
		if err != nil {
			return err
		}

		if !dispute.Active() {
			return errors.InvalidState(
				fmt.Sprintf("dispute is %s and no longer accepts evidence", dispute.Status))
		}

		if err := touch(dispute); err != nil {
			return err
		}

		if err := tx.Set(ref, dispute); err != nil {
			return err
		}
		evRef := ref.Collection(evidenceCollection).Doc(evidence.ID)
		if err := tx.Set(evRef, evidence); err != nil {
			return err
		}
		return writeAudit(tx, r.client, audit)
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return err
		}
		return errors.Internal("Failed to add evidence", err)
	}
	return nil
}

func (r *firestoreDisputeRepository) AddComment(ctx context.Context, disputeID string, comment *entity.Comment, touch repository.DisputeMutation, audit *entity.AuditLogEntry) error {
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := r.client.Collection(disputesCollection).Doc(disputeID)
		dispute, err := readDispute(tx, ref)
		if err != nil {
			return err
		}

		if !dispute.Active() {
			return errors.InvalidState(
				fmt.Sprintf("dispute is %s and no longer accepts comments", dispute.Status))
		}

		if err := touch(dispute); err != nil {
			return err
		}

		if err := tx.Set(ref, dispute); err != nil {
			return err
		}
		cmRef := ref.Collection(commentsCollection).Doc(comment.ID)
		if err := tx.Set(cmRef, comment); err != nil {
			return err
		}
		return writeAudit(tx, r.client, audit)
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return err
		}
		return errors.Internal("Failed to add comment", err)
	}
	return nil
}

func (r *firestoreDisputeRepository) ListEvidence(ctx context.Context, disputeID string) ([]*entity.Evidence, error) {
	iter := r.client.Collection(disputesCollection).Doc(disputeID).
		Collection(evidenceCollection).OrderBy("createdAt", firestore.Asc).Documents(ctx)

	var items []*entity.Evidence
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate evidence", err)
		}

		var ev entity.Evidence
		if err := doc.DataTo(&ev); err != nil {
			return nil, errors.Internal("Failed to parse evidence data", err)
		}
		items = append(items, &ev)
	}

	return items, nil
}

func (r *firestoreDisputeRepository) ListComments(ctx context.Context, disputeID string) ([]*entity.Comment, error) {
	iter := r.client.Collection(disputesCollection).Doc(disputeID).
		Collection(commentsCollection).OrderBy("createdAt", firestore.Asc).Documents(ctx)

	var items []*entity.Comment
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate comments", err)
		}

		var cm entity.Comment
		if err := doc.DataTo(&cm); err != nil {
			return nil, errors.Internal("Failed to parse comment data", err)
		}
		items = append(items, &cm)
	}

	return items, nil
}

func readDispute(tx *firestore.Transaction, ref *firestore.DocumentRef) (*entity.Dispute, error) {
	doc, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Dispute", err)
		}
		return nil, err
	}

	var dispute entity.Dispute
	if err := doc.DataTo(&dispute); err != nil {
		return nil, errors.Internal("Failed to parse dispute data", err)
	}
	return &dispute, nil
}

func writeAudit(tx *firestore.Transaction, client *firestore.Client, audit *entity.AuditLogEntry) error {
	if audit == nil {
		return nil
	}
	return tx.Set(client.Collection(auditLogsCollection).Doc(audit.ID), audit)
}

func statusIn(s entity.DisputeStatus, set []entity.DisputeStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func collectDisputes(iter *firestore.DocumentIterator) ([]*entity.Dispute, error) {
	var disputes []*entity.Dispute
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate disputes", err)
		}

		var dispute entity.Dispute
		if err := doc.DataTo(&dispute); err != nil {
			return nil, errors.Internal("Failed to parse dispute data", err)
		}
		disputes = append(disputes, &dispute)
	}
	return disputes, nil
}

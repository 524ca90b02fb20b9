package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"bountyhub/internal/domain/entity"
	"bountyhub/internal/domain/repository"
	"bountyhub/pkg/errors"
	"bountyhub/pkg/logger"
)

// LedgerUseCase is the evidence & comment ledger. Writes are append-only and
// every successful one pushes the dispute's auto-close deadline forward,
// atomically with the insert.
type LedgerUseCase struct {
	disputeRepo repository.DisputeRepository
	notifier    Notifier
	windows     Windows
}

func NewLedgerUseCase(disputeRepo repository.DisputeRepository, notifier Notifier, windows Windows) *LedgerUseCase {
	return &LedgerUseCase{
		disputeRepo: disputeRepo,
		notifier:    notifier,
		windows:     windows,
	}
}

func (uc *LedgerUseCase) AddEvidence(ctx context.Context, disputeID, actorID, actorRole string, input EvidenceInput) (*entity.Evidence, error) {
	dispute, err := uc.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if actorRole != "admin" && !dispute.IsParty(actorID) {
		return nil, errors.Forbidden("Not a party to this dispute", nil)
	}

	now := time.Now()
	evidence, err := buildEvidence(disputeID, actorID, input, now)
	if err != nil {
		return nil, err
	}

	actorType := entity.ActorUser
	if actorRole == "admin" {
		actorType = entity.ActorAdmin
	}
	audit := newAuditEntry(disputeID, entity.AuditEvidenceAdded, actorID, actorType, map[string]interface{}{
		"evidence_id": evidence.ID,
		"kind":        string(evidence.Kind),
	})

	err = uc.disputeRepo.AddEvidence(ctx, disputeID, evidence, func(d *entity.Dispute) error {
		d.Touch(now, uc.windows.Inactivity)
		return nil
	}, audit)
	if err != nil {
		return nil, err
	}

	uc.notifier.Notify(ctx, NotificationEvent{
		Type:         EventEvidenceAdded,
		DisputeID:    disputeID,
		RecipientIDs: otherParticipants(dispute, actorID),
		Payload:      map[string]interface{}{"kind": string(evidence.Kind)},
	})

	logger.Info("Evidence %s added to dispute %s by %s", evidence.ID, disputeID, actorID)
	return evidence, nil
}

func (uc *LedgerUseCase) AddComment(ctx context.Context, disputeID, actorID, actorRole, body string, internal bool) (*entity.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, errors.BadRequest("comment body must not be empty", nil)
	}
	if internal && actorRole != "admin" {
		return nil, errors.Forbidden("Only admins may write internal comments", nil)
	}

	dispute, err := uc.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if actorRole != "admin" && !dispute.IsParty(actorID) {
		return nil, errors.Forbidden("Not a party to this dispute", nil)
	}

	now := time.Now()
	comment := &entity.Comment{
		ID:         uuid.New().String(),
		DisputeID:  disputeID,
		AuthorID:   actorID,
		AuthorRole: actorRole,
		Body:       body,
		Internal:   internal,
		CreatedAt:  now,
	}

	actorType := entity.ActorUser
	if actorRole == "admin" {
		actorType = entity.ActorAdmin
	}
	audit := newAuditEntry(disputeID, entity.AuditCommentAdded, actorID, actorType, map[string]interface{}{
		"comment_id": comment.ID,
		"internal":   internal,
	})

	err = uc.disputeRepo.AddComment(ctx, disputeID, comment, func(d *entity.Dispute) error {
		d.Touch(now, uc.windows.Inactivity)
		return nil
	}, audit)
	if err != nil {
		return nil, err
	}

	if !internal {
		uc.notifier.Notify(ctx, NotificationEvent{
			Type:         EventCommentAdded,
			DisputeID:    disputeID,
			RecipientIDs: otherParticipants(dispute, actorID),
		})
	}

	return comment, nil
}

// ListEvidence returns the dispute's evidence, visible to parties and admins.
func (uc *LedgerUseCase) ListEvidence(ctx context.Context, disputeID, viewerID, viewerRole string) ([]*entity.Evidence, error) {
	dispute, err := uc.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if viewerRole != "admin" && !dispute.IsParty(viewerID) {
		return nil, errors.Forbidden("Not a party to this dispute", nil)
	}
	return uc.disputeRepo.ListEvidence(ctx, disputeID)
}

// ListComments filters out internal comments for non-admin viewers.
func (uc *LedgerUseCase) ListComments(ctx context.Context, disputeID, viewerID, viewerRole string) ([]*entity.Comment, error) {
	dispute, err := uc.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if viewerRole != "admin" && !dispute.IsParty(viewerID) {
		return nil, errors.Forbidden("Not a party to this dispute", nil)
	}

	comments, err := uc.disputeRepo.ListComments(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if viewerRole == "admin" {
		return comments, nil
	}

	visible := make([]*entity.Comment, 0, len(comments))
	for _, cm := range comments {
		if !cm.Internal {
			visible = append(visible, cm)
		}
	}
	return visible, nil
}

func otherParticipants(dispute *entity.Dispute, actorID string) []string {
	var out []string
	for _, p := range dispute.Participants {
		if p != actorID {
			out = append(out, p)
		}
	}
	return out
}

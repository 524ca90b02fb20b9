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

// AppealUseCase handles the one-time contestation of a resolution and its
// admin review.
type AppealUseCase struct {
	disputeRepo    repository.DisputeRepository
	resolutionRepo repository.ResolutionRepository
	appealRepo     repository.AppealRepository
	notifier       Notifier
	windows        Windows
}

func NewAppealUseCase(
	disputeRepo repository.DisputeRepository,
	resolutionRepo repository.ResolutionRepository,
	appealRepo repository.AppealRepository,
	notifier Notifier,
	windows Windows,
) *AppealUseCase {
	return &AppealUseCase{
		disputeRepo:    disputeRepo,
		resolutionRepo: resolutionRepo,
		appealRepo:     appealRepo,
		notifier:       notifier,
		windows:        windows,
	}
}

type CreateAppealInput struct {
	DisputeID    string
	AppellantID  string
	Reason       string
	EvidenceRefs []string
}

func (uc *AppealUseCase) CreateAppeal(ctx context.Context, input CreateAppealInput) (*entity.Appeal, error) {
	if strings.TrimSpace(input.Reason) == "" {
		return nil, errors.BadRequest("appeal reason must not be empty", nil)
	}

	dispute, err := uc.disputeRepo.GetByID(ctx, input.DisputeID)
	if err != nil {
		return nil, err
	}

	if !dispute.IsParty(input.AppellantID) {
		return nil, errors.Forbidden("Only a party to the dispute may appeal", nil)
	}

	if dispute.Status != entity.DisputeStatusResolved {
		return nil, errors.InvalidState("appeals are only possible while the dispute is resolved")
	}

	resolution, err := uc.resolutionRepo.Active(ctx, input.DisputeID)
	if err != nil {
		return nil, err
	}

	if time.Now().After(resolution.CreatedAt.Add(uc.windows.Appeal)) {
		return nil, errors.InvalidState("the appeal window has closed")
	}

	if existing, err := uc.appealRepo.GetByDispute(ctx, input.DisputeID); err == nil && existing != nil {
		return nil, errors.Conflict("An appeal already exists for this dispute")
	} else if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	appeal := &entity.Appeal{
		ID:           uuid.New().String(),
		DisputeID:    input.DisputeID,
		ResolutionID: resolution.ID,
		AppellantID:  input.AppellantID,
		Reason:       input.Reason,
		EvidenceRefs: input.EvidenceRefs,
		Status:       entity.AppealStatusPending,
		CreatedAt:    time.Now(),
	}

	audit := newAuditEntry(input.DisputeID, entity.AuditAppealCreated, input.AppellantID, entity.ActorUser, map[string]interface{}{
		"appeal_id":     appeal.ID,
		"resolution_id": resolution.ID,
	})

	if err := uc.appealRepo.Create(ctx, appeal, audit); err != nil {
		return nil, err
	}

	// Appeals jump the admin queue.
	uc.notifier.Notify(ctx, NotificationEvent{
		Type:      EventAppealCreated,
		DisputeID: input.DisputeID,
		Topic:     AdminTopic,
		Priority:  "high",
		Payload:   map[string]interface{}{"appellant_id": input.AppellantID},
	})

	logger.Info("Appeal %s created for dispute %s by %s", appeal.ID, input.DisputeID, input.AppellantID)
	return appeal, nil
}

// ReviewAppeal decides the appeal. Acceptance walks the dispute back through
// reopened into under_review so a fresh resolution can supersede the old one;
// rejection leaves the dispute permanently resolved.
func (uc *AppealUseCase) ReviewAppeal(ctx context.Context, disputeID, adminID, decision string) (*entity.Appeal, error) {
	var status entity.AppealStatus
	switch decision {
	case "accepted":
		status = entity.AppealStatusAccepted
	case "rejected":
		status = entity.AppealStatusRejected
	default:
		return nil, errors.BadRequest("decision must be accepted or rejected", nil)
	}

	appeal, err := uc.appealRepo.GetByDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if appeal.Decided() {
		return nil, errors.InvalidState("appeal has already been decided")
	}

	action := entity.AuditAppealRejected
	if status == entity.AppealStatusAccepted {
		action = entity.AuditAppealAccepted
	}
	audit := newAuditEntry(disputeID, action, adminID, entity.ActorAdmin, map[string]interface{}{
		"appeal_id": appeal.ID,
	})

	dispute, err := uc.appealRepo.Decide(ctx, disputeID, appeal.ID, status, adminID, func(d *entity.Dispute) error {
		now := time.Now()
		if status == entity.AppealStatusAccepted {
			d.Status = entity.DisputeStatusReopened
			d.ResolvedAt = nil
			d.Touch(now, uc.windows.Inactivity)
		} else {
			d.UpdatedAt = now
		}
		return nil
	}, audit)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	appeal.Status = status
	appeal.ReviewedBy = adminID
	appeal.DecidedAt = &now

	if status == entity.AppealStatusAccepted {
		// Re-enter the review flow straight away; the reopened hop stays
		// visible in the audit trail.
		reviewAudit := newAuditEntry(disputeID, entity.AuditStatusChanged, adminID, entity.ActorAdmin, map[string]interface{}{
			"from": string(entity.DisputeStatusReopened),
			"to":   string(entity.DisputeStatusUnderReview),
		})
		if _, err := uc.disputeRepo.Transition(ctx, disputeID,
			[]entity.DisputeStatus{entity.DisputeStatusReopened},
			func(d *entity.Dispute) error {
				d.Status = entity.DisputeStatusUnderReview
				d.UpdatedAt = time.Now()
				return nil
			}, reviewAudit); err != nil {
			return nil, err
		}

		uc.notifier.Notify(ctx, NotificationEvent{
			Type:         EventAppealAccepted,
			DisputeID:    disputeID,
			RecipientIDs: dispute.Participants,
		})
	} else {
		uc.notifier.Notify(ctx, NotificationEvent{
			Type:         EventAppealRejected,
			DisputeID:    disputeID,
			RecipientIDs: dispute.Participants,
		})
	}

	return appeal, nil
}

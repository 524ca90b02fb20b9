package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"bountyhub/internal/domain/entity"
	"bountyhub/internal/domain/repository"
	"bountyhub/pkg/errors"
	"bountyhub/pkg/logger"
)

// DisputeUseCase owns the dispute lifecycle state machine. All status
// transitions funnel through here, whether triggered by a party, an admin or
// the automation scheduler.
type DisputeUseCase struct {
	disputeRepo      repository.DisputeRepository
	cancellationRepo repository.CancellationRepository
	resolutionRepo   repository.ResolutionRepository
	appealRepo       repository.AppealRepository
	auditRepo        repository.AuditLogRepository
	notifier         Notifier
	windows          Windows
}

func NewDisputeUseCase(
	disputeRepo repository.DisputeRepository,
	cancellationRepo repository.CancellationRepository,
	resolutionRepo repository.ResolutionRepository,
	appealRepo repository.AppealRepository,
	auditRepo repository.AuditLogRepository,
	notifier Notifier,
	windows Windows,
) *DisputeUseCase {
	return &DisputeUseCase{
		disputeRepo:      disputeRepo,
		cancellationRepo: cancellationRepo,
		resolutionRepo:   resolutionRepo,
		appealRepo:       appealRepo,
		auditRepo:        auditRepo,
		notifier:         notifier,
		windows:          windows,
	}
}

type EvidenceInput struct {
	Kind        entity.EvidenceKind
	Text        string
	URL         string
	MediaRef    string
	Description string
}

type CreateDisputeInput struct {
	CancellationID string
	InitiatorID    string
	Reason         string
	Evidence       []EvidenceInput
}

func (uc *DisputeUseCase) CreateDispute(ctx context.Context, input CreateDisputeInput) (*entity.Dispute, error) {
	reason := strings.TrimSpace(input.Reason)
	if len(reason) < entity.MinReasonLength {
		return nil, errors.BadRequest("dispute reason must be at least 20 characters", nil)
	}

	cancellation, err := uc.cancellationRepo.GetByID(ctx, input.CancellationID)
	if err != nil {
		return nil, err
	}

	if !cancellation.IsParty(input.InitiatorID) {
		return nil, errors.Forbidden("Only a party to the cancellation may open a dispute", nil)
	}

	if existing, err := uc.disputeRepo.GetByCancellationID(ctx, input.CancellationID); err == nil && existing != nil {
		return nil, errors.Conflict("A dispute already exists for this cancellation")
	} else if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	now := time.Now()
	counterparty := cancellation.Counterparty(input.InitiatorID)

	dispute := &entity.Dispute{
		ID:             uuid.New().String(),
		CancellationID: cancellation.ID,
		BountyID:       cancellation.BountyID,
		InitiatorID:    input.InitiatorID,
		CounterpartyID: counterparty,
		Participants:   []string{input.InitiatorID, counterparty},
		Reason:         reason,
		Status:         entity.DisputeStatusOpen,
		EscrowAmount:   cancellation.EscrowAmount,
		LastActivityAt: now,
		AutoCloseAt:    now.Add(uc.windows.Inactivity),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	evidence := make([]*entity.Evidence, 0, len(input.Evidence))
	for _, in := range input.Evidence {
		ev, err := buildEvidence(dispute.ID, input.InitiatorID, in, now)
		if err != nil {
			return nil, err
		}
		evidence = append(evidence, ev)
	}

	audit := newAuditEntry(dispute.ID, entity.AuditDisputeCreated, input.InitiatorID, entity.ActorUser, map[string]interface{}{
		"cancellation_id": cancellation.ID,
		"bounty_id":       cancellation.BountyID,
		"evidence_count":  len(evidence),
	})

	if err := uc.disputeRepo.Create(ctx, dispute, evidence, audit); err != nil {
		return nil, err
	}

	uc.notifier.Notify(ctx, NotificationEvent{
		Type:         EventDisputeCreated,
		DisputeID:    dispute.ID,
		RecipientIDs: []string{counterparty},
		Payload: map[string]interface{}{
			"bounty_id": dispute.BountyID,
			"reason":    reason,
		},
	})

	logger.Info("Dispute %s created for cancellation %s by %s", dispute.ID, cancellation.ID, input.InitiatorID)
	return dispute, nil
}

// MarkUnderReview transitions an open or reopened dispute into admin review.
// Calling it on a dispute already under review or later is a warned no-op.
func (uc *DisputeUseCase) MarkUnderReview(ctx context.Context, disputeID, adminID string) (*entity.Dispute, error) {
	dispute, err := uc.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	switch dispute.Status {
	case entity.DisputeStatusOpen, entity.DisputeStatusReopened:
		// proceed
	case entity.DisputeStatusUnderReview, entity.DisputeStatusResolved, entity.DisputeStatusClosed:
		logger.Warn("markUnderReview no-op: dispute %s already %s", disputeID, dispute.Status)
		return dispute, nil
	}

	from := dispute.Status
	audit := newAuditEntry(disputeID, entity.AuditStatusChanged, adminID, entity.ActorAdmin, map[string]interface{}{
		"from": string(from),
		"to":   string(entity.DisputeStatusUnderReview),
	})

	updated, err := uc.disputeRepo.Transition(ctx, disputeID,
		[]entity.DisputeStatus{entity.DisputeStatusOpen, entity.DisputeStatusReopened},
		func(d *entity.Dispute) error {
			d.Status = entity.DisputeStatusUnderReview
			d.UpdatedAt = time.Now()
			return nil
		}, audit)
	if err != nil {
		return nil, err
	}

	uc.notifier.Notify(ctx, NotificationEvent{
		Type:         EventDisputeUnderReview,
		DisputeID:    disputeID,
		RecipientIDs: updated.Participants,
	})

	return updated, nil
}

// Close terminates a dispute from open or under_review. Used by admin action
// and by the auto-close job.
func (uc *DisputeUseCase) Close(ctx context.Context, disputeID, reason, actorID string, actorType entity.ActorType) (*entity.Dispute, error) {
	action := entity.AuditStatusChanged
	if actorType == entity.ActorSystem {
		action = entity.AuditAutoClosed
	}

	audit := newAuditEntry(disputeID, action, actorID, actorType, map[string]interface{}{
		"to":     string(entity.DisputeStatusClosed),
		"reason": reason,
	})

	updated, err := uc.disputeRepo.Transition(ctx, disputeID,
		[]entity.DisputeStatus{entity.DisputeStatusOpen, entity.DisputeStatusUnderReview},
		func(d *entity.Dispute) error {
			now := time.Now()
			d.Status = entity.DisputeStatusClosed
			d.CloseReason = reason
			d.ClosedBy = actorType
			d.ClosedAt = &now
			d.UpdatedAt = now
			return nil
		}, audit)
	if err != nil {
		return nil, err
	}

	event := NotificationEvent{
		Type:         EventDisputeClosed,
		DisputeID:    disputeID,
		RecipientIDs: updated.Participants,
		Payload:      map[string]interface{}{"reason": reason},
	}
	if actorType == entity.ActorSystem {
		// Auto-closure notifies the initiator only.
		event.Type = EventDisputeAutoClosed
		event.RecipientIDs = []string{updated.InitiatorID}
	}
	uc.notifier.Notify(ctx, event)

	return updated, nil
}

// GetDispute enforces dispute-level authorization: only the parties and
// admins may read a dispute.
func (uc *DisputeUseCase) GetDispute(ctx context.Context, disputeID, viewerID, viewerRole string) (*entity.Dispute, error) {
	dispute, err := uc.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if viewerRole != "admin" && !dispute.IsParty(viewerID) {
		return nil, errors.Forbidden("Not a party to this dispute", nil)
	}

	return dispute, nil
}

// ListDisputes returns the viewer's disputes, or all disputes for admins
// (escalated first, then oldest first, so the review queue surfaces what
// needs attention).
func (uc *DisputeUseCase) ListDisputes(ctx context.Context, status string, viewerID, viewerRole string, limit, offset int) ([]*entity.Dispute, int64, error) {
	filter := map[string]interface{}{}
	if status != "" {
		filter["status"] = status
	}
	if viewerRole != "admin" {
		filter["participant"] = viewerID
	}

	disputes, total, err := uc.disputeRepo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	if viewerRole == "admin" {
		sort.SliceStable(disputes, func(i, j int) bool {
			if disputes[i].Escalated != disputes[j].Escalated {
				return disputes[i].Escalated
			}
			return disputes[i].CreatedAt.Before(disputes[j].CreatedAt)
		})
	}

	return disputes, total, nil
}

// Stats returns dispute counts by status for the admin dashboard.
func (uc *DisputeUseCase) Stats(ctx context.Context) (map[entity.DisputeStatus]int64, error) {
	return uc.disputeRepo.CountByStatus(ctx)
}

// TimelineItem is one event in a dispute's merged chronological history.
type TimelineItem struct {
	At   time.Time   `json:"at"`
	Kind string      `json:"kind"` // evidence, comment, resolution, appeal, audit
	Item interface{} `json:"item"`
}

// GetTimeline assembles evidence, comments, resolutions, the appeal and the
// audit trail into one chronological view. Internal comments are stripped for
// non-admin viewers.
func (uc *DisputeUseCase) GetTimeline(ctx context.Context, disputeID, viewerID, viewerRole string) ([]TimelineItem, error) {
	dispute, err := uc.GetDispute(ctx, disputeID, viewerID, viewerRole)
	if err != nil {
		return nil, err
	}

	var items []TimelineItem

	evidence, err := uc.disputeRepo.ListEvidence(ctx, dispute.ID)
	if err != nil {
		return nil, err
	}
	for _, ev := range evidence {
		items = append(items, TimelineItem{At: ev.CreatedAt, Kind: "evidence", Item: ev})
	}

	comments, err := uc.disputeRepo.ListComments(ctx, dispute.ID)
	if err != nil {
		return nil, err
	}
	for _, cm := range comments {
		if cm.Internal && viewerRole != "admin" {
			continue
		}
		items = append(items, TimelineItem{At: cm.CreatedAt, Kind: "comment", Item: cm})
	}

	resolutions, err := uc.resolutionRepo.ListByDispute(ctx, dispute.ID)
	if err != nil {
		return nil, err
	}
	for _, res := range resolutions {
		items = append(items, TimelineItem{At: res.CreatedAt, Kind: "resolution", Item: res})
	}

	if appeal, err := uc.appealRepo.GetByDispute(ctx, dispute.ID); err == nil {
		items = append(items, TimelineItem{At: appeal.CreatedAt, Kind: "appeal", Item: appeal})
	} else if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	audits, err := uc.auditRepo.ListByDispute(ctx, dispute.ID)
	if err != nil {
		return nil, err
	}
	for _, entry := range audits {
		items = append(items, TimelineItem{At: entry.CreatedAt, Kind: "audit", Item: entry})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].At.Before(items[j].At)
	})

	return items, nil
}

func buildEvidence(disputeID, uploaderID string, in EvidenceInput, now time.Time) (*entity.Evidence, error) {
	ev := &entity.Evidence{
		ID:          uuid.New().String(),
		DisputeID:   disputeID,
		Kind:        in.Kind,
		Description: in.Description,
		UploadedBy:  uploaderID,
		CreatedAt:   now,
	}

	switch in.Kind {
	case entity.EvidenceKindText:
		if strings.TrimSpace(in.Text) == "" {
			return nil, errors.BadRequest("text evidence requires a text body", nil)
		}
		ev.Text = in.Text
	case entity.EvidenceKindLink:
		if strings.TrimSpace(in.URL) == "" {
			return nil, errors.BadRequest("link evidence requires a url", nil)
		}
		ev.URL = in.URL
	case entity.EvidenceKindMedia:
		if strings.TrimSpace(in.MediaRef) == "" {
			return nil, errors.BadRequest("media evidence requires a media reference", nil)
		}
		ev.MediaRef = in.MediaRef
	default:
		return nil, errors.BadRequest("unknown evidence kind", nil)
	}

	return ev, nil
}

func newAuditEntry(disputeID, action, actorID string, actorType entity.ActorType, details map[string]interface{}) *entity.AuditLogEntry {
	return &entity.AuditLogEntry{
		ID:        uuid.New().String(),
		DisputeID: disputeID,
		Action:    action,
		ActorID:   actorID,
		ActorType: actorType,
		Details:   details,
		CreatedAt: time.Now(),
	}
}

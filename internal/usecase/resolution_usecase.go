package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"bountyhub/internal/domain/entity"
	"bountyhub/internal/domain/repository"
	"bountyhub/internal/domain/service"
	"bountyhub/pkg/errors"
	"bountyhub/pkg/logger"
)

const (
	settlementAttempts = 3
	settlementBackoff  = 500 * time.Millisecond
)

// ResolutionUseCase computes and records fund-allocation outcomes and drives
// the external settlement rail. Deciding and settling are separate: the
// Resolution record is written once, and settlement is retried through an
// idempotency key, never re-decided.
type ResolutionUseCase struct {
	disputeRepo    repository.DisputeRepository
	resolutionRepo repository.ResolutionRepository
	settlement     service.SettlementGateway
	notifier       Notifier
}

func NewResolutionUseCase(
	disputeRepo repository.DisputeRepository,
	resolutionRepo repository.ResolutionRepository,
	settlement service.SettlementGateway,
	notifier Notifier,
) *ResolutionUseCase {
	return &ResolutionUseCase{
		disputeRepo:    disputeRepo,
		resolutionRepo: resolutionRepo,
		settlement:     settlement,
		notifier:       notifier,
	}
}

type ProposeResolutionInput struct {
	DisputeID   string
	AdminID     string
	Outcome     entity.ResolutionOutcome
	Allocations []entity.Allocation
	// Shares may be used instead of Allocations to express a percentage
	// split; each share must divide the escrow exactly.
	Shares    []entity.PercentShare
	Rationale string
}

func (uc *ResolutionUseCase) ProposeResolution(ctx context.Context, input ProposeResolutionInput) (*entity.Resolution, error) {
	if len(strings.TrimSpace(input.Rationale)) < entity.MinRationaleLength {
		return nil, errors.BadRequest("resolution rationale must be at least 50 characters", nil)
	}

	switch input.Outcome {
	case entity.OutcomeRelease, entity.OutcomeRefund, entity.OutcomeSplit, entity.OutcomeOther:
	default:
		return nil, errors.BadRequest("outcome must be one of: release, refund, split, other", nil)
	}

	dispute, err := uc.disputeRepo.GetByID(ctx, input.DisputeID)
	if err != nil {
		return nil, err
	}

	if dispute.Status != entity.DisputeStatusUnderReview {
		return nil, errors.InvalidState("resolution requires the dispute to be under review")
	}

	allocations := input.Allocations
	if len(input.Shares) > 0 {
		if len(allocations) > 0 {
			return nil, errors.BadRequest("provide either explicit allocations or percentage shares, not both", nil)
		}
		allocations, err = entity.AllocationsFromPercentages(dispute.EscrowAmount, input.Shares)
		if err != nil {
			return nil, err
		}
	}

	if err := entity.ReconcileAllocations(dispute.EscrowAmount, allocations); err != nil {
		return nil, err
	}

	if err := validateParties(dispute, input.Outcome, allocations); err != nil {
		return nil, err
	}

	resolution := &entity.Resolution{
		ID:               uuid.New().String(),
		DisputeID:        dispute.ID,
		Outcome:          input.Outcome,
		Allocations:      allocations,
		Rationale:        input.Rationale,
		ResolvedBy:       input.AdminID,
		SettlementStatus: entity.SettlementPending,
		CreatedAt:        time.Now(),
	}

	audit := newAuditEntry(dispute.ID, entity.AuditResolutionDecision, input.AdminID, entity.ActorAdmin, map[string]interface{}{
		"resolution_id": resolution.ID,
		"outcome":       string(input.Outcome),
	})

	// Atomic with the under_review -> resolved transition; a concurrent
	// proposal loses with INVALID_STATE.
	if _, err := uc.resolutionRepo.Create(ctx, resolution, audit); err != nil {
		return nil, err
	}

	uc.notifier.Notify(ctx, NotificationEvent{
		Type:         EventDisputeResolved,
		DisputeID:    dispute.ID,
		RecipientIDs: dispute.Participants,
		Payload: map[string]interface{}{
			"outcome":   string(input.Outcome),
			"rationale": resolution.RationaleSummary(),
		},
	})

	// The decision stands regardless of the rail; a failed invocation leaves
	// the resolution pending_settlement for the retry job.
	if err := uc.SettleResolution(ctx, resolution); err != nil {
		logger.Warn("Settlement pending for dispute %s, resolution %s: %v", dispute.ID, resolution.ID, err)
	}

	return resolution, nil
}

// SettleResolution invokes the settlement rail with bounded backoff. Safe to
// re-run: the invocation is idempotent per (disputeID, resolutionID) and an
// already-settled resolution is a no-op.
func (uc *ResolutionUseCase) SettleResolution(ctx context.Context, resolution *entity.Resolution) error {
	if resolution.SettlementStatus == entity.SettlementSettled {
		return nil
	}

	req := service.SettlementRequest{
		DisputeID:      resolution.DisputeID,
		ResolutionID:   resolution.ID,
		Allocations:    resolution.Allocations,
		IdempotencyKey: resolution.IdempotencyKey(),
	}

	var lastErr error
	backoff := settlementBackoff
	for attempt := 1; attempt <= settlementAttempts; attempt++ {
		receipt, err := uc.settlement.Settle(ctx, req)
		if err == nil {
			audit := newAuditEntry(resolution.DisputeID, entity.AuditSettlementSettled, "automation", entity.ActorSystem, map[string]interface{}{
				"resolution_id": resolution.ID,
				"receipt_id":    receipt.ReceiptID,
			})
			if err := uc.resolutionRepo.MarkSettled(ctx, resolution.DisputeID, resolution.ID, receipt.SettledAt, audit); err != nil {
				return err
			}
			resolution.SettlementStatus = entity.SettlementSettled
			settledAt := receipt.SettledAt
			resolution.SettledAt = &settledAt
			return nil
		}

		lastErr = err
		logger.Warn("Settlement attempt %d/%d failed for resolution %s: %v", attempt, settlementAttempts, resolution.ID, err)

		if attempt < settlementAttempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return errors.Settlement("settlement aborted", ctx.Err())
			}
			backoff *= 2
		}
	}

	return errors.Settlement("settlement rail failed after retries", lastErr)
}

// GetResolution returns the active resolution for a dispute.
func (uc *ResolutionUseCase) GetResolution(ctx context.Context, disputeID, viewerID, viewerRole string) (*entity.Resolution, error) {
	dispute, err := uc.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if viewerRole != "admin" && !dispute.IsParty(viewerID) {
		return nil, errors.Forbidden("Not a party to this dispute", nil)
	}
	return uc.resolutionRepo.Active(ctx, disputeID)
}

// validateParties checks allocations name only dispute parties, and that a
// split names both of them.
func validateParties(dispute *entity.Dispute, outcome entity.ResolutionOutcome, allocations []entity.Allocation) error {
	seen := map[string]bool{}
	for _, a := range allocations {
		if !dispute.IsParty(a.PartyID) {
			return errors.AllocationMismatch("allocation party " + a.PartyID + " is not a party to the dispute")
		}
		if seen[a.PartyID] {
			return errors.AllocationMismatch("duplicate allocation for party " + a.PartyID)
		}
		seen[a.PartyID] = true
	}

	if outcome == entity.OutcomeSplit {
		if !seen[dispute.InitiatorID] || !seen[dispute.CounterpartyID] {
			return errors.AllocationMismatch("split outcome must allocate shares to both parties")
		}
	}

	return nil
}

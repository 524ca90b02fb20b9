package usecase

import (
	"context"
	"time"

	"bountyhub/internal/domain/entity"
	"bountyhub/internal/domain/repository"
	"bountyhub/pkg/errors"
	"bountyhub/pkg/logger"
)

// SchedulerUseCase runs the recurring automation jobs: auto-closing stale
// disputes, escalating stagnant ones, and retrying pending settlements. Every
// job is idempotent and safe under at-least-once scheduling; each item is
// processed independently so one failure never aborts the batch.
type SchedulerUseCase struct {
	disputeRepo    repository.DisputeRepository
	resolutionRepo repository.ResolutionRepository
	disputeUC      *DisputeUseCase
	resolutionUC   *ResolutionUseCase
	notifier       Notifier
	windows        Windows
	batchSize      int
}

func NewSchedulerUseCase(
	disputeRepo repository.DisputeRepository,
	resolutionRepo repository.ResolutionRepository,
	disputeUC *DisputeUseCase,
	resolutionUC *ResolutionUseCase,
	notifier Notifier,
	windows Windows,
	batchSize int,
) *SchedulerUseCase {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &SchedulerUseCase{
		disputeRepo:    disputeRepo,
		resolutionRepo: resolutionRepo,
		disputeUC:      disputeUC,
		resolutionUC:   resolutionUC,
		notifier:       notifier,
		windows:        windows,
		batchSize:      batchSize,
	}
}

// ProcessAutoClose closes disputes whose inactivity deadline has passed.
// Returns the number of disputes closed.
func (uc *SchedulerUseCase) ProcessAutoClose(ctx context.Context) (int, error) {
	due, err := uc.disputeRepo.ListAutoCloseDue(ctx, time.Now(), uc.batchSize)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, dispute := range due {
		_, err := uc.disputeUC.Close(ctx, dispute.ID,
			"Automatically closed after the inactivity deadline passed",
			"automation", entity.ActorSystem)
		if err != nil {
			// A racing admin action moved the dispute first; that's fine.
			if errors.Is(err, "INVALID_STATE") {
				logger.Debug("Auto-close skipped dispute %s: %v", dispute.ID, err)
				continue
			}
			logger.Error("Auto-close failed for dispute %s: %v", dispute.ID, err)
			continue
		}
		closed++
	}

	logger.Info("Auto-close processed: %d of %d disputes closed", closed, len(due))
	return closed, nil
}

// ProcessEscalations flags disputes that stayed unresolved past the
// escalation window. Escalation never changes status.
func (uc *SchedulerUseCase) ProcessEscalations(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-uc.windows.Escalation)
	due, err := uc.disputeRepo.ListEscalationDue(ctx, cutoff, uc.batchSize)
	if err != nil {
		return 0, err
	}

	escalated := 0
	for _, dispute := range due {
		audit := newAuditEntry(dispute.ID, entity.AuditEscalated, "automation", entity.ActorSystem, map[string]interface{}{
			"created_at": dispute.CreatedAt,
		})

		_, err := uc.disputeRepo.Transition(ctx, dispute.ID,
			[]entity.DisputeStatus{entity.DisputeStatusOpen, entity.DisputeStatusUnderReview},
			func(d *entity.Dispute) error {
				if d.Escalated {
					return errors.InvalidState("dispute already escalated")
				}
				now := time.Now()
				d.Escalated = true
				d.EscalatedAt = &now
				d.UpdatedAt = now
				return nil
			}, audit)
		if err != nil {
			if errors.Is(err, "INVALID_STATE") {
				logger.Debug("Escalation skipped dispute %s: %v", dispute.ID, err)
				continue
			}
			logger.Error("Escalation failed for dispute %s: %v", dispute.ID, err)
			continue
		}

		uc.notifier.Notify(ctx, NotificationEvent{
			Type:      EventDisputeEscalated,
			DisputeID: dispute.ID,
			Topic:     AdminTopic,
			Priority:  "high",
		})
		escalated++
	}

	logger.Info("Escalation processed: %d of %d disputes escalated", escalated, len(due))
	return escalated, nil
}

// ProcessPendingSettlements re-drives resolutions that never reached the
// settlement rail. The idempotency key guarantees no double disbursal.
func (uc *SchedulerUseCase) ProcessPendingSettlements(ctx context.Context) (int, error) {
	pending, err := uc.resolutionRepo.ListPendingSettlement(ctx, uc.batchSize)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, resolution := range pending {
		if err := uc.resolutionUC.SettleResolution(ctx, resolution); err != nil {
			logger.Warn("Settlement retry failed for resolution %s: %v", resolution.ID, err)
			continue
		}
		settled++
	}

	if len(pending) > 0 {
		logger.Info("Settlement retry processed: %d of %d resolutions settled", settled, len(pending))
	}
	return settled, nil
}

// RunOnce executes all three jobs once. Exposed so an external orchestrator
// can trigger a pass without the ticker.
func (uc *SchedulerUseCase) RunOnce(ctx context.Context) {
	if _, err := uc.ProcessAutoClose(ctx); err != nil {
		logger.Error("Auto-close job error: %v", err)
	}
	if _, err := uc.ProcessEscalations(ctx); err != nil {
		logger.Error("Escalation job error: %v", err)
	}
	if _, err := uc.ProcessPendingSettlements(ctx); err != nil {
		logger.Error("Settlement retry job error: %v", err)
	}
}

// Start runs the jobs on a fixed interval until ctx is cancelled.
func (uc *SchedulerUseCase) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-ticker.C:
				uc.RunOnce(ctx)
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()

	logger.Info("Dispute automation jobs started (interval %s)", interval)
}

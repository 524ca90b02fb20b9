package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bountyhub/internal/domain/entity"
)

func expire(f *fixture, disputeID string) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.disputes[disputeID].AutoCloseAt = time.Now().Add(-time.Hour)
}

func TestProcessAutoClose(t *testing.T) {
	f := newFixture()
	dispute := f.openDispute(t, "cxl-1", 10000)
	expire(f, dispute.ID)

	closed, err := f.scheduler.ProcessAutoClose(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	updated, err := f.disputes.GetDispute(context.Background(), dispute.ID, "admin-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, entity.DisputeStatusClosed, updated.Status)
	assert.Equal(t, entity.ActorSystem, updated.ClosedBy)
	assert.Contains(t, f.st.auditActions(dispute.ID), entity.AuditAutoClosed)

	// Auto-closure notifies the initiator only.
	events := f.notifier.byType(EventDisputeAutoClosed)
	require.Len(t, events, 1)
	assert.Equal(t, []string{dispute.InitiatorID}, events[0].RecipientIDs)
}

func TestProcessAutoCloseIdempotent(t *testing.T) {
	f := newFixture()
	dispute := f.openDispute(t, "cxl-1", 10000)
	expire(f, dispute.ID)

	closed, err := f.scheduler.ProcessAutoClose(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, closed)

	closed, err = f.scheduler.ProcessAutoClose(context.Background())
	require.NoError(t, err)
	assert.Zero(t, closed, "a second pass finds nothing to do")
	assert.Len(t, f.notifier.byType(EventDisputeAutoClosed), 1)
}

func TestProcessAutoCloseSkipsActiveDispute(t *testing.T) {
	f := newFixture()
	dispute := f.openDispute(t, "cxl-1", 10000)

	closed, err := f.scheduler.ProcessAutoClose(context.Background())
	require.NoError(t, err)
	assert.Zero(t, closed)

	updated, err := f.disputes.GetDispute(context.Background(), dispute.ID, "admin-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, entity.DisputeStatusOpen, updated.Status)
}

func TestProcessEscalations(t *testing.T) {
	f := newFixture()
	dispute := f.reviewedDispute(t, "cxl-1", 10000)

	// Age the dispute past the escalation window.
	f.st.mu.Lock()
	f.st.disputes[dispute.ID].CreatedAt = time.Now().Add(-f.windows.Escalation - time.Hour)
	f.st.mu.Unlock()

	escalated, err := f.scheduler.ProcessEscalations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, escalated)

	updated, err := f.disputes.GetDispute(context.Background(), dispute.ID, "admin-1", "admin")
	require.NoError(t, err)
	assert.True(t, updated.Escalated)
	assert.NotNil(t, updated.EscalatedAt)
	assert.Equal(t, entity.DisputeStatusUnderReview, updated.Status, "escalation never changes status")

	events := f.notifier.byType(EventDisputeEscalated)
	require.Len(t, events, 1)
	assert.Equal(t, AdminTopic, events[0].Topic)
	assert.Equal(t, "high", events[0].Priority)

	// Already-escalated disputes are not flagged twice.
	escalated, err = f.scheduler.ProcessEscalations(context.Background())
	require.NoError(t, err)
	assert.Zero(t, escalated)
	assert.Len(t, f.notifier.byType(EventDisputeEscalated), 1)
}

func TestRunOnceCoversAllJobs(t *testing.T) {
	f := newFixture()
	stale := f.openDispute(t, "cxl-1", 10000)
	expire(f, stale.ID)

	f.st.mu.Lock()
	f.st.cancellations["cxl-2"] = &entity.Cancellation{
		ID: "cxl-2", BountyID: "bounty-cxl-2",
		PosterID: "poster-2", HunterID: "hunter-2",
		EscrowAmount: 4000, CreatedAt: time.Now(),
	}
	f.st.mu.Unlock()
	aged, err := f.disputes.CreateDispute(context.Background(), CreateDisputeInput{
		CancellationID: "cxl-2",
		InitiatorID:    "hunter-2",
		Reason:         "Cancellation came in long after the agreed delivery deadline",
	})
	require.NoError(t, err)
	f.st.mu.Lock()
	f.st.disputes[aged.ID].CreatedAt = time.Now().Add(-f.windows.Escalation - time.Hour)
	f.st.mu.Unlock()

	f.scheduler.RunOnce(context.Background())

	closedDispute, err := f.disputes.GetDispute(context.Background(), stale.ID, "admin-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, entity.DisputeStatusClosed, closedDispute.Status)

	agedDispute, err := f.disputes.GetDispute(context.Background(), aged.ID, "admin-1", "admin")
	require.NoError(t, err)
	assert.True(t, agedDispute.Escalated)
}

func TestSchedulerStartStopsOnCancel(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())

	f.scheduler.Start(ctx, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	cancel()
	// Nothing to assert beyond not deadlocking; the goroutine exits on cancel.
}

package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bountyhub/internal/domain/entity"
	"bountyhub/pkg/errors"
)

func TestCreateDispute(t *testing.T) {
	f := newFixture()
	f.seedCancellation("cxl-1", 10000)

	dispute, err := f.disputes.CreateDispute(context.Background(), CreateDisputeInput{
		CancellationID: "cxl-1",
		InitiatorID:    "hunter-1",
		Reason:         "The poster cancelled after the work was already delivered in full",
		Evidence: []EvidenceInput{
			{Kind: entity.EvidenceKindText, Text: "Delivery confirmation from the chat log"},
			{Kind: entity.EvidenceKindLink, URL: "https://example.com/delivery-proof"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.DisputeStatusOpen, dispute.Status)
	assert.Equal(t, "hunter-1", dispute.InitiatorID)
	assert.Equal(t, "poster-1", dispute.CounterpartyID)
	assert.Equal(t, int64(10000), dispute.EscrowAmount)
	assert.ElementsMatch(t, []string{"hunter-1", "poster-1"}, dispute.Participants)
	assert.Equal(t, dispute.LastActivityAt.Add(f.windows.Inactivity), dispute.AutoCloseAt)

	evidence, err := f.ledger.ListEvidence(context.Background(), dispute.ID, "hunter-1", "user")
	require.NoError(t, err)
	assert.Len(t, evidence, 2)

	assert.Contains(t, f.st.auditActions(dispute.ID), entity.AuditDisputeCreated)

	created := f.notifier.byType(EventDisputeCreated)
	require.Len(t, created, 1)
	assert.Equal(t, []string{"poster-1"}, created[0].RecipientIDs)
}

func TestCreateDisputeShortReason(t *testing.T) {
	f := newFixture()
	f.seedCancellation("cxl-1", 10000)

	_, err := f.disputes.CreateDispute(context.Background(), CreateDisputeInput{
		CancellationID: "cxl-1",
		InitiatorID:    "hunter-1",
		Reason:         "too short",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
}

func TestCreateDisputeNotAParty(t *testing.T) {
	f := newFixture()
	f.seedCancellation("cxl-1", 10000)

	_, err := f.disputes.CreateDispute(context.Background(), CreateDisputeInput{
		CancellationID: "cxl-1",
		InitiatorID:    "stranger-9",
		Reason:         "The poster cancelled after the work was already delivered in full",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestCreateDisputeDuplicate(t *testing.T) {
	f := newFixture()
	f.openDispute(t, "cxl-1", 10000)

	_, err := f.disputes.CreateDispute(context.Background(), CreateDisputeInput{
		CancellationID: "cxl-1",
		InitiatorID:    "poster-1",
		Reason:         "I want to contest the same cancellation a second time here",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "CONFLICT"))
}

func TestMarkUnderReview(t *testing.T) {
	f := newFixture()
	dispute := f.openDispute(t, "cxl-1", 10000)

	updated, err := f.disputes.MarkUnderReview(context.Background(), dispute.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, entity.DisputeStatusUnderReview, updated.Status)
	assert.Contains(t, f.st.auditActions(dispute.ID), entity.AuditStatusChanged)
}

func TestMarkUnderReviewIdempotentNoOp(t *testing.T) {
	f := newFixture()
	dispute := f.reviewedDispute(t, "cxl-1", 10000)

	before := len(f.st.auditActions(dispute.ID))

	again, err := f.disputes.MarkUnderReview(context.Background(), dispute.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, entity.DisputeStatusUnderReview, again.Status)
	assert.Len(t, f.st.auditActions(dispute.ID), before, "no-op must not append audit entries")
}

func TestCloseFromOpen(t *testing.T) {
	f := newFixture()
	dispute := f.openDispute(t, "cxl-1", 10000)

	updated, err := f.disputes.Close(context.Background(), dispute.ID, "Parties settled privately", "admin-1", entity.ActorAdmin)
	require.NoError(t, err)
	assert.Equal(t, entity.DisputeStatusClosed, updated.Status)
	assert.Equal(t, entity.ActorAdmin, updated.ClosedBy)
	assert.NotNil(t, updated.ClosedAt)

	closed := f.notifier.byType(EventDisputeClosed)
	require.Len(t, closed, 1)
	assert.ElementsMatch(t, dispute.Participants, closed[0].RecipientIDs)
}

func TestCloseTerminalIsFinal(t *testing.T) {
	f := newFixture()
	dispute := f.openDispute(t, "cxl-1", 10000)

	_, err := f.disputes.Close(context.Background(), dispute.ID, "done", "admin-1", entity.ActorAdmin)
	require.NoError(t, err)

	_, err = f.disputes.Close(context.Background(), dispute.ID, "again", "admin-1", entity.ActorAdmin)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "INVALID_STATE"))

	stored, err := f.disputes.GetDispute(context.Background(), dispute.ID, "admin-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, entity.DisputeStatusClosed, stored.Status)
	assert.Equal(t, "done", stored.CloseReason, "failed transition must leave the record untouched")
}

func TestGetDisputeAuthorization(t *testing.T) {
	f := newFixture()
	dispute := f.openDispute(t, "cxl-1", 10000)

	_, err := f.disputes.GetDispute(context.Background(), dispute.ID, "stranger-9", "user")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	_, err = f.disputes.GetDispute(context.Background(), dispute.ID, "poster-1", "user")
	assert.NoError(t, err)

	_, err = f.disputes.GetDispute(context.Background(), dispute.ID, "admin-1", "admin")
	assert.NoError(t, err)
}

func TestListDisputesScopedToParticipant(t *testing.T) {
	f := newFixture()
	f.openDispute(t, "cxl-1", 10000)

	f.st.mu.Lock()
	f.st.cancellations["cxl-2"] = &entity.Cancellation{
		ID: "cxl-2", BountyID: "bounty-cxl-2",
		PosterID: "poster-2", HunterID: "hunter-2",
		EscrowAmount: 5000, CreatedAt: time.Now(),
	}
	f.st.mu.Unlock()
	_, err := f.disputes.CreateDispute(context.Background(), CreateDisputeInput{
		CancellationID: "cxl-2",
		InitiatorID:    "hunter-2",
		Reason:         "Cancellation came in long after the agreed delivery deadline",
	})
	require.NoError(t, err)

	mine, _, err := f.disputes.ListDisputes(context.Background(), "", "hunter-1", "user", 20, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "hunter-1", mine[0].InitiatorID)

	all, _, err := f.disputes.ListDisputes(context.Background(), "", "admin-1", "admin", 20, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListDisputesAdminEscalatedFirst(t *testing.T) {
	f := newFixture()
	a := f.openDispute(t, "cxl-1", 10000)

	f.st.mu.Lock()
	f.st.cancellations["cxl-2"] = &entity.Cancellation{
		ID: "cxl-2", BountyID: "bounty-cxl-2",
		PosterID: "poster-2", HunterID: "hunter-2",
		EscrowAmount: 5000, CreatedAt: time.Now(),
	}
	f.st.mu.Unlock()
	b, err := f.disputes.CreateDispute(context.Background(), CreateDisputeInput{
		CancellationID: "cxl-2",
		InitiatorID:    "hunter-2",
		Reason:         "Cancellation came in long after the agreed delivery deadline",
	})
	require.NoError(t, err)

	// Flag the younger dispute as escalated.
	f.st.mu.Lock()
	f.st.disputes[b.ID].Escalated = true
	f.st.mu.Unlock()

	queue, _, err := f.disputes.ListDisputes(context.Background(), "", "admin-1", "admin", 20, 0)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, b.ID, queue[0].ID, "escalated disputes lead the admin queue")
	assert.Equal(t, a.ID, queue[1].ID)
}

func TestGetTimelineMergedAndFiltered(t *testing.T) {
	f := newFixture()
	dispute := f.openDispute(t, "cxl-1", 10000)

	_, err := f.ledger.AddEvidence(context.Background(), dispute.ID, "hunter-1", "user", EvidenceInput{
		Kind: entity.EvidenceKindText, Text: "Chat transcript of the delivery",
	})
	require.NoError(t, err)
	_, err = f.ledger.AddComment(context.Background(), dispute.ID, "poster-1", "user", "I never received anything usable", false)
	require.NoError(t, err)
	_, err = f.ledger.AddComment(context.Background(), dispute.ID, "admin-1", "admin", "Hunter's evidence looks solid", true)
	require.NoError(t, err)

	adminView, err := f.disputes.GetTimeline(context.Background(), dispute.ID, "admin-1", "admin")
	require.NoError(t, err)

	partyView, err := f.disputes.GetTimeline(context.Background(), dispute.ID, "poster-1", "user")
	require.NoError(t, err)

	assert.Equal(t, len(adminView)-1, len(partyView), "internal comment is admin-only")
	for i := 1; i < len(partyView); i++ {
		assert.False(t, partyView[i].At.Before(partyView[i-1].At), "timeline must be chronological")
	}
}

func TestStats(t *testing.T) {
	f := newFixture()
	dispute := f.openDispute(t, "cxl-1", 10000)
	_, err := f.disputes.MarkUnderReview(context.Background(), dispute.ID, "admin-1")
	require.NoError(t, err)

	stats, err := f.disputes.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[entity.DisputeStatusUnderReview])
	assert.Zero(t, stats[entity.DisputeStatusOpen])
}

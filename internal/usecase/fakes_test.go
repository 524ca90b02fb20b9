package usecase

import (
	"context"
	"sync"
	"time"

	"bountyhub/internal/domain/entity"
	"bountyhub/internal/domain/repository"
	"bountyhub/internal/domain/service"
	"bountyhub/pkg/errors"
)

// memState is the shared in-memory backing store for the fake repositories.
// Mutating methods mirror the production guards: status is checked against
// the stored record and mutations apply to a copy, so a failed guard leaves
// the store untouched.
type memState struct {
	mu sync.Mutex

	disputes      map[string]*entity.Dispute
	evidence      map[string][]*entity.Evidence
	comments      map[string][]*entity.Comment
	resolutions   map[string]*entity.Resolution
	appeals       map[string]*entity.Appeal // keyed by dispute id
	audits        map[string][]*entity.AuditLogEntry
	cancellations map[string]*entity.Cancellation
}

func newMemState() *memState {
	return &memState{
		disputes:      map[string]*entity.Dispute{},
		evidence:      map[string][]*entity.Evidence{},
		comments:      map[string][]*entity.Comment{},
		resolutions:   map[string]*entity.Resolution{},
		appeals:       map[string]*entity.Appeal{},
		audits:        map[string][]*entity.AuditLogEntry{},
		cancellations: map[string]*entity.Cancellation{},
	}
}

func (s *memState) auditActions(disputeID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var actions []string
	for _, a := range s.audits[disputeID] {
		actions = append(actions, a.Action)
	}
	return actions
}

func cloneDispute(d *entity.Dispute) *entity.Dispute {
	c := *d
	c.Participants = append([]string(nil), d.Participants...)
	return &c
}

type fakeDisputeRepo struct {
	st *memState
}

func (r *fakeDisputeRepo) Create(ctx context.Context, dispute *entity.Dispute, evidence []*entity.Evidence, audit *entity.AuditLogEntry) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	for _, d := range r.st.disputes {
		if d.CancellationID == dispute.CancellationID {
			return errors.Conflict("A dispute already exists for this cancellation")
		}
	}

	r.st.disputes[dispute.ID] = cloneDispute(dispute)
	r.st.evidence[dispute.ID] = append(r.st.evidence[dispute.ID], evidence...)
	if audit != nil {
		r.st.audits[dispute.ID] = append(r.st.audits[dispute.ID], audit)
	}
	return nil
}

func (r *fakeDisputeRepo) GetByID(ctx context.Context, id string) (*entity.Dispute, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	d, ok := r.st.disputes[id]
	if !ok {
		return nil, errors.NotFound("Dispute", nil)
	}
	return cloneDispute(d), nil
}

func (r *fakeDisputeRepo) GetByCancellationID(ctx context.Context, cancellationID string) (*entity.Dispute, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	for _, d := range r.st.disputes {
		if d.CancellationID == cancellationID {
			return cloneDispute(d), nil
		}
	}
	return nil, errors.NotFound("Dispute", nil)
}

func (r *fakeDisputeRepo) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]*entity.Dispute, int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	var out []*entity.Dispute
	for _, d := range r.st.disputes {
		if status, ok := filter["status"].(string); ok && string(d.Status) != status {
			continue
		}
		if participant, ok := filter["participant"].(string); ok && !d.IsParty(participant) {
			continue
		}
		out = append(out, cloneDispute(d))
	}
	return out, int64(len(out)), nil
}

func (r *fakeDisputeRepo) CountByStatus(ctx context.Context) (map[entity.DisputeStatus]int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	counts := map[entity.DisputeStatus]int64{}
	for _, d := range r.st.disputes {
		counts[d.Status]++
	}
	return counts, nil
}

func (r *fakeDisputeRepo) ListAutoCloseDue(ctx context.Context, now time.Time, limit int) ([]*entity.Dispute, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	var due []*entity.Dispute
	for _, d := range r.st.disputes {
		if len(due) >= limit {
			break
		}
		if (d.Status == entity.DisputeStatusOpen || d.Status == entity.DisputeStatusUnderReview) && d.AutoCloseAt.Before(now) {
			due = append(due, cloneDispute(d))
		}
	}
	return due, nil
}

func (r *fakeDisputeRepo) ListEscalationDue(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Dispute, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	var due []*entity.Dispute
	for _, d := range r.st.disputes {
		if len(due) >= limit {
			break
		}
		if (d.Status == entity.DisputeStatusOpen || d.Status == entity.DisputeStatusUnderReview) && !d.Escalated && d.CreatedAt.Before(cutoff) {
			due = append(due, cloneDispute(d))
		}
	}
	return due, nil
}

func (r *fakeDisputeRepo) Transition(ctx context.Context, disputeID string, from []entity.DisputeStatus, mutate repository.DisputeMutation, audit *entity.AuditLogEntry) (*entity.Dispute, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	stored, ok := r.st.disputes[disputeID]
	if !ok {
		return nil, errors.NotFound("Dispute", nil)
	}

	allowed := false
	for _, s := range from {
		if stored.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, errors.InvalidState("dispute is " + string(stored.Status))
	}

	next := cloneDispute(stored)
	if err := mutate(next); err != nil {
		return nil, err
	}

	r.st.disputes[disputeID] = next
	if audit != nil {
		r.st.audits[disputeID] = append(r.st.audits[disputeID], audit)
	}
	return cloneDispute(next), nil
}

func (r *fakeDisputeRepo) AddEvidence(ctx context.Context, disputeID string, evidence *entity.Evidence, touch repository.DisputeMutation, audit *entity.AuditLogEntry) error {
	return r.appendEntry(disputeID, touch, audit, func() {
		r.st.evidence[disputeID] = append(r.st.evidence[disputeID], evidence)
	})
}

func (r *fakeDisputeRepo) AddComment(ctx context.Context, disputeID string, comment *entity.Comment, touch repository.DisputeMutation, audit *entity.AuditLogEntry) error {
	return r.appendEntry(disputeID, touch, audit, func() {
		r.st.comments[disputeID] = append(r.st.comments[disputeID], comment)
	})
}

func (r *fakeDisputeRepo) appendEntry(disputeID string, touch repository.DisputeMutation, audit *entity.AuditLogEntry, insert func()) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	stored, ok := r.st.disputes[disputeID]
	if !ok {
		return errors.NotFound("Dispute", nil)
	}
	if !stored.Active() {
		return errors.InvalidState("dispute is " + string(stored.Status) + " and no longer accepts submissions")
	}

	next := cloneDispute(stored)
	if touch != nil {
		if err := touch(next); err != nil {
			return err
		}
	}

	insert()
	r.st.disputes[disputeID] = next
	if audit != nil {
		r.st.audits[disputeID] = append(r.st.audits[disputeID], audit)
	}
	return nil
}

func (r *fakeDisputeRepo) ListEvidence(ctx context.Context, disputeID string) ([]*entity.Evidence, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return append([]*entity.Evidence(nil), r.st.evidence[disputeID]...), nil
}

func (r *fakeDisputeRepo) ListComments(ctx context.Context, disputeID string) ([]*entity.Comment, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return append([]*entity.Comment(nil), r.st.comments[disputeID]...), nil
}

type fakeResolutionRepo struct {
	st *memState
}

func (r *fakeResolutionRepo) Create(ctx context.Context, resolution *entity.Resolution, audit *entity.AuditLogEntry) (*entity.Dispute, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	stored, ok := r.st.disputes[resolution.DisputeID]
	if !ok {
		return nil, errors.NotFound("Dispute", nil)
	}
	if stored.Status != entity.DisputeStatusUnderReview {
		return nil, errors.InvalidState("dispute is " + string(stored.Status) + "; resolution requires under_review")
	}

	now := time.Now()
	next := cloneDispute(stored)
	next.Status = entity.DisputeStatusResolved
	next.ResolvedAt = &now
	next.UpdatedAt = now

	r.st.disputes[resolution.DisputeID] = next
	stored2 := *resolution
	r.st.resolutions[resolution.ID] = &stored2
	if audit != nil {
		r.st.audits[resolution.DisputeID] = append(r.st.audits[resolution.DisputeID], audit)
	}
	return cloneDispute(next), nil
}

func (r *fakeResolutionRepo) Active(ctx context.Context, disputeID string) (*entity.Resolution, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	for _, res := range r.st.resolutions {
		if res.DisputeID == disputeID && !res.Superseded {
			c := *res
			return &c, nil
		}
	}
	return nil, errors.NotFound("Resolution", nil)
}

func (r *fakeResolutionRepo) ListByDispute(ctx context.Context, disputeID string) ([]*entity.Resolution, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	var out []*entity.Resolution
	for _, res := range r.st.resolutions {
		if res.DisputeID == disputeID {
			c := *res
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeResolutionRepo) MarkSettled(ctx context.Context, disputeID, resolutionID string, settledAt time.Time, audit *entity.AuditLogEntry) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	res, ok := r.st.resolutions[resolutionID]
	if !ok {
		return errors.NotFound("Resolution", nil)
	}
	if res.SettlementStatus == entity.SettlementSettled {
		return nil
	}

	res.SettlementStatus = entity.SettlementSettled
	res.SettledAt = &settledAt
	if audit != nil {
		r.st.audits[disputeID] = append(r.st.audits[disputeID], audit)
	}
	return nil
}

func (r *fakeResolutionRepo) ListPendingSettlement(ctx context.Context, limit int) ([]*entity.Resolution, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	var out []*entity.Resolution
	for _, res := range r.st.resolutions {
		if len(out) >= limit {
			break
		}
		if res.SettlementStatus == entity.SettlementPending && !res.Superseded {
			c := *res
			out = append(out, &c)
		}
	}
	return out, nil
}

type fakeAppealRepo struct {
	st *memState
}

func (r *fakeAppealRepo) Create(ctx context.Context, appeal *entity.Appeal, audit *entity.AuditLogEntry) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	dispute, ok := r.st.disputes[appeal.DisputeID]
	if !ok {
		return errors.NotFound("Dispute", nil)
	}
	if dispute.Status != entity.DisputeStatusResolved {
		return errors.InvalidState("appeals require a resolved dispute")
	}
	if _, exists := r.st.appeals[appeal.DisputeID]; exists {
		return errors.Conflict("An appeal already exists for this dispute")
	}

	c := *appeal
	r.st.appeals[appeal.DisputeID] = &c
	if audit != nil {
		r.st.audits[appeal.DisputeID] = append(r.st.audits[appeal.DisputeID], audit)
	}
	return nil
}

func (r *fakeAppealRepo) GetByDispute(ctx context.Context, disputeID string) (*entity.Appeal, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	appeal, ok := r.st.appeals[disputeID]
	if !ok {
		return nil, errors.NotFound("Appeal", nil)
	}
	c := *appeal
	return &c, nil
}

func (r *fakeAppealRepo) Decide(ctx context.Context, disputeID, appealID string, decision entity.AppealStatus, adminID string, touch repository.DisputeMutation, audit *entity.AuditLogEntry) (*entity.Dispute, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	appeal, ok := r.st.appeals[disputeID]
	if !ok {
		return nil, errors.NotFound("Appeal", nil)
	}
	if appeal.Decided() {
		return nil, errors.InvalidState("appeal has already been decided")
	}

	dispute, ok := r.st.disputes[disputeID]
	if !ok {
		return nil, errors.NotFound("Dispute", nil)
	}
	if dispute.Status != entity.DisputeStatusResolved {
		return nil, errors.InvalidState("dispute is " + string(dispute.Status))
	}

	next := cloneDispute(dispute)
	if touch != nil {
		if err := touch(next); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	appeal.Status = decision
	appeal.ReviewedBy = adminID
	appeal.DecidedAt = &now

	if decision == entity.AppealStatusAccepted {
		for _, res := range r.st.resolutions {
			if res.DisputeID == disputeID && !res.Superseded {
				res.Superseded = true
			}
		}
	}

	r.st.disputes[disputeID] = next
	if audit != nil {
		r.st.audits[disputeID] = append(r.st.audits[disputeID], audit)
	}
	return cloneDispute(next), nil
}

type fakeAuditRepo struct {
	st *memState
}

func (r *fakeAuditRepo) ListByDispute(ctx context.Context, disputeID string) ([]*entity.AuditLogEntry, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return append([]*entity.AuditLogEntry(nil), r.st.audits[disputeID]...), nil
}

type fakeCancellationRepo struct {
	st *memState
}

func (r *fakeCancellationRepo) GetByID(ctx context.Context, id string) (*entity.Cancellation, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	c, ok := r.st.cancellations[id]
	if !ok {
		return nil, errors.NotFound("Cancellation", nil)
	}
	return c, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []NotificationEvent
}

func (n *fakeNotifier) Notify(ctx context.Context, event NotificationEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *fakeNotifier) byType(eventType string) []NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []NotificationEvent
	for _, e := range n.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakeSettlementGateway fails the first failures calls, then succeeds. Every
// request's idempotency key is recorded.
type fakeSettlementGateway struct {
	mu       sync.Mutex
	failures int
	calls    int
	keys     []string
}

func (g *fakeSettlementGateway) Settle(ctx context.Context, req service.SettlementRequest) (*service.SettlementReceipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	g.keys = append(g.keys, req.IdempotencyKey)
	if g.calls <= g.failures {
		return nil, errors.Settlement("rail unavailable", nil)
	}
	return &service.SettlementReceipt{
		ReceiptID: "rcpt-1",
		SettledAt: time.Now(),
	}, nil
}

// fixture wires the usecases against the shared fake store.
type fixture struct {
	st       *memState
	notifier *fakeNotifier
	gateway  *fakeSettlementGateway
	windows  Windows

	disputes    *DisputeUseCase
	ledger      *LedgerUseCase
	resolutions *ResolutionUseCase
	appeals     *AppealUseCase
	scheduler   *SchedulerUseCase
}

func newFixture() *fixture {
	st := newMemState()
	notifier := &fakeNotifier{}
	gateway := &fakeSettlementGateway{}
	windows := Windows{
		Inactivity: 14 * 24 * time.Hour,
		Escalation: 14 * 24 * time.Hour,
		Appeal:     7 * 24 * time.Hour,
	}

	disputeRepo := &fakeDisputeRepo{st: st}
	resolutionRepo := &fakeResolutionRepo{st: st}
	appealRepo := &fakeAppealRepo{st: st}
	auditRepo := &fakeAuditRepo{st: st}
	cancellationRepo := &fakeCancellationRepo{st: st}

	disputes := NewDisputeUseCase(disputeRepo, cancellationRepo, resolutionRepo, appealRepo, auditRepo, notifier, windows)
	ledger := NewLedgerUseCase(disputeRepo, notifier, windows)
	resolutions := NewResolutionUseCase(disputeRepo, resolutionRepo, gateway, notifier)
	appeals := NewAppealUseCase(disputeRepo, resolutionRepo, appealRepo, notifier, windows)
	scheduler := NewSchedulerUseCase(disputeRepo, resolutionRepo, disputes, resolutions, notifier, windows, 100)

	return &fixture{
		st:          st,
		notifier:    notifier,
		gateway:     gateway,
		windows:     windows,
		disputes:    disputes,
		ledger:      ledger,
		resolutions: resolutions,
		appeals:     appeals,
		scheduler:   scheduler,
	}
}

func (f *fixture) seedCancellation(id string, escrow int64) *entity.Cancellation {
	c := &entity.Cancellation{
		ID:           id,
		BountyID:     "bounty-" + id,
		PosterID:     "poster-1",
		HunterID:     "hunter-1",
		EscrowAmount: escrow,
		CreatedAt:    time.Now(),
	}
	f.st.mu.Lock()
	f.st.cancellations[id] = c
	f.st.mu.Unlock()
	return c
}

func (f *fixture) openDispute(t testingT, cancellationID string, escrow int64) *entity.Dispute {
	f.seedCancellation(cancellationID, escrow)
	dispute, err := f.disputes.CreateDispute(context.Background(), CreateDisputeInput{
		CancellationID: cancellationID,
		InitiatorID:    "hunter-1",
		Reason:         "The poster cancelled after the work was already delivered in full",
	})
	if err != nil {
		t.Fatalf("openDispute: %v", err)
	}
	return dispute
}

// reviewedDispute moves a fresh dispute into under_review.
func (f *fixture) reviewedDispute(t testingT, cancellationID string, escrow int64) *entity.Dispute {
	dispute := f.openDispute(t, cancellationID, escrow)
	updated, err := f.disputes.MarkUnderReview(context.Background(), dispute.ID, "admin-1")
	if err != nil {
		t.Fatalf("reviewedDispute: %v", err)
	}
	return updated
}

type testingT interface {
	Fatalf(format string, args ...interface{})
}

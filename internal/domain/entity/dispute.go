package entity

import (
	"time"
)

type DisputeStatus string

const (
	DisputeStatusOpen        DisputeStatus = "open"
	DisputeStatusUnderReview DisputeStatus = "under_review"
	DisputeStatusResolved    DisputeStatus = "resolved"
	DisputeStatusClosed      DisputeStatus = "closed"
	DisputeStatusReopened    DisputeStatus = "reopened"
)

// MinReasonLength is the shortest acceptable dispute reason.
const MinReasonLength = 20

// Dispute represents a contested cancellation of a bounty agreement.
type Dispute struct {
	ID             string `json:"id" firestore:"id"`
	CancellationID string `json:"cancellation_id" firestore:"cancellationId"`
	BountyID       string `json:"bounty_id" firestore:"bountyId"`
	InitiatorID    string `json:"initiator_id" firestore:"initiatorId"`
	CounterpartyID string `json:"counterparty_id" firestore:"counterpartyId"`

	// Both party ids, denormalized for membership queries.
	Participants []string `json:"participants" firestore:"participants"`

	Reason string        `json:"reason" firestore:"reason"`
	Status DisputeStatus `json:"status" firestore:"status"`

	// Escrow held for the underlying cancellation, in minor currency units.
	EscrowAmount int64 `json:"escrow_amount" firestore:"escrowAmount"`

	// Activity tracking; AutoCloseAt moves forward on every qualifying write.
	LastActivityAt time.Time `json:"last_activity_at" firestore:"lastActivityAt"`
	AutoCloseAt    time.Time `json:"auto_close_at" firestore:"autoCloseAt"`

	Escalated   bool       `json:"escalated" firestore:"escalated"`
	EscalatedAt *time.Time `json:"escalated_at,omitempty" firestore:"escalatedAt,omitempty"`

	CloseReason string     `json:"close_reason,omitempty" firestore:"closeReason,omitempty"`
	ClosedBy    ActorType  `json:"closed_by,omitempty" firestore:"closedBy,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty" firestore:"closedAt,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty" firestore:"resolvedAt,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// validTransitions enumerates the only legal status edges.
var validTransitions = map[DisputeStatus][]DisputeStatus{
	DisputeStatusOpen:        {DisputeStatusUnderReview, DisputeStatusClosed},
	DisputeStatusUnderReview: {DisputeStatusResolved, DisputeStatusClosed},
	DisputeStatusResolved:    {DisputeStatusReopened},
	DisputeStatusReopened:    {DisputeStatusUnderReview},
	DisputeStatusClosed:      {},
}

// CanTransition reports whether moving from -> to follows a legal edge.
func CanTransition(from, to DisputeStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Active reports whether the dispute still accepts evidence and comments.
func (d *Dispute) Active() bool {
	switch d.Status {
	case DisputeStatusOpen, DisputeStatusUnderReview, DisputeStatusReopened:
		return true
	}
	return false
}

// Terminal reports whether the dispute has reached a final status.
func (d *Dispute) Terminal() bool {
	return d.Status == DisputeStatusClosed || d.Status == DisputeStatusResolved
}

// IsParty reports whether userID is the initiator or counterparty.
func (d *Dispute) IsParty(userID string) bool {
	return userID == d.InitiatorID || userID == d.CounterpartyID
}

// Touch extends the activity deadline after a qualifying write.
func (d *Dispute) Touch(now time.Time, inactivityWindow time.Duration) {
	d.LastActivityAt = now
	d.AutoCloseAt = now.Add(inactivityWindow)
	d.UpdatedAt = now
}

package entity

import (
	"time"
)

type AppealStatus string

const (
	AppealStatusPending   AppealStatus = "pending"
	AppealStatusReviewing AppealStatus = "reviewing"
	AppealStatusAccepted  AppealStatus = "accepted"
	AppealStatusRejected  AppealStatus = "rejected"
)

// Appeal is a one-time contestation of a Resolution. At most one exists per
// dispute; rejection is final.
type Appeal struct {
	ID           string `json:"id" firestore:"id"`
	DisputeID    string `json:"dispute_id" firestore:"disputeId"`
	ResolutionID string `json:"resolution_id" firestore:"resolutionId"`
	AppellantID  string `json:"appellant_id" firestore:"appellantId"`

	Reason       string   `json:"reason" firestore:"reason"`
	EvidenceRefs []string `json:"evidence_refs,omitempty" firestore:"evidenceRefs,omitempty"`

	Status     AppealStatus `json:"status" firestore:"status"`
	ReviewedBy string       `json:"reviewed_by,omitempty" firestore:"reviewedBy,omitempty"`
	DecidedAt  *time.Time   `json:"decided_at,omitempty" firestore:"decidedAt,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// Decided reports whether the appeal has reached a final decision.
func (a *Appeal) Decided() bool {
	return a.Status == AppealStatusAccepted || a.Status == AppealStatusRejected
}

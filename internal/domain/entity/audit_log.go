package entity

import (
	"time"
)

type ActorType string

const (
	ActorUser   ActorType = "user"
	ActorAdmin  ActorType = "admin"
	ActorSystem ActorType = "system"
)

// Audit actions
const (
	AuditDisputeCreated     = "dispute_created"
	AuditStatusChanged      = "status_changed"
	AuditEvidenceAdded      = "evidence_added"
	AuditCommentAdded       = "comment_added"
	AuditResolutionDecision = "resolution_decision"
	AuditSettlementSettled  = "settlement_settled"
	AuditAppealCreated      = "appeal_created"
	AuditAppealAccepted     = "appeal_accepted"
	AuditAppealRejected     = "appeal_rejected"
	AuditAutoClosed         = "auto_closed"
	AuditEscalated          = "escalated"
)

// AuditLogEntry is the immutable record of one state-changing action. Entries
// are never mutated or pruned by application logic; they are the ground truth
// for what happened to a dispute.
type AuditLogEntry struct {
	ID        string                 `json:"id" firestore:"id"`
	DisputeID string                 `json:"dispute_id" firestore:"disputeId"`
	Action    string                 `json:"action" firestore:"action"`
	ActorID   string                 `json:"actor_id" firestore:"actorId"`
	ActorType ActorType              `json:"actor_type" firestore:"actorType"`
	Details   map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"`
	CreatedAt time.Time              `json:"created_at" firestore:"createdAt"`
}

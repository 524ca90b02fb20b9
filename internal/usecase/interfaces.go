package usecase

import (
	"context"
	"time"
)

// Notification event types
const (
	EventDisputeCreated     = "dispute_created"
	EventDisputeUnderReview = "dispute_under_review"
	EventDisputeClosed      = "dispute_closed"
	EventDisputeAutoClosed  = "dispute_auto_closed"
	EventDisputeResolved    = "dispute_resolved"
	EventDisputeReopened    = "dispute_reopened"
	EventDisputeEscalated   = "dispute_escalated"
	EventEvidenceAdded      = "evidence_added"
	EventCommentAdded       = "comment_added"
	EventAppealCreated      = "appeal_created"
	EventAppealAccepted     = "appeal_accepted"
	EventAppealRejected     = "appeal_rejected"
)

// AdminTopic broadcasts to the admin review queue instead of user ids.
const AdminTopic = "dispute-admins"

type NotificationEvent struct {
	Type         string                 `json:"type"`
	DisputeID    string                 `json:"dispute_id"`
	RecipientIDs []string               `json:"recipient_ids,omitempty"`
	Topic        string                 `json:"topic,omitempty"`
	Priority     string                 `json:"priority,omitempty"` // normal, high
	Payload      map[string]interface{} `json:"payload,omitempty"`
}

// Notifier delivers events fire-and-forget. Implementations must never block
// the calling operation on delivery and must swallow delivery failures.
type Notifier interface {
	Notify(ctx context.Context, event NotificationEvent)
}

// Windows holds the wall-clock deadlines the engine evaluates at read time.
type Windows struct {
	Inactivity time.Duration
	Escalation time.Duration
	Appeal     time.Duration
}

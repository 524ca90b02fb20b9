package entity

import (
	"time"
)

// EvidenceKind discriminates the evidence payload variants.
type EvidenceKind string

const (
	EvidenceKindText  EvidenceKind = "text"
	EvidenceKindLink  EvidenceKind = "link"
	EvidenceKindMedia EvidenceKind = "media"
)

// Evidence is an append-only item attached to a dispute. The Kind field
// selects which payload field carries the content: Text for free text, URL
// for links, MediaRef for an identifier issued by the external media store.
type Evidence struct {
	ID        string       `json:"id" firestore:"id"`
	DisputeID string       `json:"dispute_id" firestore:"disputeId"`
	Kind      EvidenceKind `json:"kind" firestore:"kind"`

	Text     string `json:"text,omitempty" firestore:"text,omitempty"`
	URL      string `json:"url,omitempty" firestore:"url,omitempty"`
	MediaRef string `json:"media_ref,omitempty" firestore:"mediaRef,omitempty"`

	Description string    `json:"description,omitempty" firestore:"description,omitempty"`
	UploadedBy  string    `json:"uploaded_by" firestore:"uploadedBy"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}

// Payload returns the kind-specific content.
func (e *Evidence) Payload() string {
	switch e.Kind {
	case EvidenceKindLink:
		return e.URL
	case EvidenceKindMedia:
		return e.MediaRef
	default:
		return e.Text
	}
}

package entity

import (
	"time"
)

// Comment is an immutable remark on a dispute. Internal comments are visible
// to admins only; public comments are visible to both parties and admins.
type Comment struct {
	ID         string    `json:"id" firestore:"id"`
	DisputeID  string    `json:"dispute_id" firestore:"disputeId"`
	AuthorID   string    `json:"author_id" firestore:"authorId"`
	AuthorRole string    `json:"author_role" firestore:"authorRole"`
	Body       string    `json:"body" firestore:"body"`
	Internal   bool      `json:"internal" firestore:"internal"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt"`
}

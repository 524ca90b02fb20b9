package entity

import (
	"time"
)

// Cancellation is the read-model of a contested bounty cancellation. The
// bounty/escrow services own the record; the dispute engine only reads it to
// identify the parties and the escrowed amount.
type Cancellation struct {
	ID       string `json:"id" firestore:"id"`
	BountyID string `json:"bounty_id" firestore:"bountyId"`

	PosterID string `json:"poster_id" firestore:"posterId"`
	HunterID string `json:"hunter_id" firestore:"hunterId"`

	// Escrow held for the bounty, in minor currency units.
	EscrowAmount int64 `json:"escrow_amount" firestore:"escrowAmount"`

	Reason    string    `json:"reason,omitempty" firestore:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// IsParty reports whether userID is the poster or the hunter.
func (c *Cancellation) IsParty(userID string) bool {
	return userID == c.PosterID || userID == c.HunterID
}

// Counterparty returns the other party relative to userID.
func (c *Cancellation) Counterparty(userID string) string {
	if userID == c.PosterID {
		return c.HunterID
	}
	return c.PosterID
}

package entity

import (
	"fmt"
	"time"

	"bountyhub/pkg/errors"
)

type ResolutionOutcome string

const (
	OutcomeRelease ResolutionOutcome = "release"
	OutcomeRefund  ResolutionOutcome = "refund"
	OutcomeSplit   ResolutionOutcome = "split"
	OutcomeOther   ResolutionOutcome = "other"
)

type SettlementStatus string

const (
	SettlementPending SettlementStatus = "pending_settlement"
	SettlementSettled SettlementStatus = "settled"
)

// MinRationaleLength is the shortest acceptable resolution rationale.
const MinRationaleLength = 50

// Allocation assigns an amount in minor currency units to one party.
type Allocation struct {
	PartyID string `json:"party_id" firestore:"partyId"`
	Amount  int64  `json:"amount" firestore:"amount"`
}

// Resolution is the immutable record of an admin settlement decision. A new
// Resolution is only created after an accepted appeal reopens the dispute;
// the superseded record is retained for history.
type Resolution struct {
	ID        string            `json:"id" firestore:"id"`
	DisputeID string            `json:"dispute_id" firestore:"disputeId"`
	Outcome   ResolutionOutcome `json:"outcome" firestore:"outcome"`

	Allocations []Allocation `json:"allocations" firestore:"allocations"`

	Rationale  string `json:"rationale" firestore:"rationale"`
	ResolvedBy string `json:"resolved_by" firestore:"resolvedBy"`

	SettlementStatus SettlementStatus `json:"settlement_status" firestore:"settlementStatus"`
	SettledAt        *time.Time       `json:"settled_at,omitempty" firestore:"settledAt,omitempty"`

	Superseded bool      `json:"superseded" firestore:"superseded"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt"`
}

// IdempotencyKey identifies the settlement invocation for this resolution.
// The rail must treat repeated calls with the same key as one settlement.
func (r *Resolution) IdempotencyKey() string {
	return r.DisputeID + ":" + r.ID
}

// RationaleSummary truncates the rationale for notification payloads.
func (r *Resolution) RationaleSummary() string {
	const max = 120
	if len(r.Rationale) <= max {
		return r.Rationale
	}
	return r.Rationale[:max] + "..."
}

// ReconcileAllocations validates that allocations sum exactly to the escrowed
// amount. Amounts are integer minor units; any remainder is a failure, never
// silently absorbed.
func ReconcileAllocations(escrow int64, allocations []Allocation) error {
	if len(allocations) == 0 {
		return errors.AllocationMismatch("at least one allocation is required")
	}

	var sum int64
	for _, a := range allocations {
		if a.PartyID == "" {
			return errors.AllocationMismatch("allocation missing party id")
		}
		if a.Amount < 0 {
			return errors.AllocationMismatch("allocation amounts must not be negative")
		}
		sum += a.Amount
	}

	if sum != escrow {
		return errors.AllocationMismatch(
			fmt.Sprintf("allocations sum to %d but escrowed amount is %d", sum, escrow))
	}

	return nil
}

// AllocationsFromPercentages converts percentage shares into minor-unit
// amounts. Each share must divide the escrow exactly; otherwise the caller
// has to submit explicit amounts instead. No silent rounding.
func AllocationsFromPercentages(escrow int64, shares []PercentShare) ([]Allocation, error) {
	if len(shares) == 0 {
		return nil, errors.AllocationMismatch("at least one share is required")
	}

	var pctSum int64
	for _, s := range shares {
		if s.Percent < 0 {
			return nil, errors.AllocationMismatch("percentages must not be negative")
		}
		pctSum += s.Percent
	}
	if pctSum != 100 {
		return nil, errors.AllocationMismatch(
			fmt.Sprintf("percentages sum to %d, expected 100", pctSum))
	}

	allocations := make([]Allocation, 0, len(shares))
	for _, s := range shares {
		raw := escrow * s.Percent
		if raw%100 != 0 {
			return nil, errors.AllocationMismatch(
				fmt.Sprintf("%d%% of %d is not a whole amount; submit explicit amounts", s.Percent, escrow))
		}
		allocations = append(allocations, Allocation{
			PartyID: s.PartyID,
			Amount:  raw / 100,
		})
	}

	return allocations, nil
}

// PercentShare expresses one party's cut of the escrow as a percentage.
type PercentShare struct {
	PartyID string `json:"party_id"`
	Percent int64  `json:"percent"`
}

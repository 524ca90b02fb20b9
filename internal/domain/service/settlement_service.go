package service

import (
	"context"
	"time"

	"bountyhub/internal/domain/entity"
)

// SettlementRequest asks the escrow rail to disburse the held funds.
type SettlementRequest struct {
	DisputeID    string
	ResolutionID string
	Allocations  []entity.Allocation

	// IdempotencyKey is disputeID:resolutionID; the rail must treat repeated
	// calls with the same key as a single settlement.
	IdempotencyKey string
}

// SettlementReceipt confirms a disbursal.
type SettlementReceipt struct {
	ReceiptID string
	SettledAt time.Time
}

// SettlementGateway is the external escrow/payment rail. The engine decides
// who gets what; the rail moves the money.
type SettlementGateway interface {
	Settle(ctx context.Context, req SettlementRequest) (*SettlementReceipt, error)
}

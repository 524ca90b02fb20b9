package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bountyhub/pkg/errors"
	"bountyhub/pkg/logger"
)

// HTTPSettlementService talks to the escrow rail over its HTTP API.
type HTTPSettlementService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPSettlementService(baseURL, apiKey string) *HTTPSettlementService {
	return &HTTPSettlementService{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type settlementAllocation struct {
	PartyID string `json:"party_id"`
	Amount  int64  `json:"amount"`
}

type settlementAPIRequest struct {
	DisputeID    string                 `json:"dispute_id"`
	ResolutionID string                 `json:"resolution_id"`
	Allocations  []settlementAllocation `json:"allocations"`
}

type settlementAPIResponse struct {
	ReceiptID string    `json:"receipt_id"`
	SettledAt time.Time `json:"settled_at"`
}

func (s *HTTPSettlementService) Settle(ctx context.Context, req SettlementRequest) (*SettlementReceipt, error) {
	logger.Info("Invoking settlement for dispute %s, resolution %s", req.DisputeID, req.ResolutionID)

	apiReq := settlementAPIRequest{
		DisputeID:    req.DisputeID,
		ResolutionID: req.ResolutionID,
	}
	for _, a := range req.Allocations {
		apiReq.Allocations = append(apiReq.Allocations, settlementAllocation{
			PartyID: a.PartyID,
			Amount:  a.Amount,
		})
	}

	jsonData, err := json.Marshal(apiReq)
	if err != nil {
		return nil, errors.Internal("Failed to marshal settlement request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/settlements", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Internal("Failed to create settlement request", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, errors.Settlement("Settlement rail unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Settlement("Failed to read settlement response", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.Settlement(
			fmt.Sprintf("Settlement rail returned status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var apiResp settlementAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, errors.Settlement("Failed to parse settlement response", err)
	}

	logger.Info("Settlement confirmed for dispute %s, receipt %s", req.DisputeID, apiResp.ReceiptID)

	return &SettlementReceipt{
		ReceiptID: apiResp.ReceiptID,
		SettledAt: apiResp.SettledAt,
	}, nil
}

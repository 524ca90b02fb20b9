package handler

import (
	"github.com/labstack/echo/v4"

	"bountyhub/internal/domain/entity"
	"bountyhub/internal/usecase"
	"bountyhub/pkg/errors"
	"bountyhub/pkg/response"
)

type AdminHandler struct {
	disputeUC    *usecase.DisputeUseCase
	resolutionUC *usecase.ResolutionUseCase
	appealUC     *usecase.AppealUseCase
	schedulerUC  *usecase.SchedulerUseCase
}

func NewAdminHandler(
	disputeUC *usecase.DisputeUseCase,
	resolutionUC *usecase.ResolutionUseCase,
	appealUC *usecase.AppealUseCase,
	schedulerUC *usecase.SchedulerUseCase,
) *AdminHandler {
	return &AdminHandler{
		disputeUC:    disputeUC,
		resolutionUC: resolutionUC,
		appealUC:     appealUC,
		schedulerUC:  schedulerUC,
	}
}

func (h *AdminHandler) MarkUnderReview(c echo.Context) error {
	uid, _ := c.Get("uid").(string)

	dispute, err := h.disputeUC.MarkUnderReview(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, dispute)
}

type CloseDisputeRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *AdminHandler) CloseDispute(c echo.Context) error {
	var req CloseDisputeRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid, _ := c.Get("uid").(string)

	dispute, err := h.disputeUC.Close(c.Request().Context(), c.Param("id"), req.Reason, uid, entity.ActorAdmin)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, dispute)
}

type allocationRequest struct {
	PartyID string `json:"party_id" validate:"required"`
	Amount  int64  `json:"amount" validate:"min=0"`
}

type shareRequest struct {
	PartyID string `json:"party_id" validate:"required"`
	Percent int64  `json:"percent" validate:"min=0,max=100"`
}

type ProposeResolutionRequest struct {
	Outcome     string              `json:"outcome" validate:"required,oneof=release refund split other"`
	Rationale   string              `json:"rationale" validate:"required,min=50"`
	Allocations []allocationRequest `json:"allocations,omitempty" validate:"omitempty,dive"`
	Shares      []shareRequest      `json:"shares,omitempty" validate:"omitempty,dive"`
}

func (h *AdminHandler) ProposeResolution(c echo.Context) error {
	var req ProposeResolutionRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid, _ := c.Get("uid").(string)

	input := usecase.ProposeResolutionInput{
		DisputeID: c.Param("id"),
		AdminID:   uid,
		Outcome:   entity.ResolutionOutcome(req.Outcome),
		Rationale: req.Rationale,
	}
	for _, a := range req.Allocations {
		input.Allocations = append(input.Allocations, entity.Allocation{PartyID: a.PartyID, Amount: a.Amount})
	}
	for _, s := range req.Shares {
		input.Shares = append(input.Shares, entity.PercentShare{PartyID: s.PartyID, Percent: s.Percent})
	}

	resolution, err := h.resolutionUC.ProposeResolution(c.Request().Context(), input)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, resolution)
}

type ReviewAppealRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accepted rejected"`
}

func (h *AdminHandler) ReviewAppeal(c echo.Context) error {
	var req ReviewAppealRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid, _ := c.Get("uid").(string)

	appeal, err := h.appealUC.ReviewAppeal(c.Request().Context(), c.Param("id"), uid, req.Decision)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, appeal)
}

func (h *AdminHandler) GetStats(c echo.Context) error {
	stats, err := h.disputeUC.Stats(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, stats)
}

// RunJobs triggers one scheduler pass on demand, useful for ops tooling
// and staging environments where waiting for the ticker is impractical.
func (h *AdminHandler) RunJobs(c echo.Context) error {
	h.schedulerUC.RunOnce(c.Request().Context())
	return response.Success(c, map[string]string{"status": "completed"})
}

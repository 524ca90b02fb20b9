package handler

import (
	"github.com/labstack/echo/v4"

	"bountyhub/internal/domain/entity"
	"bountyhub/internal/usecase"
	"bountyhub/pkg/errors"
	"bountyhub/pkg/response"
	"bountyhub/pkg/utils"
)

type DisputeHandler struct {
	disputeUC *usecase.DisputeUseCase
	ledgerUC  *usecase.LedgerUseCase
}

func NewDisputeHandler(disputeUC *usecase.DisputeUseCase, ledgerUC *usecase.LedgerUseCase) *DisputeHandler {
	return &DisputeHandler{
		disputeUC: disputeUC,
		ledgerUC:  ledgerUC,
	}
}

type evidenceRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=text link media"`
	Text        string `json:"text,omitempty"`
	URL         string `json:"url,omitempty" validate:"omitempty,url"`
	MediaRef    string `json:"media_ref,omitempty"`
	Description string `json:"description,omitempty"`
}

type CreateDisputeRequest struct {
	CancellationID string            `json:"cancellation_id" validate:"required"`
	Reason         string            `json:"reason" validate:"required,min=20"`
	Evidence       []evidenceRequest `json:"evidence,omitempty" validate:"omitempty,dive"`
}

func (h *DisputeHandler) CreateDispute(c echo.Context) error {
	var req CreateDisputeRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid, ok := c.Get("uid").(string)
	if !ok {
		return response.Error(c, errors.Unauthorized("User not authenticated", nil))
	}

	input := usecase.CreateDisputeInput{
		CancellationID: req.CancellationID,
		InitiatorID:    uid,
		Reason:         req.Reason,
		Evidence:       toEvidenceInputs(req.Evidence),
	}

	dispute, err := h.disputeUC.CreateDispute(c.Request().Context(), input)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, dispute)
}

func (h *DisputeHandler) GetDispute(c echo.Context) error {
	uid, role := actor(c)

	dispute, err := h.disputeUC.GetDispute(c.Request().Context(), c.Param("id"), uid, role)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, dispute)
}

func (h *DisputeHandler) ListDisputes(c echo.Context) error {
	uid, role := actor(c)
	pagination := utils.GetPaginationParams(c)

	disputes, total, err := h.disputeUC.ListDisputes(c.Request().Context(),
		c.QueryParam("status"), uid, role, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, disputes, total, pagination.Page, pagination.PageSize)
}

func (h *DisputeHandler) GetTimeline(c echo.Context) error {
	uid, role := actor(c)

	timeline, err := h.disputeUC.GetTimeline(c.Request().Context(), c.Param("id"), uid, role)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, timeline)
}

func (h *DisputeHandler) AddEvidence(c echo.Context) error {
	var req evidenceRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid, role := actor(c)

	evidence, err := h.ledgerUC.AddEvidence(c.Request().Context(), c.Param("id"), uid, role, toEvidenceInput(req))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, evidence)
}

type AddCommentRequest struct {
	Body     string `json:"body" validate:"required"`
	Internal bool   `json:"internal,omitempty"`
}

func (h *DisputeHandler) AddComment(c echo.Context) error {
	var req AddCommentRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid, role := actor(c)

	comment, err := h.ledgerUC.AddComment(c.Request().Context(), c.Param("id"), uid, role, req.Body, req.Internal)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, comment)
}

func (h *DisputeHandler) ListEvidence(c echo.Context) error {
	uid, role := actor(c)

	evidence, err := h.ledgerUC.ListEvidence(c.Request().Context(), c.Param("id"), uid, role)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, evidence)
}

func (h *DisputeHandler) ListComments(c echo.Context) error {
	uid, role := actor(c)

	comments, err := h.ledgerUC.ListComments(c.Request().Context(), c.Param("id"), uid, role)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, comments)
}

func actor(c echo.Context) (string, string) {
	uid, _ := c.Get("uid").(string)
	role, _ := c.Get("role").(string)
	return uid, role
}

func toEvidenceInput(req evidenceRequest) usecase.EvidenceInput {
	return usecase.EvidenceInput{
		Kind:        entity.EvidenceKind(req.Kind),
		Text:        req.Text,
		URL:         req.URL,
		MediaRef:    req.MediaRef,
		Description: req.Description,
	}
}

func toEvidenceInputs(reqs []evidenceRequest) []usecase.EvidenceInput {
	inputs := make([]usecase.EvidenceInput, 0, len(reqs))
	for _, req := range reqs {
		inputs = append(inputs, toEvidenceInput(req))
	}
	return inputs
}

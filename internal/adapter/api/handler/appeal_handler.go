package handler

import (
	"github.com/labstack/echo/v4"

	"bountyhub/internal/usecase"
	"bountyhub/pkg/errors"
	"bountyhub/pkg/response"
)

type AppealHandler struct {
	appealUC     *usecase.AppealUseCase
	resolutionUC *usecase.ResolutionUseCase
}

func NewAppealHandler(appealUC *usecase.AppealUseCase, resolutionUC *usecase.ResolutionUseCase) *AppealHandler {
	return &AppealHandler{
		appealUC:     appealUC,
		resolutionUC: resolutionUC,
	}
}

type CreateAppealRequest struct {
	Reason       string   `json:"reason" validate:"required"`
	EvidenceRefs []string `json:"evidence_refs,omitempty"`
}

func (h *AppealHandler) CreateAppeal(c echo.Context) error {
	var req CreateAppealRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid, _ := c.Get("uid").(string)

	appeal, err := h.appealUC.CreateAppeal(c.Request().Context(), usecase.CreateAppealInput{
		DisputeID:    c.Param("id"),
		AppellantID:  uid,
		Reason:       req.Reason,
		EvidenceRefs: req.EvidenceRefs,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, appeal)
}

func (h *AppealHandler) GetResolution(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	role, _ := c.Get("role").(string)

	resolution, err := h.resolutionUC.GetResolution(c.Request().Context(), c.Param("id"), uid, role)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, resolution)
}

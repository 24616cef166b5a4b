package handler

import (
	"net/http"

	"courtpos/internal/dto"
	"courtpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReconcileHandler struct{ svc service.ReconcileService }

func NewReconcileHandler(svc service.ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{svc: svc}
}

// Reconcile godoc
// @Summary Runs the backfill + recompute repair pass
// @Description Detects upstream payments with no ledger movement, reconstructs
// @Description them against the session open at the time, and rebuilds totals.
// @Description Omitting facility_id runs bulk mode over every facility and
// @Description recomputes all sessions. NOT undoable once committed.
// @Tags reconcile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ReconcileRequest true "Scope"
// @Success 200 {object} dto.ReconcileReport
// @Failure 409 {object} apierror.APIError
// @Router /v1/reconcile [post]
func (h *ReconcileHandler) Reconcile(c *gin.Context) {
	var req dto.ReconcileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var facilityID *uuid.UUID
	if req.FacilityID != "" {
		id, err := uuid.Parse(req.FacilityID)
		if err != nil {
			writeError(c, service.ErrValidation)
			return
		}
		facilityID = &id
	}

	report, err := h.svc.Reconcile(c.Request.Context(), facilityID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

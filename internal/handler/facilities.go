package handler

import (
	"net/http"

	"courtpos/internal/repository"

	"github.com/gin-gonic/gin"
)

type FacilitiesHandler struct{ repo repository.FacilityRepository }

func NewFacilitiesHandler(repo repository.FacilityRepository) *FacilitiesHandler {
	return &FacilitiesHandler{repo: repo}
}

// List returns the active facilities — used by the UI to scope sessions.
func (h *FacilitiesHandler) List(c *gin.Context) {
	facilities, err := h.repo.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": facilities})
}

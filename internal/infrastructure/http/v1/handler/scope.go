package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/infrastructure/http/v1/dto"
)

func (h *Handler) Scope(c *gin.Context) {
	b := h.tileUseCase.Bounds()

	resp := dto.ScopeResponse{
		Scope:    b.Scope,
		ZoomMin:  b.ZoomMin,
		ZoomMax:  b.ZoomMax,
		PlaneMin: b.PlaneMin,
		PlaneMax: b.PlaneMax,
	}

	h.RespondWithJSON(c, http.StatusOK, "got scope", resp)
}

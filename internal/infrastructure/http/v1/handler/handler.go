package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/usecase"
)

const (
	internalServerErrorText = "the server encountered an error and could not process your request"
)

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Options are the transport settings of the tile endpoint.
type Options struct {
	// CacheMaxAge is the max-age sent to browsers in production and the
	// s-maxage sent to shared caches always, in seconds.
	CacheMaxAge int
	Production  bool
	// ContentType of the encoded tiles, e.g. image/webp.
	ContentType string
	// Ext is the file extension a tile request must carry.
	Ext string
}

type Handler struct {
	validate    *validator.Validate
	tileUseCase *usecase.TileUseCase
	opts        Options
}

func NewHandler(v *validator.Validate, uc *usecase.TileUseCase, opts Options) *Handler {
	return &Handler{
		validate:    v,
		tileUseCase: uc,
		opts:        opts,
	}
}

func (h *Handler) RespondWithInternalServerError(c *gin.Context) {
	h.RespondWithJSON(c, http.StatusInternalServerError, internalServerErrorText, nil)
}

func (h *Handler) RespondWithJSON(c *gin.Context, code int, message string, data any) {
	success := code < 400

	r := response{
		Success: success,
		Message: message,
		Data:    data,
	}

	c.JSON(code, r)
}

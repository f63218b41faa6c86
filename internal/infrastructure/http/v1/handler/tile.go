package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/infrastructure/http/v1/dto"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/tile"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/logger"
)

func requestLogger(c *gin.Context) logger.Logger {
	if log, ok := c.Get("logger"); ok {
		if l, ok := log.(logger.Logger); ok {
			return l
		}
	}
	return logger.NewNoOp()
}

func (h *Handler) Tile(c *gin.Context) {
	l := requestLogger(c)

	req, err := h.parseTile(c)
	if err != nil {
		l.Debug("invalid tile request", "path", c.Request.URL.Path, "error", err)
		h.RespondWithJSON(c, http.StatusNotFound, err.Error(), nil)
		return
	}

	t, err := h.tileUseCase.GetTile(c.Request.Context(), req.Key())
	if err != nil {
		var misaligned *tile.MisalignedError
		switch {
		case errors.As(err, &misaligned):
			msg := fmt.Sprintf("The zoomed out tile you are requesting is not valid. Request %d-%d instead.", misaligned.AlignedX, misaligned.AlignedY)
			h.RespondWithJSON(c, http.StatusNotFound, msg, nil)
		case errors.Is(err, tile.ErrUnknownLayer),
			errors.Is(err, tile.ErrZoomOutOfRange),
			errors.Is(err, tile.ErrPlaneOutOfRange),
			errors.Is(err, tile.ErrOutOfScope):
			h.RespondWithJSON(c, http.StatusNotFound, err.Error(), nil)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			l.Warn("tile request did not complete", "tile", req.Key().String(), "error", err)
			h.RespondWithJSON(c, http.StatusServiceUnavailable, "tile computation did not complete in time", nil)
		default:
			l.Error("failed to get tile", "tile", req.Key().String(), "error", err)
			h.RespondWithInternalServerError(c)
		}
		return
	}

	maxAge := 0
	if h.opts.Production {
		maxAge = h.opts.CacheMaxAge
	}

	c.Header("Content-Length", strconv.Itoa(len(t.Data)))
	c.Header("Cache-Control", fmt.Sprintf("max-age=%d, s-maxage=%d", maxAge, h.opts.CacheMaxAge))
	c.Header("X-Tile-Source", t.Origin.String())

	c.Data(http.StatusOK, h.opts.ContentType, t.Data)
}

// parseTile reads /:layer/:zoom/:plane/:tile where :tile is <x>-<y>.<ext>.
func (h *Handler) parseTile(c *gin.Context) (dto.TileRequest, error) {
	var req dto.TileRequest

	req.Layer = c.Param("layer")

	zoom, err := strconv.Atoi(c.Param("zoom"))
	if err != nil {
		return req, fmt.Errorf("zoom %q is not valid, zoom must be an integer", c.Param("zoom"))
	}
	req.Zoom = zoom

	plane, err := strconv.Atoi(c.Param("plane"))
	if err != nil {
		return req, fmt.Errorf("plane %q is not valid, plane must be an integer", c.Param("plane"))
	}
	req.Plane = plane

	name, ok := strings.CutSuffix(c.Param("tile"), "."+h.opts.Ext)
	if !ok {
		return req, fmt.Errorf("tile %q is not valid, expected <x>-<y>.%s", c.Param("tile"), h.opts.Ext)
	}
	sx, sy, ok := strings.Cut(name, "-")
	if !ok {
		return req, fmt.Errorf("tile %q is not valid, expected <x>-<y>.%s", c.Param("tile"), h.opts.Ext)
	}
	if req.X, err = strconv.Atoi(sx); err != nil {
		return req, fmt.Errorf("x %q is not valid, x must be an integer", sx)
	}
	if req.Y, err = strconv.Atoi(sy); err != nil {
		return req, fmt.Errorf("y %q is not valid, y must be an integer", sy)
	}

	if err := h.validate.Struct(req); err != nil {
		return req, validationError(err)
	}

	return req, nil
}

func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}

	fe := errs[0]
	switch fe.Field() {
	case "Layer":
		return fmt.Errorf("map type %q is not valid, only valid map types are: %q, %q and %q",
			fe.Value(), tile.LayerMap, tile.LayerHeightmap, tile.LayerCollision)
	default:
		return fmt.Errorf("%s %v is not valid, it must not be negative", strings.ToLower(fe.Field()), fe.Value())
	}
}

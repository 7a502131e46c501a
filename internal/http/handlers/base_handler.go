// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gswash/internal/modules/order"
)

type errorResponse struct {
	Error string `json:"error"`
	// Kind distinguishes invalid input from concurrent modification from
	// transport failure; the caller's retry strategy differs per kind.
	Kind string `json:"kind"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, kind, msg string) {
	writeJSON(c, status, errorResponse{Error: msg, Kind: kind})
}

func writeOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrBadRequest), errors.Is(err, order.ErrValidation):
		writeError(c, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, order.ErrNotFound):
		writeError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, order.ErrInvalidTransition):
		writeError(c, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, order.ErrConflict):
		writeError(c, http.StatusConflict, "conflict", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal", "internal error")
	}
}

package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mathmaster/mathmaster/internal/game"
	"github.com/mathmaster/mathmaster/internal/store"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, status int, message string, err error) {
	resp := APIResponse{Success: false, Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	c.AbortWithStatusJSON(status, resp)
}

// respondFailure maps service errors to a status and a user-facing message.
// Unexpected errors are logged and reported without detail.
func (s *Server) respondFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, "Sesión no encontrada o finalizada", nil)
	case errors.Is(err, game.ErrExerciseNotFound):
		respondError(c, http.StatusNotFound, "Ejercicio no encontrado", nil)
	case errors.Is(err, game.ErrNotAnswered):
		respondError(c, http.StatusConflict, "Responde el ejercicio antes de pedir la explicación", nil)
	case errors.Is(err, game.ErrNotEnrolled):
		respondError(c, http.StatusNotFound, "No estás inscrito en ningún paralelo", nil)
	case errors.Is(err, game.ErrParaleloNotFound):
		respondError(c, http.StatusNotFound, "Paralelo no encontrado", nil)
	case errors.Is(err, game.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, "Datos inválidos", err)
	case errors.Is(err, store.ErrNotFound):
		respondError(c, http.StatusNotFound, "Recurso no encontrado", nil)
	default:
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
		respondError(c, http.StatusInternalServerError, "Error interno del servidor", nil)
	}
}

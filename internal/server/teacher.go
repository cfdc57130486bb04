package server

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mathmaster/mathmaster/internal/game"
	"github.com/mathmaster/mathmaster/internal/report"
	"github.com/mathmaster/mathmaster/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ownParalelo checks that the caller teaches the paralelo. Admins may
// access every paralelo. Other teachers' paralelos are reported as missing.
func (s *Server) ownParalelo(c *gin.Context, id string) bool {
	p, err := s.store.GetParalelo(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && userRole(c) != store.RoleAdmin && p.TeacherID != userID(c)) {
		respondError(c, http.StatusNotFound, "Paralelo no encontrado o no tienes acceso", nil)
		return false
	}
	if err != nil {
		s.respondFailure(c, err)
		return false
	}
	return true
}

// GET /api/teacher/paralelo/:id/students
func (s *Server) paraleloStudents(c *gin.Context) {
	id := c.Param("id")
	if !s.ownParalelo(c, id) {
		return
	}
	students, err := s.game.ClassStudents(c.Request.Context(), id)
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	respondOK(c, "", gin.H{"students": students})
}

// GET /api/teacher/paralelo/:id/recommendations
func (s *Server) paraleloRecommendations(c *gin.Context) {
	id := c.Param("id")
	if !s.ownParalelo(c, id) {
		return
	}
	rep, err := s.game.ClassReport(c.Request.Context(), id)
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	respondOK(c, "", rep)
}

// GET /api/teacher/paralelo/:id/report.xlsx
func (s *Server) paraleloReport(c *gin.Context) {
	id := c.Param("id")
	if !s.ownParalelo(c, id) {
		return
	}
	ov, err := s.game.ClassOverview(c.Request.Context(), id)
	if err != nil {
		s.respondFailure(c, err)
		return
	}

	now := s.now()
	var buf bytes.Buffer
	if err := report.Write(&buf, ov, now); err != nil {
		s.respondFailure(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+report.Filename(ov, now)+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// POST /api/teacher/goals
func (s *Server) createGoal(c *gin.Context) {
	var req game.GoalInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Solicitud inválida", err)
		return
	}
	if req.ParaleloID == "" {
		respondError(c, http.StatusBadRequest, "paralelo_id es obligatorio", nil)
		return
	}
	if !s.ownParalelo(c, req.ParaleloID) {
		return
	}
	res, err := s.game.CreateGoal(c.Request.Context(), userID(c), req)
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	respondCreated(c, "Meta creada", res)
}

package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mathmaster/mathmaster/internal/store"
)

type createUserRequest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

type createParaleloRequest struct {
	Name      string `json:"name" binding:"required"`
	Level     string `json:"level" binding:"required"`
	TeacherID string `json:"teacher_id"`
}

type createEnrollmentRequest struct {
	StudentID  string `json:"student_id" binding:"required"`
	ParaleloID string `json:"paralelo_id" binding:"required"`
}

// POST /api/admin/users
func (s *Server) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Solicitud inválida", err)
		return
	}
	role := strings.ToLower(req.Role)
	switch role {
	case "":
		role = store.RoleStudent
	case store.RoleStudent, store.RoleTeacher, store.RoleAdmin:
	default:
		respondError(c, http.StatusBadRequest, "Rol inválido", nil)
		return
	}

	u := &store.User{
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      role,
		IsActive:  true,
	}
	if err := s.store.CreateUser(c.Request.Context(), u); err != nil {
		s.respondFailure(c, err)
		return
	}
	respondCreated(c, "Usuario creado", u)
}

// POST /api/admin/paralelos
func (s *Server) createParalelo(c *gin.Context) {
	var req createParaleloRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Solicitud inválida", err)
		return
	}
	if req.TeacherID != "" {
		t, err := s.store.GetUser(c.Request.Context(), req.TeacherID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && t.Role != store.RoleTeacher) {
			respondError(c, http.StatusBadRequest, "El profesor no existe", nil)
			return
		}
		if err != nil {
			s.respondFailure(c, err)
			return
		}
	}

	p := &store.Paralelo{Name: req.Name, Level: req.Level, TeacherID: req.TeacherID, IsActive: true}
	if err := s.store.CreateParalelo(c.Request.Context(), p); err != nil {
		s.respondFailure(c, err)
		return
	}
	respondCreated(c, "Paralelo creado", p)
}

// POST /api/admin/enrollments
func (s *Server) createEnrollment(c *gin.Context) {
	var req createEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Solicitud inválida", err)
		return
	}
	ctx := c.Request.Context()

	u, err := s.store.GetUser(ctx, req.StudentID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && u.Role != store.RoleStudent) {
		respondError(c, http.StatusBadRequest, "El estudiante no existe", nil)
		return
	}
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	if _, err := s.store.GetParalelo(ctx, req.ParaleloID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Paralelo no encontrado", nil)
			return
		}
		s.respondFailure(c, err)
		return
	}

	e := &store.Enrollment{StudentID: req.StudentID, ParaleloID: req.ParaleloID, IsActive: true}
	if err := s.store.Enroll(ctx, e); err != nil {
		s.respondFailure(c, err)
		return
	}
	respondCreated(c, "Estudiante inscrito", e)
}

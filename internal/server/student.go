package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mathmaster/mathmaster/internal/game"
)

type submitAnswerRequest struct {
	SessionID  string `json:"session_id" binding:"required"`
	ExerciseID string `json:"exercise_id" binding:"required"`
	Answer     string `json:"answer" binding:"required"`
	TimeTaken  int    `json:"time_taken"`
}

type endGameRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// POST /api/student/game/start
func (s *Server) startGame(c *gin.Context) {
	res, err := s.game.Start(c.Request.Context(), userID(c))
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	respondOK(c, "Sesión de juego iniciada", res)
}

// GET /api/student/game/next-exercise?session_id=
func (s *Server) nextExercise(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		respondError(c, http.StatusBadRequest, "session_id es obligatorio", nil)
		return
	}
	res, err := s.game.NextExercise(c.Request.Context(), userID(c), sessionID)
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	respondOK(c, "", res)
}

// POST /api/student/game/submit-answer
func (s *Server) submitAnswer(c *gin.Context) {
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Solicitud inválida", err)
		return
	}
	res, err := s.game.SubmitAnswer(c.Request.Context(), userID(c), game.Answer{
		SessionID:  req.SessionID,
		ExerciseID: req.ExerciseID,
		Answer:     req.Answer,
		TimeTaken:  req.TimeTaken,
	})
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	respondOK(c, "", res)
}

// POST /api/student/game/end
func (s *Server) endGame(c *gin.Context) {
	var req endGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Solicitud inválida", err)
		return
	}
	res, err := s.game.End(c.Request.Context(), userID(c), req.SessionID)
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	respondOK(c, "Sesión finalizada", res)
}

// GET /api/student/game/explain?exercise_id=&answer=
func (s *Server) explain(c *gin.Context) {
	exerciseID := c.Query("exercise_id")
	if exerciseID == "" {
		respondError(c, http.StatusBadRequest, "exercise_id es obligatorio", nil)
		return
	}
	res, err := s.game.Explain(c.Request.Context(), userID(c), exerciseID, c.Query("answer"))
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	respondOK(c, "", res)
}

// GET /api/student/stats
func (s *Server) stats(c *gin.Context) {
	res, err := s.game.Stats(c.Request.Context(), userID(c))
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	respondOK(c, "", res)
}

// GET /api/student/ranking?paralelo_id=
func (s *Server) ranking(c *gin.Context) {
	res, err := s.game.Ranking(c.Request.Context(), userID(c), c.Query("paralelo_id"))
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	respondOK(c, "", res)
}

// GET /api/student/recommendations
func (s *Server) recommendations(c *gin.Context) {
	recs, err := s.game.Recommendations(c.Request.Context(), userID(c))
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	respondOK(c, "", gin.H{"recommendations": recs})
}

// GET /api/student/goals
func (s *Server) studentGoals(c *gin.Context) {
	list, err := s.game.StudentGoals(c.Request.Context(), userID(c))
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	respondOK(c, "", gin.H{"goals": list})
}

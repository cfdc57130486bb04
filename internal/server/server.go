// Package server exposes the game and the teacher tools over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mathmaster/mathmaster/internal/game"
	"github.com/mathmaster/mathmaster/internal/logger"
	"github.com/mathmaster/mathmaster/internal/metrics"
	"github.com/mathmaster/mathmaster/internal/store"
)

// Store is the persistence used directly by handlers.
type Store interface {
	store.UserRepo
	store.ClassRepo
	Ping(ctx context.Context) error
}

type Config struct {
	Port        string
	CORSOrigins []string
	Production  bool
}

type Server struct {
	cfg     Config
	game    *game.Service
	store   Store
	metrics *metrics.Metrics
	log     *logger.Logger
	now     func() time.Time

	engine *gin.Engine
}

// New builds the server and its routes. m may be nil.
func New(cfg Config, svc *game.Service, st Store, m *metrics.Metrics, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		cfg:     cfg,
		game:    svc,
		store:   st,
		metrics: m,
		log:     log.With("component", "http"),
		now:     time.Now,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.log))
	r.Use(Metrics(s.metrics))
	r.Use(SecurityHeaders())
	r.Use(cors.New(corsConfig(s.cfg.CORSOrigins)))

	r.GET("/health", s.health)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api")

	student := api.Group("/student", RequireRole(store.RoleStudent))
	{
		student.POST("/game/start", s.startGame)
		student.GET("/game/next-exercise", s.nextExercise)
		student.POST("/game/submit-answer", s.submitAnswer)
		student.POST("/game/end", s.endGame)
		student.GET("/game/explain", s.explain)
		student.GET("/stats", s.stats)
		student.GET("/ranking", s.ranking)
		student.GET("/recommendations", s.recommendations)
		student.GET("/goals", s.studentGoals)
	}

	teacher := api.Group("/teacher", RequireRole(store.RoleTeacher))
	{
		teacher.GET("/paralelo/:id/students", s.paraleloStudents)
		teacher.GET("/paralelo/:id/recommendations", s.paraleloRecommendations)
		teacher.GET("/paralelo/:id/report.xlsx", s.paraleloReport)
		teacher.POST("/goals", s.createGoal)
	}

	admin := api.Group("/admin", RequireRole(store.RoleAdmin))
	{
		admin.POST("/users", s.createUser)
		admin.POST("/paralelos", s.createParalelo)
		admin.POST("/enrollments", s.createEnrollment)
	}

	return r
}

// corsConfig allows credentials for the listed origins, or any origin
// without credentials when the list is empty.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With", HeaderUserID, HeaderUserRole},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}

func (s *Server) health(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.log.Error("health check failed", "error", err)
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"service":   "mathmaster",
		"timestamp": s.now().UTC(),
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

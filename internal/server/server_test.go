package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mathmaster/mathmaster/internal/exercise"
	"github.com/mathmaster/mathmaster/internal/game"
	"github.com/mathmaster/mathmaster/internal/metrics"
	"github.com/mathmaster/mathmaster/internal/store"
)

type testEnv struct {
	t     *testing.T
	st    *store.Store
	srv   *Server
	admin string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(store.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	m := metrics.New()
	svc := game.New(game.Deps{
		Store:     st,
		Generator: exercise.NewSeededGenerator(3),
		Metrics:   m,
	})
	srv := New(Config{CORSOrigins: []string{"http://localhost:5173"}}, svc, st, m, nil)
	return &testEnv{t: t, st: st, srv: srv, admin: uuid.NewString()}
}

func (e *testEnv) do(method, path, uid, role string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if uid != "" {
		req.Header.Set(HeaderUserID, uid)
	}
	if role != "" {
		req.Header.Set(HeaderUserRole, role)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

// decode parses the envelope and unmarshals data into out when given.
func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) APIResponse {
	t.Helper()
	var env struct {
		APIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env.APIResponse
}

func (e *testEnv) createUser(role, first, last string) string {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/admin/users", e.admin, store.RoleAdmin, map[string]any{
		"email":      uuid.NewString() + "@example.com",
		"first_name": first,
		"last_name":  last,
		"role":       role,
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	var u store.User
	decode(e.t, rec, &u)
	return u.ID
}

func (e *testEnv) createParalelo(teacherID string, students ...string) string {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/admin/paralelos", e.admin, store.RoleAdmin, map[string]any{
		"name": "9no B", "level": "Noveno", "teacher_id": teacherID,
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	var p store.Paralelo
	decode(e.t, rec, &p)

	for _, id := range students {
		rec := e.do(http.MethodPost, "/api/admin/enrollments", e.admin, store.RoleAdmin, map[string]any{
			"student_id": id, "paralelo_id": p.ID,
		})
		require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	return p.ID
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/health", "", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Referrer-Policy"))
}

func TestIdentityRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/student/game/start", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, decode(t, rec, nil).Success)

	rec = env.do(http.MethodPost, "/api/admin/users", uuid.NewString(), store.RoleTeacher, map[string]any{})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/api/teacher/paralelo/x/students", uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/api/student/stats", uuid.NewString(), store.RoleTeacher, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/api/student/stats", env.admin, store.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec, nil).Success)
}

func TestGameFlow(t *testing.T) {
	env := newTestEnv(t)
	stu := env.createUser(store.RoleStudent, "Ana", "Paz")

	rec := env.do(http.MethodPost, "/api/student/game/start", stu, store.RoleStudent, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var start game.StartResult
	resp := decode(t, rec, &start)
	assert.True(t, resp.Success)
	assert.Equal(t, "Sesión de juego iniciada", resp.Message)
	require.NotEmpty(t, start.SessionID)

	rec = env.do(http.MethodGet, "/api/student/game/next-exercise?session_id="+start.SessionID, stu, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var next game.NextExercise
	decode(t, rec, &next)
	assert.Len(t, next.Options, 4)
	assert.NotContains(t, rec.Body.String(), "correct_answer")

	ex, err := env.st.GetExercise(context.Background(), next.ExerciseID)
	require.NoError(t, err)

	// No explanation before the exercise is answered.
	rec = env.do(http.MethodGet, "/api/student/game/explain?exercise_id="+next.ExerciseID, stu, "", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.NotContains(t, rec.Body.String(), ex.Explanation)

	rec = env.do(http.MethodPost, "/api/student/game/submit-answer", stu, "", map[string]any{
		"session_id": start.SessionID, "exercise_id": next.ExerciseID, "answer": ex.CorrectAnswer, "time_taken": 12,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ans game.AnswerResult
	decode(t, rec, &ans)
	assert.True(t, ans.IsCorrect)
	assert.Equal(t, 15, ans.NewScore)

	rec = env.do(http.MethodGet, "/api/student/game/explain?exercise_id="+next.ExerciseID, stu, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source":"generator"`)

	other := env.createUser(store.RoleStudent, "Luis", "Mora")
	rec = env.do(http.MethodGet, "/api/student/game/explain?exercise_id="+next.ExerciseID, other, "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/api/student/game/end", stu, "", map[string]any{"session_id": start.SessionID})
	require.Equal(t, http.StatusOK, rec.Code)
	var end game.EndResult
	decode(t, rec, &end)
	assert.Equal(t, 15, end.FinalScore)
	assert.Equal(t, 100.0, end.Accuracy)

	rec = env.do(http.MethodGet, "/api/student/stats", stu, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats game.Stats
	decode(t, rec, &stats)
	assert.Equal(t, 1, stats.General.TotalAttempts)

	rec = env.do(http.MethodGet, "/api/student/recommendations", stu, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recommendations"`)
}

func TestGameErrors(t *testing.T) {
	env := newTestEnv(t)
	stu := env.createUser(store.RoleStudent, "Ana", "Paz")

	rec := env.do(http.MethodGet, "/api/student/game/next-exercise", stu, "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/student/game/next-exercise?session_id="+uuid.NewString(), stu, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Sesión no encontrada o finalizada", decode(t, rec, nil).Message)

	rec = env.do(http.MethodPost, "/api/student/game/submit-answer", stu, "", map[string]any{"session_id": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/student/ranking", stu, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No estás inscrito en ningún paralelo", decode(t, rec, nil).Message)
}

func TestTeacherEndpoints(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(store.RoleTeacher, "Marta", "Ríos")
	other := env.createUser(store.RoleTeacher, "Jorge", "Vega")
	ana := env.createUser(store.RoleStudent, "Ana", "Paz")
	luis := env.createUser(store.RoleStudent, "Luis", "Mora")
	par := env.createParalelo(teacher, ana, luis)

	rec := env.do(http.MethodGet, "/api/teacher/paralelo/"+par+"/students", teacher, store.RoleTeacher, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var students struct {
		Students []game.StudentSummary `json:"students"`
	}
	decode(t, rec, &students)
	require.Len(t, students.Students, 2)
	assert.Equal(t, "Mora", students.Students[0].LastName)

	rec = env.do(http.MethodGet, "/api/teacher/paralelo/"+par+"/students", other, store.RoleTeacher, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodGet, "/api/teacher/paralelo/"+par+"/recommendations", env.admin, store.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"overall_health"`)

	rec = env.do(http.MethodGet, "/api/teacher/paralelo/"+par+"/report.xlsx", teacher, store.RoleTeacher, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	rows, err := f.GetRows("Estudiantes")
	require.NoError(t, err)
	assert.Len(t, rows, 5)
	f.Close()

	now := time.Now().UTC()
	rec = env.do(http.MethodPost, "/api/teacher/goals", teacher, store.RoleTeacher, map[string]any{
		"paralelo_id":  par,
		"title":        "Diez ejercicios",
		"goal_type":    "exercises",
		"target_value": 10,
		"start_date":   now.Add(-time.Hour).Format(time.RFC3339),
		"end_date":     now.Add(7 * 24 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created game.CreatedGoal
	decode(t, rec, &created)
	assert.Equal(t, 2, created.Assigned)

	rec = env.do(http.MethodGet, "/api/student/goals", ana, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Diez ejercicios")

	rec = env.do(http.MethodPost, "/api/teacher/goals", teacher, store.RoleTeacher, map[string]any{
		"paralelo_id": par, "title": "x", "goal_type": "speed", "target_value": 1,
		"start_date": now.Format(time.RFC3339), "end_date": now.Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/admin/users", env.admin, store.RoleAdmin, map[string]any{
		"email": "no-es-correo", "first_name": "Ana",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/admin/users", env.admin, store.RoleAdmin, map[string]any{
		"email": "ana@example.com", "first_name": "Ana", "role": "director",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	stu := env.createUser(store.RoleStudent, "Ana", "Paz")
	rec = env.do(http.MethodPost, "/api/admin/paralelos", env.admin, store.RoleAdmin, map[string]any{
		"name": "A", "level": "1", "teacher_id": stu,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/admin/enrollments", env.admin, store.RoleAdmin, map[string]any{
		"student_id": stu, "paralelo_id": uuid.NewString(),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(http.MethodGet, "/health", "", "", nil)

	rec := env.do(http.MethodGet, "/metrics", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `mathmaster_http_requests_total{method="GET",route="/health",status="200"} 1`), rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/student/stats", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingora-app/lingora/internal/application/command"
	"github.com/lingora-app/lingora/internal/application/query"
	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/internal/domain/progress"
	"github.com/lingora-app/lingora/internal/infrastructure/audit"
	"github.com/lingora-app/lingora/internal/infrastructure/persistence/memory"
	"github.com/lingora-app/lingora/internal/infrastructure/ratelimit"
	"github.com/lingora-app/lingora/pkg/logger"
)

// newTestServer wires a full server over in-memory stores. The
// completion handler's clock runs one minute ahead of the session
// store's so freshly issued tokens clear the timing floor.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	lsn := &lesson.Lesson{
		ID:       "lesson-1",
		UnitID:   "unit-1",
		Title:    "Greetings",
		XPReward: 10,
		Exercises: []lesson.Exercise{
			{ID: "ex-1", LessonID: "lesson-1", SkillType: lesson.SkillVocabulary, Position: 1},
			{ID: "ex-2", LessonID: "lesson-1", SkillType: lesson.SkillListening, Position: 2},
		},
	}

	log := logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
	lessonRepo := memory.NewLessonRepo(lsn)
	progressRepo := memory.NewProgressRepo()
	sessionStore := memory.NewSessionStore()
	userRepo := memory.NewUserRepo()
	ledger := progress.NewLedger(progressRepo)
	securityLog := audit.NewSecurityLog(audit.WithLogger(log))

	completeHandler := command.NewCompleteLessonHandler(
		ratelimit.NewSlidingWindow(ratelimit.DefaultConfig()),
		sessionStore,
		lessonRepo,
		ledger,
		securityLog,
		nil,
		command.DefaultCompletionConfig(),
		log,
	).WithClock(func() time.Time { return time.Now().UTC().Add(time.Minute) })

	cfg := DefaultConfig()
	cfg.RequestsPerMinute = 0 // no transport limiting in tests

	deps := Dependencies{
		StartLessonHandler:      command.NewStartLessonHandler(lessonRepo, sessionStore, ledger, nil, log),
		CompleteLessonHandler:   completeHandler,
		RegisterUserHandler:     command.NewRegisterUserHandler(userRepo, log),
		GetDailyProgressHandler: query.NewGetDailyProgressHandler(progressRepo),
		UserRepo:                userRepo,
		Authenticator:           memory.NewAuthStore(time.Hour),
		Logger:                  log,
	}

	return NewServer(cfg, deps)
}

func doJSON(t *testing.T, srv *Server, method, path, bearer string, body any) (*httptest.ResponseRecorder, JSONResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func dataField(t *testing.T, resp JSONResponse, key string) any {
	t.Helper()
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "response data should be an object")
	return data[key]
}

func registerTestUser(t *testing.T, srv *Server, email string) string {
	t.Helper()
	rec, resp := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", registerRequest{
		Email:          email,
		Password:       "correct-horse",
		DisplayName:    "Tester",
		NativeLanguage: "en",
		TargetLanguage: "es",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	token, _ := dataField(t, resp, "token").(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)
	registerTestUser(t, srv, "learner@example.com")

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", loginRequest{
		Email:    "learner@example.com",
		Password: "correct-horse",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	rec, resp = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", loginRequest{
		Email:    "learner@example.com",
		Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid_credentials", resp.Error.Code)

	// Duplicate registration conflicts.
	rec, _ = doJSON(t, srv, http.MethodPost, "/api/auth/register", "", registerRequest{
		Email:          "learner@example.com",
		Password:       "correct-horse",
		DisplayName:    "Tester",
		NativeLanguage: "en",
		TargetLanguage: "es",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLessonEndpointsRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/lessons/lesson-1/session"},
		{http.MethodPost, "/api/lessons/lesson-1/complete"},
		{http.MethodGet, "/api/progress/daily"},
	} {
		rec, _ := doJSON(t, srv, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}

	rec, _ := doJSON(t, srv, http.MethodGet, "/api/progress/daily", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCompletionFlow(t *testing.T) {
	srv := newTestServer(t)
	bearer := registerTestUser(t, srv, "flow@example.com")

	// Start a session.
	rec, resp := doJSON(t, srv, http.MethodPost, "/api/lessons/lesson-1/session", bearer, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	sessionToken, _ := dataField(t, resp, "token").(string)
	require.NotEmpty(t, sessionToken)
	assert.EqualValues(t, 2, dataField(t, resp, "exercise_count"))

	// Complete it.
	body := completeLessonRequest{
		Token:       sessionToken,
		ExerciseIDs: []string{"ex-1", "ex-2"},
		Score:       90,
	}
	rec, resp = doJSON(t, srv, http.MethodPost, "/api/lessons/lesson-1/complete", bearer, body)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	assert.EqualValues(t, 10, dataField(t, resp, "xp_earned"))
	assert.Equal(t, true, dataField(t, resp, "first_completed"))

	// Replaying the spent token conflicts.
	rec, resp = doJSON(t, srv, http.MethodPost, "/api/lessons/lesson-1/complete", bearer, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid_session", resp.Error.Code)

	// The XP shows up in daily progress.
	rec, resp = doJSON(t, srv, http.MethodGet, "/api/progress/daily", bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 10, dataField(t, resp, "TotalXP"))
}

func TestCompletionRejectsBadScore(t *testing.T) {
	srv := newTestServer(t)
	bearer := registerTestUser(t, srv, "score@example.com")

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/lessons/lesson-1/session", bearer, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	sessionToken, _ := dataField(t, resp, "token").(string)

	rec, resp = doJSON(t, srv, http.MethodPost, "/api/lessons/lesson-1/complete", bearer, completeLessonRequest{
		Token:       sessionToken,
		ExerciseIDs: []string{"ex-1", "ex-2"},
		Score:       101,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid_score", resp.Error.Code)
}

func TestUnknownLessonIs404(t *testing.T) {
	srv := newTestServer(t)
	bearer := registerTestUser(t, srv, fmt.Sprintf("u%d@example.com", time.Now().UnixNano()))

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/lessons/lesson-99/session", bearer, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Code)
}

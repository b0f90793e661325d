// Package http implements the REST API for Lingora.
package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lingora-app/lingora/internal/application/command"
	"github.com/lingora-app/lingora/internal/application/query"
	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/internal/domain/session"
	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "Lingora API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":   "/health",
			"register": "/api/auth/register",
			"login":    "/api/auth/login",
			"session":  "/api/lessons/{id}/session",
			"complete": "/api/lessons/{id}/complete",
			"progress": "/api/progress/daily",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

// handleLive handles the liveness probe endpoint.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	DisplayName    string `json:"display_name"`
	NativeLanguage string `json:"native_language"`
	TargetLanguage string `json:"target_language"`
}

type authResponse struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

// handleRegister handles POST /api/auth/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	cmd := command.RegisterUserCommand{
		Email:          req.Email,
		Password:       req.Password,
		DisplayName:    req.DisplayName,
		NativeLanguage: req.NativeLanguage,
		TargetLanguage: req.TargetLanguage,
	}

	result, err := s.deps.RegisterUserHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	token, err := s.deps.Authenticator.Issue(r.Context(), result.UserID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		UserID: string(result.UserID),
		Token:  token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin handles POST /api/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	u, err := s.deps.UserRepo.GetByEmail(r.Context(), req.Email)
	if err != nil {
		// Same response for unknown email and wrong password.
		s.writeDomainError(w, r, shared.ErrInvalidCredentials)
		return
	}

	if !u.CheckPassword(req.Password) {
		s.writeDomainError(w, r, shared.ErrInvalidCredentials)
		return
	}

	token, err := s.deps.Authenticator.Issue(r.Context(), u.ID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		UserID: string(u.ID),
		Token:  token,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type startLessonResponse struct {
	Token         string    `json:"token"`
	LessonID      string    `json:"lesson_id"`
	ExerciseCount int       `json:"exercise_count"`
	IssuedAt      time.Time `json:"issued_at"`
}

// handleStartLesson handles POST /api/lessons/{id}/session
func (s *Server) handleStartLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r.Context())
	if !ok {
		s.writeDomainError(w, r, shared.ErrNotAuthenticated)
		return
	}

	lessonID := lesson.LessonID(r.PathValue("id"))
	if lessonID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Lesson ID is required")
		return
	}

	cmd := command.StartLessonCommand{
		UserID:   userID,
		LessonID: lessonID,
	}

	result, err := s.deps.StartLessonHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, startLessonResponse{
		Token:         string(result.Token),
		LessonID:      string(result.LessonID),
		ExerciseCount: result.ExerciseCount,
		IssuedAt:      result.IssuedAt,
	})
}

type completeLessonRequest struct {
	Token       string   `json:"token"`
	ExerciseIDs []string `json:"exercise_ids"`
	Score       int      `json:"score"`
}

type completeLessonResponse struct {
	LessonID       string    `json:"lesson_id"`
	UnitID         string    `json:"unit_id"`
	Score          int       `json:"score"`
	XPEarned       int       `json:"xp_earned"`
	FirstCompleted bool      `json:"first_completed"`
	CompletedAt    time.Time `json:"completed_at"`
}

// handleCompleteLesson handles POST /api/lessons/{id}/complete
func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r.Context())
	if !ok {
		s.writeDomainError(w, r, shared.ErrNotAuthenticated)
		return
	}

	lessonID := lesson.LessonID(r.PathValue("id"))
	if lessonID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Lesson ID is required")
		return
	}

	var req completeLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	exerciseIDs := make([]lesson.ExerciseID, 0, len(req.ExerciseIDs))
	for _, id := range req.ExerciseIDs {
		exerciseIDs = append(exerciseIDs, lesson.ExerciseID(id))
	}

	cmd := command.CompleteLessonCommand{
		UserID:      userID,
		LessonID:    lessonID,
		Token:       session.Token(req.Token),
		ExerciseIDs: exerciseIDs,
		Score:       req.Score,
	}

	result, err := s.deps.CompleteLessonHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Debug("lesson completion accepted",
		logger.UserID(string(userID)),
		logger.LessonID(string(lessonID)),
	)

	writeJSON(w, http.StatusOK, completeLessonResponse{
		LessonID:       string(result.LessonID),
		UnitID:         result.UnitID,
		Score:          result.Score,
		XPEarned:       result.XPEarned,
		FirstCompleted: result.FirstCompleted,
		CompletedAt:    result.CompletedAt,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetDailyProgress handles GET /api/progress/daily
func (s *Server) handleGetDailyProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r.Context())
	if !ok {
		s.writeDomainError(w, r, shared.ErrNotAuthenticated)
		return
	}

	q := query.GetDailyProgressQuery{
		UserID: userID,
		Days:   getQueryParamInt(r, "days", query.DefaultHistoryDays),
	}

	result, err := s.deps.GetDailyProgressHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/focusloop/focusloop-backend/internal/exam"
	"github.com/focusloop/focusloop-backend/internal/middleware"
	"github.com/focusloop/focusloop-backend/internal/model"
	"github.com/focusloop/focusloop-backend/internal/repository"
	"github.com/focusloop/focusloop-backend/internal/response"
	"github.com/focusloop/focusloop-backend/internal/service"
	"github.com/focusloop/focusloop-backend/internal/validator"
)

// ExamHandler handles exam session lifecycle endpoints.
type ExamHandler struct {
	sessionService *service.ExamSessionService
	studentRepo    *repository.StudentRepository
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(sessionService *service.ExamSessionService, studentRepo *repository.StudentRepository) *ExamHandler {
	return &ExamHandler{
		sessionService: sessionService,
		studentRepo:    studentRepo,
	}
}

// CreateSession godoc
// POST /api/v1/sessions
// Builds a new exam session in AWAITING_START with a generated (or fallback)
// question set.
func (h *ExamHandler) CreateSession(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentRepo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	machine, err := h.sessionService.CreateSession(c.Request.Context(), student, &req)
	if err != nil {
		if errors.Is(err, service.ErrActiveSessionOpen) {
			response.Fail(c, http.StatusConflict, response.ErrSessionActiveRun)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"session":   machine.View(),
		"questions": machine.Questions(),
	})
}

// PrewarmSession godoc
// POST /api/v1/sessions/prewarm
// Queues background question generation so the next session starts instantly.
func (h *ExamHandler) PrewarmSession(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req struct {
		Topic      string `json:"topic" binding:"required,min=2,max=60"`
		Count      int    `json:"count" binding:"omitempty,min=1,max=30"`
		Difficulty string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	}
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentRepo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if err := h.sessionService.PrewarmQuestionSet(c.Request.Context(), student, req.Topic, req.Count, req.Difficulty); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"status": "queued"})
}

// StartSession godoc
// POST /api/v1/sessions/:session_id/start
// Moves the session to IN_PROGRESS and starts attention tracking when
// available.
func (h *ExamHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	machine, err := h.sessionService.StartSession(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": machine.View()})
}

// GetSession godoc
// GET /api/v1/sessions/:session_id
// Returns the live session snapshot plus the current question.
func (h *ExamHandler) GetSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	machine, err := h.sessionService.Machine(sessionID, claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	view := machine.View()
	questions := machine.Questions()
	var current *exam.Question
	if view.CurrentQuestion >= 0 && view.CurrentQuestion < len(questions) {
		current = &questions[view.CurrentQuestion]
	}

	response.Success(c, http.StatusOK, gin.H{
		"session":  view,
		"question": current,
	})
}

// ConfirmAnswer godoc
// POST /api/v1/sessions/:session_id/answer
// Saves the answer for the current question and advances the pointer.
func (h *ExamHandler) ConfirmAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req model.ConfirmAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	machine, err := h.sessionService.ConfirmAnswer(sessionID, claims.UserID, exam.Option(req.Selected))
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": machine.View()})
}

// Seek godoc
// POST /api/v1/sessions/:session_id/seek
// Moves the current-question pointer. Frozen while paused.
func (h *ExamHandler) Seek(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req model.SeekRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	machine, err := h.sessionService.Seek(sessionID, claims.UserID, req.Index)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": machine.View()})
}

// Resume godoc
// POST /api/v1/sessions/:session_id/resume
// Clears a distraction pause and restarts the countdown.
func (h *ExamHandler) Resume(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	machine, err := h.sessionService.Resume(sessionID, claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": machine.View()})
}

// FinishSession godoc
// POST /api/v1/sessions/:session_id/finish
// Completes the session and returns the scored result. Idempotent.
func (h *ExamHandler) FinishSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	result, err := h.sessionService.Finish(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// GetResult godoc
// GET /api/v1/sessions/:session_id/result
// Returns the result of a finished session.
func (h *ExamHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	result, err := h.sessionService.Result(sessionID, claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// History godoc
// GET /api/v1/sessions/history?page=1&per_page=20
// Lists the student's persisted session records, newest first.
func (h *ExamHandler) History(c *gin.Context) {
	claims := middleware.GetClaims(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	sessions, total, err := h.sessionService.History(c.Request.Context(), claims.UserID, perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	totalPages := (total + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"sessions": sessions}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// ─── Shared helpers ─────────────────────────────────────────────────

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return sessionID, true
}

// failSessionError maps service and state machine errors onto the API error
// taxonomy.
func failSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotSessionOwner):
		response.Fail(c, http.StatusForbidden, response.ErrTokenInvalid)
	case errors.Is(err, service.ErrResultNotAvailable):
		response.Fail(c, http.StatusConflict, response.ErrResultNotReady)
	case errors.Is(err, exam.ErrPausedNavigate):
		response.Fail(c, http.StatusConflict, response.ErrPausedNavigation)
	case errors.Is(err, exam.ErrNotPaused):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotPaused)
	case errors.Is(err, exam.ErrInvalidOption):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidAnswer)
	case errors.Is(err, exam.ErrQuestionIndex):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidQuestion)
	case errors.Is(err, exam.ErrInvalidState):
		response.Fail(c, http.StatusConflict, response.ErrInvalidState)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/certprep/certprep-backend/internal/model"
	"github.com/certprep/certprep-backend/internal/response"
	"github.com/certprep/certprep-backend/internal/service"
	"github.com/certprep/certprep-backend/internal/validator"
)

// TestHandler handles the practice-test lifecycle endpoints.
type TestHandler struct {
	testService *service.TestService
}

// NewTestHandler creates a new TestHandler.
func NewTestHandler(testService *service.TestService) *TestHandler {
	return &TestHandler{testService: testService}
}

// StartTest godoc
// POST /api/v1/tests/start
// Resolves the taker (registered id or guest fullname), samples a fresh
// question set and issues a one-time submission token.
func (h *TestHandler) StartTest(c *gin.Context) {
	var req model.StartTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.TranslateErrors(err))
		return
	}

	result, err := h.testService.StartTest(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIdentityRequired):
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrEmptyBank):
			response.Fail(c, http.StatusConflict, response.ErrEmptyQuestionBank)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// SubmitTest godoc
// POST /api/v1/tests/submit
// Scores a finished attempt and persists the result with its answer rows.
// A session token, when present, is consumed exactly once.
func (h *TestHandler) SubmitTest(c *gin.Context) {
	var req model.SubmitTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.TranslateErrors(err))
		return
	}

	result, err := h.testService.SubmitTest(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateSubmission) {
			response.Fail(c, http.StatusConflict, response.ErrDuplicateSubmission)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// GetResult godoc
// GET /api/v1/tests/results/:id
// Returns one scored attempt with its per-question review.
func (h *TestHandler) GetResult(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, err := h.testService.GetResult(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// GetPerformance godoc
// POST /api/v1/tests/performance
// Returns a student's dashboard: history, per-domain accuracy, feedback and
// the current reassessment flag. Lookup never creates a user.
func (h *TestHandler) GetPerformance(c *gin.Context) {
	var req model.StartTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.TranslateErrors(err))
		return
	}

	report, err := h.testService.GetPerformanceByIdentity(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIdentityRequired):
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, report)
}

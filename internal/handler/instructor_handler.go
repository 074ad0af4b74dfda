package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/certprep/certprep-backend/internal/middleware"
	"github.com/certprep/certprep-backend/internal/model"
	"github.com/certprep/certprep-backend/internal/response"
	"github.com/certprep/certprep-backend/internal/service"
	"github.com/certprep/certprep-backend/internal/validator"
)

// InstructorHandler handles the instructor dashboard endpoints: roster,
// assignments and feedback.
type InstructorHandler struct {
	testService       *service.TestService
	assignmentService *service.AssignmentService
	feedbackService   *service.FeedbackService
}

// NewInstructorHandler creates a new InstructorHandler.
func NewInstructorHandler(
	testService *service.TestService,
	assignmentService *service.AssignmentService,
	feedbackService *service.FeedbackService,
) *InstructorHandler {
	return &InstructorHandler{
		testService:       testService,
		assignmentService: assignmentService,
		feedbackService:   feedbackService,
	}
}

// ListStudents godoc
// GET /api/v1/instructor/students
// Returns the full roster with attempt stats and reassessment flags.
func (h *InstructorHandler) ListStudents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	search := c.Query("search")

	students, pagination, err := h.testService.ListStudents(c.Request.Context(), search, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"students": students}, pagination)
}

// GetStudent godoc
// GET /api/v1/instructor/students/:id
// Returns one student's full performance report.
func (h *InstructorHandler) GetStudent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	report, err := h.testService.GetPerformance(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// AssignExam godoc
// POST /api/v1/instructor/assignments
// Fans one exam out to every listed student atomically.
func (h *InstructorHandler) AssignExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.AssignExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.TranslateErrors(err))
		return
	}

	created, err := h.assignmentService.Assign(c.Request.Context(), claims.UserID, req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, created)
}

// ListAssignments godoc
// GET /api/v1/instructor/assignments?studentId=N
// With studentId, lists that student's assignments; without, lists the
// caller's own view (instructors see what they issued, students see what
// they received).
func (h *InstructorHandler) ListAssignments(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if raw := c.Query("studentId"); raw != "" {
		studentID, err := strconv.Atoi(raw)
		if err != nil || studentID < 1 {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		// Students may only list their own assignments.
		if claims.Role != model.RoleInstructor && claims.UserID != studentID {
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
			return
		}
		assignments, err := h.assignmentService.ListForStudent(c.Request.Context(), studentID)
		if err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		response.Success(c, http.StatusOK, assignments)
		return
	}

	var (
		assignments []model.ExamAssignment
		err         error
	)
	if claims.Role == model.RoleInstructor {
		assignments, err = h.assignmentService.ListForInstructor(c.Request.Context(), claims.UserID)
	} else {
		assignments, err = h.assignmentService.ListForStudent(c.Request.Context(), claims.UserID)
	}
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, assignments)
}

// UpdateAssignment godoc
// PUT /api/v1/instructor/assignments/:id
// Transitions one assignment's stored status. Ownership is enforced: the
// issuing instructor or the assigned student.
func (h *InstructorHandler) UpdateAssignment(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.TranslateErrors(err))
		return
	}

	updated, err := h.assignmentService.UpdateStatus(c.Request.Context(), claims, id, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNotOwner):
			response.Fail(c, http.StatusForbidden, response.ErrNotOwner)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, updated)
}

// DeleteAssignment godoc
// DELETE /api/v1/instructor/assignments/:id
// Removes an assignment. Only the issuing instructor may delete.
func (h *InstructorHandler) DeleteAssignment(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.assignmentService.Delete(c.Request.Context(), claims, id); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNotOwner):
			response.Fail(c, http.StatusForbidden, response.ErrNotOwner)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// AddFeedback godoc
// POST /api/v1/instructor/feedback
// Appends an immutable feedback entry for a student.
func (h *InstructorHandler) AddFeedback(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.AddFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.TranslateErrors(err))
		return
	}

	created, err := h.feedbackService.Add(c.Request.Context(), claims.UserID, req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, created)
}

package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/moderation-service/internal/models"
	"github.com/SAP-F-2025/moderation-service/internal/repositories"
	"github.com/SAP-F-2025/moderation-service/internal/services"
	"github.com/SAP-F-2025/moderation-service/internal/utils"
)

type AssessmentHandler struct {
	BaseHandler
	assessmentService services.AssessmentService
	reportService     services.ReportService
}

func NewAssessmentHandler(assessmentService services.AssessmentService, reportService services.ReportService, logger utils.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		assessmentService: assessmentService,
		reportService:     reportService,
	}
}

// CreateAssessment submits a new assessment as a draft.
func (h *AssessmentHandler) CreateAssessment(c *gin.Context) {
	h.LogRequest(c, "Creating assessment")
	callerID, _ := h.CallerID(c)

	var req services.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   string(services.CodeInvalidArgument),
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	assessment, err := h.assessmentService.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"assessment_id": assessment.ID})
}

// ModerateAssessment records a moderation decision.
func (h *AssessmentHandler) ModerateAssessment(c *gin.Context) {
	assessmentID := c.Param("id")
	h.LogRequest(c, "Moderating assessment", "assessment_id", assessmentID)
	callerID, _ := h.CallerID(c)

	var req services.ModerateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   string(services.CodeInvalidArgument),
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	assessment, err := h.assessmentService.Moderate(c.Request.Context(), assessmentID, &req, callerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: fmt.Sprintf("Assessment %s", assessment.Status),
	})
}

// GetAssessment returns a single assessment.
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	assessmentID := c.Param("id")
	callerID, _ := h.CallerID(c)

	assessment, err := h.assessmentService.GetByID(c.Request.Context(), assessmentID, callerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"assessment": assessment})
}

// ListAssessments lists assessments with optional filters.
func (h *AssessmentHandler) ListAssessments(c *gin.Context) {
	callerID, _ := h.CallerID(c)

	filters, ok := h.parseAssessmentFilters(c)
	if !ok {
		return
	}

	assessments, err := h.assessmentService.List(c.Request.Context(), filters, callerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"assessments": assessments})
}

// ExportAssessments streams the assessment list as an xlsx workbook.
// Admin only.
func (h *AssessmentHandler) ExportAssessments(c *gin.Context) {
	h.LogRequest(c, "Exporting assessments")
	callerID, _ := h.CallerID(c)

	filters, ok := h.parseAssessmentFilters(c)
	if !ok {
		return
	}

	report, err := h.reportService.ExportAssessments(c.Request.Context(), callerID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("assessments-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := report.Write(c.Writer); err != nil {
		h.LogError(c, err, "failed to stream report")
	}
}

func (h *AssessmentHandler) parseAssessmentFilters(c *gin.Context) (repositories.AssessmentFilters, bool) {
	var filters repositories.AssessmentFilters

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.AssessmentStatus(statusStr)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   string(services.CodeInvalidArgument),
				Message: "Invalid status filter",
				Details: statusStr,
			})
			return filters, false
		}
		filters.Status = &status
	}
	if lecturerID := c.Query("lecturer_id"); lecturerID != "" {
		filters.LecturerID = &lecturerID
	}
	if moderatorID := c.Query("moderator_id"); moderatorID != "" {
		filters.ModeratorID = &moderatorID
	}

	return filters, true
}

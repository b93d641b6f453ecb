package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/moderation-service/internal/models"
	"github.com/SAP-F-2025/moderation-service/internal/repositories"
)

const reportSheet = "Assessments"

type reportService struct {
	repo        repositories.Repository
	userService UserService
	logger      *slog.Logger
}

func NewReportService(repo repositories.Repository, userService UserService, logger *slog.Logger) ReportService {
	return &reportService{
		repo:        repo,
		userService: userService,
		logger:      logger,
	}
}

// ExportAssessments builds an xlsx workbook with one row per assessment
// matching the filters. Admin only.
func (s *reportService) ExportAssessments(ctx context.Context, callerID string, filters repositories.AssessmentFilters) (*excelize.File, error) {
	if callerID == "" {
		return nil, NewUnauthenticatedError()
	}
	if !s.userService.VerifyUserRole(ctx, callerID, models.RoleAdmin) {
		return nil, NewPermissionError(callerID, "assessments", "export", "admin role required")
	}

	assessments, err := s.repo.Assessments().List(ctx, filters)
	if err != nil {
		return nil, NewInternalError("failed to list assessments for export", err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, NewInternalError("failed to build report sheet", err)
	}

	headers := []string{"ID", "Title", "Type", "Status", "Lecturer", "Moderator", "Feedback", "Created At", "Updated At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(reportSheet, cell, header); err != nil {
			return nil, NewInternalError("failed to write report header", err)
		}
	}

	for row, a := range assessments {
		values := []interface{}{
			a.ID,
			a.Title,
			a.Type,
			string(a.Status),
			a.LecturerID,
			derefOr(a.ModeratorID, ""),
			derefOr(a.Feedback, ""),
			a.CreatedAt.Format("2006-01-02 15:04:05"),
			a.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(reportSheet, cell, value); err != nil {
				return nil, NewInternalError(fmt.Sprintf("failed to write report row %d", row+2), err)
			}
		}
	}

	s.logger.InfoContext(ctx, "assessment report exported",
		"caller_id", callerID,
		"rows", len(assessments))
	return f, nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

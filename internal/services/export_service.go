package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/scoring-service/internal/repositories"
)

// ResultExportService renders an exam's graded results as a spreadsheet
// for teachers and administrators.
type ResultExportService interface {
	ExportExamResults(ctx context.Context, examID uint) ([]byte, string, error)
}

type resultExportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewResultExportService(repo repositories.Repository, logger *slog.Logger) ResultExportService {
	return &resultExportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportExamResults returns the workbook bytes and a suggested filename.
func (s *resultExportService) ExportExamResults(ctx context.Context, examID uint) ([]byte, string, error) {
	exam, err := s.repo.Exam().GetByID(ctx, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrExamNotFound
		}
		return nil, "", fmt.Errorf("failed to get exam: %w", err)
	}

	summaries, err := s.repo.Result().GetSummariesByExam(ctx, examID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load exam results: %w", err)
	}

	attemptStudents, err := s.studentsByAttempt(ctx, examID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Attempt ID", "Student ID", "Total Questions", "Correct", "Wrong", "Unanswered",
		"Marks", "Max Marks", "Percentage", "Grade", "Passed", "Graded At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, summary := range summaries {
		row := []interface{}{
			summary.AttemptID,
			attemptStudents[summary.AttemptID],
			summary.TotalQuestions,
			summary.Correct,
			summary.Wrong,
			summary.Unanswered,
			summary.MarksObtained,
			summary.MaxMarks,
			summary.Percentage,
			summary.Grade,
			summary.Passed,
			summary.GradedAt.Format("2006-01-02 15:04:05"),
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write Excel file: %w", err)
	}

	filename := fmt.Sprintf("exam_%d_results.xlsx", examID)
	s.logger.Info("Exported exam results",
		"exam_id", examID,
		"exam_title", exam.Title,
		"rows", len(summaries))
	return buf.Bytes(), filename, nil
}

func (s *resultExportService) studentsByAttempt(ctx context.Context, examID uint) (map[uint]string, error) {
	students := make(map[uint]string)
	offset := 0
	for {
		attempts, _, err := s.repo.Attempt().List(ctx, repositories.AttemptFilters{
			ExamID: &examID,
			Limit:  100,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list exam attempts: %w", err)
		}
		for _, a := range attempts {
			students[a.ID] = a.StudentID
		}
		if len(attempts) < 100 {
			return students, nil
		}
		offset += len(attempts)
	}
}

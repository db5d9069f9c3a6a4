package printserver

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const jobsSheet = "Print jobs"

var jobColumns = []string{
	"ID", "Printer", "Width (px)", "Height (px)", "Image bytes",
	"Status", "Error", "Archived", "Printed at", "Received at",
}

// ExportJobs writes the recent job history as an xlsx workbook
func (s *PrintService) ExportJobs(ctx context.Context, req ListJobsRequest, w io.Writer) error {
	jobs, err := s.ListJobs(ctx, req)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", jobsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	for i, header := range jobColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(jobsSheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(jobColumns), 1)
	if err := f.SetCellStyle(jobsSheet, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for r, job := range jobs {
		printedAt := ""
		if job.PrintedAt != nil {
			printedAt = job.PrintedAt.UTC().Format(time.RFC3339)
		}
		row := []any{
			job.ID, job.Printer, job.Width, job.Height, job.ImageBytes,
			job.Status, job.ErrorMessage, job.Archived, printedAt,
			job.CreatedAt.UTC().Format(time.RFC3339),
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(jobsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	if err := f.SetColWidth(jobsSheet, "A", "A", 38); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(jobsSheet, "B", "J", 16); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

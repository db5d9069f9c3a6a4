package printing

import (
	"context"

	"github.com/google/uuid"
)

// PrintJobRepository defines the interface for print job persistence
type PrintJobRepository interface {
	// FindByID finds a job by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PrintJob, error)

	// FindRecent finds the most recent jobs, newest first.
	// A printerName of "" matches every printer.
	FindRecent(ctx context.Context, printerName string, limit int) ([]PrintJob, error)

	// Save saves a job (insert or update)
	Save(ctx context.Context, job *PrintJob) error

	// CountByStatus counts jobs by status
	CountByStatus(ctx context.Context, status JobStatus) (int64, error)
}

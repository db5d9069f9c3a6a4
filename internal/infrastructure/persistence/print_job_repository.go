package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/labelprint/labelprint/internal/domain/printing"
	"github.com/labelprint/labelprint/internal/domain/shared"
	"github.com/labelprint/labelprint/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 1000
)

// GormPrintJobRepository implements PrintJobRepository using GORM
type GormPrintJobRepository struct {
	db *gorm.DB
}

// NewGormPrintJobRepository creates a new GormPrintJobRepository
func NewGormPrintJobRepository(db *gorm.DB) *GormPrintJobRepository {
	return &GormPrintJobRepository{db: db}
}

// FindByID finds a job by ID
func (r *GormPrintJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*printing.PrintJob, error) {
	var model models.PrintJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRecent finds the most recent jobs, newest first
func (r *GormPrintJobRepository) FindRecent(ctx context.Context, printerName string, limit int) ([]printing.PrintJob, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	query := r.db.WithContext(ctx).Model(&models.PrintJobModel{})
	if printerName != "" {
		query = query.Where("printer_name = ?", printerName)
	}

	var jobModels []models.PrintJobModel
	if err := query.Order("created_at DESC").Limit(limit).Find(&jobModels).Error; err != nil {
		return nil, err
	}

	jobs := make([]printing.PrintJob, len(jobModels))
	for i, model := range jobModels {
		jobs[i] = *model.ToDomain()
	}
	return jobs, nil
}

// Save creates or updates a job
func (r *GormPrintJobRepository) Save(ctx context.Context, job *printing.PrintJob) error {
	model := models.PrintJobModelFromDomain(job)
	return r.db.WithContext(ctx).Save(model).Error
}

// CountByStatus counts jobs by status
func (r *GormPrintJobRepository) CountByStatus(ctx context.Context, status printing.JobStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PrintJobModel{}).
		Where("status = ?", string(status)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormPrintJobRepository implements PrintJobRepository
var _ printing.PrintJobRepository = (*GormPrintJobRepository)(nil)

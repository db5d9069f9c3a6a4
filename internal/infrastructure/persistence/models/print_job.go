package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/labelprint/labelprint/internal/domain/printing"
	"github.com/labelprint/labelprint/internal/domain/shared"
)

// PrintJobModel is the GORM model for the print_jobs table
type PrintJobModel struct {
	ID           uuid.UUID  `gorm:"type:varchar(36);primaryKey"`
	PrinterName  string     `gorm:"column:printer_name;type:varchar(100);not null;index:idx_print_jobs_printer_created"`
	WidthPx      float64    `gorm:"column:width_px;not null"`
	HeightPx     float64    `gorm:"column:height_px;not null"`
	ImageBytes   int64      `gorm:"column:image_bytes;not null"`
	ArchiveKey   string     `gorm:"column:archive_key;type:varchar(255)"`
	Status       string     `gorm:"type:varchar(20);not null;default:'RECEIVED';index"`
	ErrorMessage string     `gorm:"column:error_message;type:text"`
	PrintedAt    *time.Time `gorm:"column:printed_at"`
	CreatedAt    time.Time  `gorm:"not null;index:idx_print_jobs_printer_created"`
	UpdatedAt    time.Time  `gorm:"not null"`
}

// TableName returns the table name for PrintJobModel
func (PrintJobModel) TableName() string {
	return "print_jobs"
}

// ToDomain converts PrintJobModel to domain PrintJob
func (m *PrintJobModel) ToDomain() *printing.PrintJob {
	return &printing.PrintJob{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		PrinterName:  m.PrinterName,
		WidthPx:      m.WidthPx,
		HeightPx:     m.HeightPx,
		ImageBytes:   m.ImageBytes,
		ArchiveKey:   m.ArchiveKey,
		Status:       printing.JobStatus(m.Status),
		ErrorMessage: m.ErrorMessage,
		PrintedAt:    m.PrintedAt,
	}
}

// PrintJobModelFromDomain creates a PrintJobModel from domain PrintJob
func PrintJobModelFromDomain(j *printing.PrintJob) *PrintJobModel {
	return &PrintJobModel{
		ID:           j.ID,
		PrinterName:  j.PrinterName,
		WidthPx:      j.WidthPx,
		HeightPx:     j.HeightPx,
		ImageBytes:   j.ImageBytes,
		ArchiveKey:   j.ArchiveKey,
		Status:       string(j.Status),
		ErrorMessage: j.ErrorMessage,
		PrintedAt:    j.PrintedAt,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}

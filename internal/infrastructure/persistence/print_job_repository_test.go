package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labelprint/labelprint/internal/domain/printing"
	"github.com/labelprint/labelprint/internal/domain/shared"
	"github.com/labelprint/labelprint/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

// setupPrintJobTestDB opens an in-memory SQLite database with the schema migrated
func setupPrintJobTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, nil, gormlogger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createTestJob(t *testing.T, printer string, createdAt time.Time) *printing.PrintJob {
	t.Helper()
	job, err := printing.NewPrintJob(printer, printing.PixelSize{Width: 321.26, Height: 240.94}, 2048)
	require.NoError(t, err)
	job.CreatedAt = createdAt
	job.UpdatedAt = createdAt
	return job
}

func TestGormPrintJobRepository_SaveAndFind(t *testing.T) {
	db := setupPrintJobTestDB(t)
	repo := NewGormPrintJobRepository(db.DB)
	ctx := context.Background()

	job := createTestJob(t, "P1", time.Now().UTC().Truncate(time.Second))
	require.NoError(t, repo.Save(ctx, job))

	found, err := repo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, found.ID)
	assert.Equal(t, "P1", found.PrinterName)
	assert.Equal(t, 321.26, found.WidthPx)
	assert.Equal(t, 240.94, found.HeightPx)
	assert.Equal(t, int64(2048), found.ImageBytes)
	assert.Equal(t, printing.JobStatusReceived, found.Status)
	assert.Nil(t, found.PrintedAt)

	// Update through the lifecycle
	job.SetArchiveKey("2026/10/" + job.ID.String() + ".png")
	require.NoError(t, job.StartPrinting())
	require.NoError(t, job.Complete())
	require.NoError(t, repo.Save(ctx, job))

	found, err = repo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, printing.JobStatusCompleted, found.Status)
	assert.True(t, found.HasArchive())
	assert.NotNil(t, found.PrintedAt)
}

func TestGormPrintJobRepository_FindByID_NotFound(t *testing.T) {
	db := setupPrintJobTestDB(t)
	repo := NewGormPrintJobRepository(db.DB)

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGormPrintJobRepository_FindRecent(t *testing.T) {
	db := setupPrintJobTestDB(t)
	repo := NewGormPrintJobRepository(db.DB)
	ctx := context.Background()

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i, printer := range []string{"P1", "P2", "P1", "P1"} {
		job := createTestJob(t, printer, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Save(ctx, job))
		ids = append(ids, job.ID)
	}

	all, err := repo.FindRecent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, ids[3], all[0].ID)
	assert.Equal(t, ids[0], all[3].ID)

	p1, err := repo.FindRecent(ctx, "P1", 2)
	require.NoError(t, err)
	require.Len(t, p1, 2)
	assert.Equal(t, ids[3], p1[0].ID)
	assert.Equal(t, ids[2], p1[1].ID)

	none, err := repo.FindRecent(ctx, "P9", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormPrintJobRepository_CountByStatus(t *testing.T) {
	db := setupPrintJobTestDB(t)
	repo := NewGormPrintJobRepository(db.DB)
	ctx := context.Background()

	failed := createTestJob(t, "P1", time.Now())
	require.NoError(t, failed.Fail("device not found"))
	require.NoError(t, repo.Save(ctx, failed))
	require.NoError(t, repo.Save(ctx, createTestJob(t, "P1", time.Now())))
	require.NoError(t, repo.Save(ctx, createTestJob(t, "P2", time.Now())))

	count, err := repo.CountByStatus(ctx, printing.JobStatusReceived)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.CountByStatus(ctx, printing.JobStatusFailed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "oracle"}, nil, gormlogger.Silent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

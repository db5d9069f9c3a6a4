package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and UTC timestamps shared by persisted records
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity returns a record with a fresh random ID, created now
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch moves UpdatedAt to now and returns it. UpdatedAt never goes
// backwards, even if the wall clock does.
func (e *BaseEntity) Touch() time.Time {
	now := time.Now().UTC()
	if now.Before(e.UpdatedAt) {
		now = e.UpdatedAt
	}
	e.UpdatedAt = now
	return now
}

// IsNew reports whether the record has not been modified since creation
func (e *BaseEntity) IsNew() bool {
	return e.UpdatedAt.Equal(e.CreatedAt)
}

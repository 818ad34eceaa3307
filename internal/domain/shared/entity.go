package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and audit timestamps shared by the pricing
// entities that the engine persists (price rules and promotions)
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity creates a base entity with a generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsNew reports whether the entity has not been assigned an ID yet
func (e *BaseEntity) IsNew() bool {
	return e.ID == uuid.Nil
}

// Touch prepares the entity for a write at now: it assigns a missing ID,
// sets CreatedAt once and always moves UpdatedAt
func (e *BaseEntity) Touch(now time.Time) {
	if e.IsNew() {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
}

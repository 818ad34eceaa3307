package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBaseEntity_Touch(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := created.Add(time.Hour)

	var e BaseEntity
	assert.True(t, e.IsNew())

	e.Touch(created)
	assert.False(t, e.IsNew())
	assert.Equal(t, created, e.CreatedAt)
	assert.Equal(t, created, e.UpdatedAt)

	id := e.ID
	e.Touch(later)
	assert.Equal(t, id, e.ID)
	assert.Equal(t, created, e.CreatedAt)
	assert.Equal(t, later, e.UpdatedAt)
}

func TestNewBaseEntity(t *testing.T) {
	e := NewBaseEntity()
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)
}

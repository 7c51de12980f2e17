package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invtrack/backend/internal/domain/shared"
)

func TestNewMovement(t *testing.T) {
	t.Run("creates valid movement", func(t *testing.T) {
		m, err := NewMovement("tenant-1", 42, "Widget", -3)

		require.NoError(t, err)
		assert.Equal(t, "tenant-1", m.TenantID)
		assert.Equal(t, int64(42), m.ProductID)
		assert.Equal(t, "Widget", m.ProductName)
		assert.Equal(t, int64(-3), m.Quantity)
		assert.True(t, m.Timestamp.IsZero())
	})

	t.Run("trims product name", func(t *testing.T) {
		m, err := NewMovement("tenant-1", 42, "  Widget ", 1)

		require.NoError(t, err)
		assert.Equal(t, "Widget", m.ProductName)
	})

	t.Run("rejects empty tenant", func(t *testing.T) {
		_, err := NewMovement("", 42, "Widget", 1)

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects non-positive product id", func(t *testing.T) {
		_, err := NewMovement("tenant-1", 0, "Widget", 1)

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects blank product name", func(t *testing.T) {
		_, err := NewMovement("tenant-1", 42, "   ", 1)

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestNewAnomaly(t *testing.T) {
	detectedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("id is a deterministic content digest", func(t *testing.T) {
		a := NewAnomaly("tenant-1", 42, detectedAt, "stock went negative")
		b := NewAnomaly("tenant-1", 42, detectedAt, "stock went negative")

		assert.Len(t, a.ID, 64)
		assert.Equal(t, a.ID, b.ID)
	})

	t.Run("id differs across tenant, product and time", func(t *testing.T) {
		base := NewAnomaly("tenant-1", 42, detectedAt, "d")

		assert.NotEqual(t, base.ID, NewAnomaly("tenant-2", 42, detectedAt, "d").ID)
		assert.NotEqual(t, base.ID, NewAnomaly("tenant-1", 43, detectedAt, "d").ID)
		assert.NotEqual(t, base.ID, NewAnomaly("tenant-1", 42, detectedAt.Add(time.Nanosecond), "d").ID)
	})
}

package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/invtrack/backend/internal/domain/inventory"
	"github.com/invtrack/backend/internal/domain/shared"
	"github.com/invtrack/backend/internal/domain/tenancy"
)

func TestGormTenantRepository(t *testing.T) {
	repo := NewGormTenantRepository()

	t.Run("creates tenant row", func(t *testing.T) {
		conn, mock, mockDB := newMockConn(t)
		defer mockDB.Close()

		tenant, err := tenancy.NewTenant("Acme", "ops@acme.test")
		require.NoError(t, err)
		tenant.CreatedAt = time.Now().UTC()

		mock.ExpectExec(`INSERT INTO "tenants"`).
			WithArgs(tenant.ID.String(), "Acme", "ops@acme.test", tenant.CreatedAt).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err = repo.Create(context.Background(), conn, tenant)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("finds existing tenant", func(t *testing.T) {
		conn, mock, mockDB := newMockConn(t)
		defer mockDB.Close()

		id := uuid.New()
		created := time.Now().UTC()
		rows := sqlmock.NewRows([]string{"id", "name", "email", "created_at"}).
			AddRow(id.String(), "Acme", "ops@acme.test", created)

		mock.ExpectQuery(`SELECT \* FROM "tenants" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id.String(), 1).
			WillReturnRows(rows)

		tenant, err := repo.FindByID(context.Background(), conn, id.String())

		require.NoError(t, err)
		assert.Equal(t, id, tenant.ID)
		assert.Equal(t, "Acme", tenant.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing tenant to not found", func(t *testing.T) {
		conn, mock, mockDB := newMockConn(t)
		defer mockDB.Close()

		id := uuid.New().String()
		mock.ExpectQuery(`SELECT \* FROM "tenants"`).
			WithArgs(id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByID(context.Background(), conn, id)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps database failures as persistence errors", func(t *testing.T) {
		conn, mock, mockDB := newMockConn(t)
		defer mockDB.Close()

		id := uuid.New().String()
		mock.ExpectQuery(`SELECT \* FROM "tenants"`).
			WithArgs(id, 1).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.FindByID(context.Background(), conn, id)

		assert.ErrorIs(t, err, shared.ErrPersistence)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLicenseRepository(t *testing.T) {
	repo := NewGormLicenseRepository()

	t.Run("loads license row", func(t *testing.T) {
		conn, mock, mockDB := newMockConn(t)
		defer mockDB.Close()

		expiry := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows([]string{"tenant_id", "expiration_date", "grace_period", "status"}).
			AddRow("tenant-1", expiry, 7, "active")

		mock.ExpectQuery(`SELECT \* FROM "licenses" WHERE tenant_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("tenant-1", 1).
			WillReturnRows(rows)

		license, err := repo.FindByTenant(context.Background(), conn, "tenant-1")

		require.NoError(t, err)
		require.NotNil(t, license)
		assert.Equal(t, expiry, license.ExpirationDate)
		assert.Equal(t, 7, license.GracePeriodDays)
		assert.Equal(t, "active", license.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing license is nil without error", func(t *testing.T) {
		conn, mock, mockDB := newMockConn(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "licenses"`).
			WithArgs("tenant-2", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		license, err := repo.FindByTenant(context.Background(), conn, "tenant-2")

		assert.NoError(t, err)
		assert.Nil(t, license)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTrackingRepository(t *testing.T) {
	repo := NewTrackingRepository()

	t.Run("appends movement into the tenant schema", func(t *testing.T) {
		conn, mock, mockDB := newMockConn(t)
		defer mockDB.Close()

		m, err := inventory.NewMovement("acme", 7, "Widget", -3)
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "tenant_acme"\.product_tracking \(tenant_id, product_id, product_name, quantity\)`).
			WithArgs("acme", int64(7), "Widget", int64(-3)).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err = repo.Append(context.Background(), conn, "tenant_acme", m)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("computes totals per product id and name pair", func(t *testing.T) {
		conn, mock, mockDB := newMockConn(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"product_id", "product_name", "total_quantity"}).
			AddRow(int64(1), "Widget", int64(12)).
			AddRow(int64(2), "Gadget", int64(0))

		mock.ExpectQuery(`SELECT product_id, product_name, SUM\(quantity\) AS total_quantity\s+FROM "tenant_acme"\.product_tracking\s+WHERE tenant_id = \$1\s+GROUP BY product_id, product_name\s+ORDER BY product_id, product_name`).
			WithArgs("acme").
			WillReturnRows(rows)

		lines, err := repo.Inventory(context.Background(), conn, "tenant_acme", "acme")

		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, int64(12), lines[0].TotalQuantity)
		// A zero balance still appears as a line.
		assert.Equal(t, int64(0), lines[1].TotalQuantity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("keeps renamed products as separate lines", func(t *testing.T) {
		conn, mock, mockDB := newMockConn(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"product_id", "product_name", "total_quantity"}).
			AddRow(int64(1), "Widget", int64(4)).
			AddRow(int64(1), "Widget Pro", int64(2))

		mock.ExpectQuery(`GROUP BY product_id, product_name`).
			WithArgs("acme").
			WillReturnRows(rows)

		lines, err := repo.Inventory(context.Background(), conn, "tenant_acme", "acme")

		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, "Widget", lines[0].ProductName)
		assert.Equal(t, int64(4), lines[0].TotalQuantity)
		assert.Equal(t, "Widget Pro", lines[1].ProductName)
		assert.Equal(t, int64(2), lines[1].TotalQuantity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("product total distinguishes zero balance from no rows", func(t *testing.T) {
		conn, mock, mockDB := newMockConn(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(quantity\), 0\) AS total, COUNT\(\*\) AS rows FROM "tenant_acme"\.product_tracking`).
			WithArgs("acme", int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"total", "rows"}).AddRow(int64(0), int64(0)))

		total, seen, err := repo.ProductTotal(context.Background(), conn, "tenant_acme", "acme", 9)

		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.False(t, seen)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps failures as persistence errors", func(t *testing.T) {
		conn, mock, mockDB := newMockConn(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT product_id`).
			WithArgs("acme").
			WillReturnError(errors.New("relation does not exist"))

		_, err := repo.Inventory(context.Background(), conn, "tenant_acme", "acme")

		assert.ErrorIs(t, err, shared.ErrPersistence)
	})
}

func TestAnomalyRepository(t *testing.T) {
	repo := NewAnomalyRepository()

	t.Run("inserts anomaly with conflict guard", func(t *testing.T) {
		conn, mock, mockDB := newMockConn(t)
		defer mockDB.Close()

		detected := time.Now().UTC()
		a := inventory.NewAnomaly("acme", 7, detected, "negative balance of -3 for product 7")

		mock.ExpectExec(`INSERT INTO "tenant_acme"\.anomalies .* ON CONFLICT \(id\) DO NOTHING`).
			WithArgs(a.ID, "acme", int64(7), detected, a.Description).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Insert(context.Background(), conn, "tenant_acme", a)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lists anomalies most recent first", func(t *testing.T) {
		conn, mock, mockDB := newMockConn(t)
		defer mockDB.Close()

		now := time.Now().UTC()
		rows := sqlmock.NewRows([]string{"id", "tenant_id", "product_id", "timestamp", "description"}).
			AddRow("digest-b", "acme", int64(2), now, "negative balance of -5 for product 2").
			AddRow("digest-a", "acme", int64(1), now.Add(-time.Hour), "negative balance of -1 for product 1")

		mock.ExpectQuery(`SELECT id, tenant_id, product_id, timestamp, description FROM "tenant_acme"\.anomalies WHERE tenant_id = \$1 ORDER BY timestamp DESC`).
			WithArgs("acme").
			WillReturnRows(rows)

		anomalies, err := repo.List(context.Background(), conn, "tenant_acme", "acme")

		require.NoError(t, err)
		require.Len(t, anomalies, 2)
		assert.Equal(t, "digest-b", anomalies[0].ID)
		assert.Equal(t, int64(1), anomalies[1].ProductID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appinventory "github.com/invtrack/backend/internal/application/inventory"
	apptenancy "github.com/invtrack/backend/internal/application/tenancy"
	dominventory "github.com/invtrack/backend/internal/domain/inventory"
	"github.com/invtrack/backend/internal/domain/shared"
	domtenancy "github.com/invtrack/backend/internal/domain/tenancy"
	"github.com/invtrack/backend/internal/interfaces/http/dto"
	"github.com/invtrack/backend/internal/interfaces/http/handler"
	"github.com/invtrack/backend/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubConnSource invokes fn with a nil connection; the stub repositories
// behind it never touch it.
type stubConnSource struct {
	err      error
	checkout int
}

func (s *stubConnSource) WithTenantConn(ctx context.Context, tenantID string, fn func(int, *gorm.DB) error) error {
	if s.err != nil {
		return s.err
	}
	s.checkout++
	return fn(0, nil)
}

func (s *stubConnSource) ShardCount() int { return 1 }

type stubTenantRepo struct {
	tenant *domtenancy.Tenant
	err    error
	saved  *domtenancy.Tenant
}

func (s *stubTenantRepo) Create(ctx context.Context, conn *gorm.DB, t *domtenancy.Tenant) error {
	s.saved = t
	return s.err
}

func (s *stubTenantRepo) FindByID(ctx context.Context, conn *gorm.DB, tenantID string) (*domtenancy.Tenant, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tenant, nil
}

type stubLicenseRepo struct {
	license *domtenancy.License
	err     error
}

func (s *stubLicenseRepo) FindByTenant(ctx context.Context, conn *gorm.DB, tenantID string) (*domtenancy.License, error) {
	return s.license, s.err
}

type stubEvalCache struct{}

func (stubEvalCache) Get(context.Context, string) (*domtenancy.Evaluation, error) { return nil, nil }
func (stubEvalCache) Set(context.Context, string, *domtenancy.Evaluation, time.Duration) error {
	return nil
}
func (stubEvalCache) Delete(context.Context, string) error { return nil }
func (stubEvalCache) Close() error                         { return nil }

type stubProvisioner struct{}

func (stubProvisioner) EnsureNamespace(ctx context.Context, conn *gorm.DB, tenantID string) (string, error) {
	return "tenant_" + tenantID, nil
}

type stubMovements struct {
	lines []dominventory.Line
	total int64
	err   error
}

func (s *stubMovements) Append(ctx context.Context, conn *gorm.DB, schema string, m *dominventory.Movement) error {
	return s.err
}

func (s *stubMovements) Inventory(ctx context.Context, conn *gorm.DB, schema, tenantID string) ([]dominventory.Line, error) {
	return s.lines, s.err
}

func (s *stubMovements) ProductTotal(ctx context.Context, conn *gorm.DB, schema, tenantID string, productID int64) (int64, bool, error) {
	return s.total, true, s.err
}

type stubAnomalies struct {
	anomalies []dominventory.Anomaly
	err       error
}

func (s *stubAnomalies) Insert(ctx context.Context, conn *gorm.DB, schema string, a *dominventory.Anomaly) error {
	return s.err
}

func (s *stubAnomalies) List(ctx context.Context, conn *gorm.DB, schema, tenantID string) ([]dominventory.Anomaly, error) {
	return s.anomalies, s.err
}

type testEnv struct {
	engine   *gin.Engine
	conns    *stubConnSource
	tenants  *stubTenantRepo
	licenses *stubLicenseRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		conns:    &stubConnSource{},
		tenants:  &stubTenantRepo{},
		licenses: &stubLicenseRepo{},
	}

	tenantSvc := apptenancy.NewTenantService(
		env.conns, env.tenants, env.licenses, stubEvalCache{}, time.Second, zap.NewNop())
	trackingSvc := appinventory.NewTrackingService(
		env.conns, tenantSvc, stubProvisioner{}, &stubMovements{total: -5}, &stubAnomalies{}, zap.NewNop())

	env.engine = gin.New()
	r := router.NewRouter(env.engine)
	r.Register(router.TenantRoutes(handler.NewTenantHandler(tenantSvc), handler.NewInventoryHandler(trackingSvc)))
	r.Setup()
	return env
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func activeLicense(tenantID string) *domtenancy.License {
	return &domtenancy.License{
		TenantID:       tenantID,
		ExpirationDate: time.Now().UTC().AddDate(0, 0, 30),
		Status:         "active",
	}
}

func TestRegisterTenantEndpoint(t *testing.T) {
	t.Run("returns 201 with minted id", func(t *testing.T) {
		env := newTestEnv(t)

		w := doJSON(t, env.engine, http.MethodPost, "/api/v1/tenants",
			gin.H{"name": "Acme", "email": "ops@acme.test"})

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.NotEmpty(t, data["id"])
	})

	t.Run("returns 400 for malformed body", func(t *testing.T) {
		env := newTestEnv(t)

		w := doJSON(t, env.engine, http.MethodPost, "/api/v1/tenants", gin.H{"name": "Acme"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetTenantEndpoint(t *testing.T) {
	t.Run("returns 404 for unknown tenant", func(t *testing.T) {
		env := newTestEnv(t)
		env.tenants.err = shared.ErrNotFound

		w := doJSON(t, env.engine, http.MethodGet, "/api/v1/tenants/nope", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("returns the tenant", func(t *testing.T) {
		env := newTestEnv(t)
		stored, err := domtenancy.NewTenant("Acme", "ops@acme.test")
		require.NoError(t, err)
		env.tenants.tenant = stored

		w := doJSON(t, env.engine, http.MethodGet, "/api/v1/tenants/"+stored.ID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestLicenseGateOverHTTP(t *testing.T) {
	t.Run("expired license yields 403 and no data access", func(t *testing.T) {
		env := newTestEnv(t)
		env.licenses.license = &domtenancy.License{
			TenantID:       "acme",
			ExpirationDate: time.Now().UTC().AddDate(0, 0, -30),
			Status:         "active",
		}

		w := doJSON(t, env.engine, http.MethodPost, "/api/v1/tenants/acme/movements",
			gin.H{"product_id": 7, "product_name": "Widget", "quantity": 1})

		assert.Equal(t, http.StatusForbidden, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeAccessDenied, resp.Error.Code)
		// One checkout for the license lookup, none for the blocked write.
		assert.Equal(t, 1, env.conns.checkout)
	})

	t.Run("missing license yields 403", func(t *testing.T) {
		env := newTestEnv(t)

		w := doJSON(t, env.engine, http.MethodGet, "/api/v1/tenants/acme/inventory", nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("active license lets operations through", func(t *testing.T) {
		env := newTestEnv(t)
		env.licenses.license = activeLicense("acme")

		w := doJSON(t, env.engine, http.MethodPost, "/api/v1/tenants/acme/movements",
			gin.H{"product_id": 7, "product_name": "Widget", "quantity": 1})

		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestLicenseCheckEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.licenses.license = &domtenancy.License{
		TenantID:        "acme",
		ExpirationDate:  time.Now().UTC().AddDate(0, 0, -1),
		GracePeriodDays: 5,
		Status:          "active",
	}

	w := doJSON(t, env.engine, http.MethodGet, "/api/v1/tenants/acme/license", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, "grace", data["state"])
	assert.Equal(t, float64(4), data["remaining_grace_days"])
}

func TestDetectAnomalyEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.licenses.license = activeLicense("acme")

	w := doJSON(t, env.engine, http.MethodPost, "/api/v1/tenants/acme/anomalies/detect",
		gin.H{"product_id": 7})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["recorded"])
	assert.Equal(t, float64(-5), data["total"])
	assert.Equal(t, true, data["has_movements"])
}

func TestErrorMapping(t *testing.T) {
	t.Run("pool exhaustion maps to 503", func(t *testing.T) {
		env := newTestEnv(t)
		env.conns.err = shared.ErrPoolExhausted

		w := doJSON(t, env.engine, http.MethodGet, "/api/v1/tenants/acme/inventory", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodePoolExhausted, resp.Error.Code)
	})

	t.Run("unknown errors stay generic", func(t *testing.T) {
		h := &handler.BaseHandler{}
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		h.HandleError(c, assert.AnError)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, assert.AnError.Error())
	})
}

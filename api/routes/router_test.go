package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neumaticos/tirestore/api/controllers"
	"github.com/neumaticos/tirestore/internal/adminstats"
	"github.com/neumaticos/tirestore/internal/auth"
	"github.com/neumaticos/tirestore/internal/cart"
	"github.com/neumaticos/tirestore/internal/catalog"
	"github.com/neumaticos/tirestore/internal/checkout"
	"github.com/neumaticos/tirestore/internal/orders"
	"github.com/neumaticos/tirestore/internal/users"
	"github.com/neumaticos/tirestore/pkg/auth/session"
	"github.com/neumaticos/tirestore/pkg/config"
	"github.com/neumaticos/tirestore/pkg/db"
	"github.com/neumaticos/tirestore/pkg/db/dbtest"
	"github.com/neumaticos/tirestore/pkg/enums"
	"github.com/neumaticos/tirestore/pkg/logger"
	"github.com/neumaticos/tirestore/pkg/metrics"
	"github.com/neumaticos/tirestore/pkg/security"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]string
}

func (m *memSessions) Generate(_ context.Context, accessID string, _ uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := uuid.NewString()
	m.sessions[accessID] = token
	return token, nil
}

func (m *memSessions) Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, provided string) (string, string, error) {
	m.mu.Lock()
	token, ok := m.sessions[oldAccessID]
	if !ok || token != provided {
		m.mu.Unlock()
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(m.sessions, oldAccessID)
	m.mu.Unlock()

	newID := uuid.NewString()
	next, err := m.Generate(ctx, newID, userID)
	return newID, next, err
}

func (m *memSessions) Revoke(_ context.Context, accessID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, accessID)
	return nil
}

func (m *memSessions) HasSession(_ context.Context, accessID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[accessID]
	return ok, nil
}

type memSnapshots struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memSnapshots) Load(_ context.Context, owner string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[owner]
	if !ok {
		return nil, cart.ErrSnapshotNotFound
	}
	return raw, nil
}

func (m *memSnapshots) Save(_ context.Context, owner string, raw []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[owner] = raw
	return nil
}

var testPasswords = config.PasswordConfig{
	ArgonMemoryKB:    8 * 1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type harness struct {
	handler http.Handler
	users   *users.Repository
}

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Env: "dev"},
		JWT:      config.JWTConfig{Secret: "secret", Issuer: "tirestore", ExpirationMinutes: 30},
		Password: testPasswords,
		Metrics:  config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newHarness(t *testing.T, pingers map[string]controllers.Pinger) *harness {
	t.Helper()

	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	reg := prometheus.NewRegistry()
	cartMetrics := metrics.NewCartMetrics(reg)

	conn := dbtest.Open(t)
	userRepo := users.NewRepository(conn)
	sessions := &memSessions{sessions: map[string]string{}}

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	require.NoError(t, err)
	userSvc, err := users.NewService(userRepo)
	require.NoError(t, err)

	catalogRepo := catalog.NewRepository(conn)
	catalogSvc, err := catalog.NewService(catalogRepo)
	require.NoError(t, err)

	registry, err := cart.NewRegistry(&memSnapshots{data: map[string][]byte{}}, 0, logg, cartMetrics)
	require.NoError(t, err)
	cartSvc, err := cart.NewService(registry, catalogSvc)
	require.NoError(t, err)

	orderSvc, err := orders.NewService(orders.NewRepository(conn), db.NewFromConn(conn), logg)
	require.NoError(t, err)
	checkoutSvc, err := checkout.NewService(cartSvc, orderSvc, logg, cartMetrics)
	require.NoError(t, err)
	statsSvc, err := adminstats.NewService(adminstats.NewRepository(conn), catalogRepo)
	require.NoError(t, err)

	handler := NewRouter(cfg, logg, Infra{
		Sessions:    sessions,
		Pingers:     pingers,
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
	}, Services{
		Auth:       authSvc,
		Users:      userSvc,
		Catalog:    catalogSvc,
		Cart:       cartSvc,
		Checkout:   checkoutSvc,
		Orders:     orderSvc,
		AdminStats: statsSvc,
	})
	return &harness{handler: handler, users: userRepo}
}

func (h *harness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	h.handler.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func (h *harness) seedAdmin(t *testing.T, email, password string) {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswords)
	require.NoError(t, err)
	_, err = h.users.Create(context.Background(), users.CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		Name:         "Admin",
		Role:         enums.UserRoleAdmin,
	})
	require.NoError(t, err)
}

func (h *harness) login(t *testing.T, email, password string) auth.TokenResponse {
	t.Helper()
	resp := h.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var tokens auth.TokenResponse
	decodeData(t, resp, &tokens)
	return tokens
}

func TestHealthRoutes(t *testing.T) {
	h := newHarness(t, map[string]controllers.Pinger{"db": stubPinger{}})

	resp := h.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "dev", resp.Header().Get("X-Tirestore-Env"))

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/health/ready", "", nil).Code)

	down := newHarness(t, map[string]controllers.Pinger{"redis": stubPinger{err: errors.New("dial tcp: refused")}})
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/health/ready", "", nil).Code)
}

func TestMetricsRouteExposesRequests(t *testing.T) {
	h := newHarness(t, nil)
	h.do(t, http.MethodGet, "/health/live", "", nil)

	resp := h.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "http_requests_total")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t, nil)
	for _, path := range []string{"/api/v1/cart", "/api/v1/orders", "/api/v1/me", "/api/v1/admin/stats"} {
		assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, path, "", nil).Code, path)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var tokens auth.TokenResponse
	decodeData(t, resp, &tokens)

	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/api/v1/admin/stats", tokens.AccessToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/api/v1/admin/orders", tokens.AccessToken, nil).Code)
}

func TestShopperPurchaseFlow(t *testing.T) {
	h := newHarness(t, nil)
	h.seedAdmin(t, "admin@example.com", "admin-pass")
	admin := h.login(t, "admin@example.com", "admin-pass")

	resp := h.do(t, http.MethodPost, "/api/v1/admin/products", admin.AccessToken, map[string]any{
		"name":     "Bridgestone Turanza",
		"price":    "100",
		"stock":    8,
		"category": "automovil",
		"brand":    "Bridgestone",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var product struct {
		ID uuid.UUID `json:"id"`
	}
	decodeData(t, resp, &product)

	resp = h.do(t, http.MethodGet, "/api/v1/products?category=automovil", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var listed []json.RawMessage
	decodeData(t, resp, &listed)
	assert.Len(t, listed, 1)

	resp = h.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ana Rojas", "email": "ana@example.com", "password": "secret1", "phone": "+56911111111",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var shopper auth.TokenResponse
	decodeData(t, resp, &shopper)

	resp = h.do(t, http.MethodPost, "/api/v1/cart/items", shopper.AccessToken, map[string]any{"product_id": product.ID, "quantity": 3})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	resp = h.do(t, http.MethodPatch, "/api/v1/cart/items/"+product.ID.String(), shopper.AccessToken, map[string]any{"quantity": 2})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var cartBody struct {
		ItemCount int             `json:"item_count"`
		Total     decimal.Decimal `json:"total"`
	}
	decodeData(t, resp, &cartBody)
	assert.Equal(t, 2, cartBody.ItemCount)
	assert.True(t, cartBody.Total.Equal(decimal.NewFromInt(200)))

	resp = h.do(t, http.MethodPost, "/api/v1/checkout", shopper.AccessToken, map[string]any{
		"shipping_address": map[string]string{
			"phone":   "+56911111111",
			"address": "Av. Providencia 1234",
			"city":    "Santiago",
		},
		"payment_method": "webpay",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var result checkout.Result
	decodeData(t, resp, &result)
	assert.True(t, strings.HasPrefix(result.TransactionID, "TBK_"))
	assert.True(t, result.Total.Equal(decimal.NewFromInt(200)))

	resp = h.do(t, http.MethodGet, "/api/v1/cart", shopper.AccessToken, nil)
	decodeData(t, resp, &cartBody)
	assert.Equal(t, 0, cartBody.ItemCount)

	resp = h.do(t, http.MethodGet, "/api/v1/orders", shopper.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var mine orders.OrderList
	decodeData(t, resp, &mine)
	require.Len(t, mine.Orders, 1)
	assert.Equal(t, result.OrderID, mine.Orders[0].ID)
	assert.Equal(t, "Ana Rojas", mine.Orders[0].ShippingAddress.Name)

	resp = h.do(t, http.MethodPatch, "/api/v1/admin/orders/"+result.OrderID.String()+"/status", admin.AccessToken, map[string]string{"status": "enviado"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = h.do(t, http.MethodGet, "/api/v1/admin/stats", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var stats adminstats.Stats
	decodeData(t, resp, &stats)
	assert.EqualValues(t, 1, stats.TotalOrders)
	assert.True(t, stats.TotalRevenue.Equal(decimal.NewFromInt(200)))
	assert.EqualValues(t, 1, stats.LowStockProducts)
}

func TestLogoutRevokesSession(t *testing.T) {
	h := newHarness(t, nil)
	h.seedAdmin(t, "admin@example.com", "admin-pass")
	tokens := h.login(t, "admin@example.com", "admin-pass")

	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/v1/me", tokens.AccessToken, nil).Code)
	require.Equal(t, http.StatusNoContent, h.do(t, http.MethodPost, "/api/v1/auth/logout", tokens.AccessToken, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/api/v1/me", tokens.AccessToken, nil).Code)
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/electroshop/internal/cart"
	"github.com/utafrali/electroshop/internal/domain"
	"github.com/utafrali/electroshop/internal/pricing"
	"github.com/utafrali/electroshop/internal/repository"
	redisrepo "github.com/utafrali/electroshop/internal/repository/redis"
	"github.com/utafrali/electroshop/internal/service"
	apperrors "github.com/utafrali/electroshop/pkg/errors"
	"github.com/utafrali/electroshop/pkg/health"
	"github.com/utafrali/electroshop/pkg/logger"
	"github.com/utafrali/electroshop/pkg/middleware"
)

// =============================================================================
// Mock ProductRepository
// =============================================================================

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]domain.ProductSummary, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductSummary), args.Error(1)
}

func (m *mockProductRepo) Count(ctx context.Context, filter repository.ProductFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *mockProductRepo) Create(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) Update(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProductRepo) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// =============================================================================
// Helpers
// =============================================================================

type testServer struct {
	handler  http.Handler
	repo     *mockProductRepo
	redis    *miniredis.Miniredis
	sessions *cart.Sessions
}

func setup(t *testing.T) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := logger.Discard()
	repo := new(mockProductRepo)
	sessions := cart.NewSessions(cart.Deps{
		Mirror:     redisrepo.NewCartMirror(client),
		Normalizer: pricing.NewNormalizer(l),
		Logger:     l,
	}, time.Minute)

	h := NewRouter(RouterConfig{
		ServiceName: "storefront-test",
		Catalog:     service.NewCatalogService(repo, l),
		Sessions:    sessions,
		Health:      health.NewHandler(time.Second),
		Logger:      l,
		CORS:        middleware.DefaultCORSConfig(),
	})

	return &testServer{handler: h, repo: repo, redis: mr, sessions: sessions}
}

func (s *testServer) do(t *testing.T, method, path, session string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.Header.Set(middleware.SessionIDHeader, session)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type cartEnvelope struct {
	Data  domain.CartSnapshot `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cartEnvelope {
	t.Helper()
	var env cartEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// =============================================================================
// Listing
// =============================================================================

func TestListProducts_OK(t *testing.T) {
	s := setup(t)

	items := make([]domain.ProductSummary, 4)
	for i := range items {
		items[i] = domain.ProductSummary{ID: fmt.Sprintf("p%d", i), Name: "TV"}
	}
	filter := repository.ProductFilter{Search: "tv", Category: "screens", Limit: 4, Offset: 0}
	s.repo.On("List", mock.Anything, filter).Return(items, nil)
	s.repo.On("Count", mock.Anything, filter).Return(10, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/products?search=tv&category=screens&page=1&limit=4", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Products, 4)
	assert.Equal(t, 10, body.Total)
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 4, body.Limit)
	assert.Equal(t, 3, body.TotalPages)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Contains(t, raw, "totalPages")
	assert.NotContains(t, raw, "data")
}

func TestListProducts_BadParamsFallBack(t *testing.T) {
	s := setup(t)

	filter := repository.ProductFilter{Limit: 12}
	s.repo.On("List", mock.Anything, filter).Return([]domain.ProductSummary{}, nil)
	s.repo.On("Count", mock.Anything, filter).Return(0, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/products?page=abc&limit=xyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"products":[],"total":0,"page":1,"limit":12,"totalPages":0}`, rec.Body.String())
}

func TestListProducts_HugePageStaysNonNegative(t *testing.T) {
	s := setup(t)

	s.repo.On("List", mock.Anything, mock.MatchedBy(func(f repository.ProductFilter) bool {
		return f.Limit == 100 && f.Offset >= 0
	})).Return([]domain.ProductSummary{}, nil)
	s.repo.On("Count", mock.Anything, mock.Anything).Return(7, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/products?page=100000000000000000&limit=100", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Products)
	assert.Equal(t, 7, body.Total)
	assert.GreaterOrEqual(t, body.Page, 1)
}

func TestListProducts_BackendError(t *testing.T) {
	s := setup(t)
	s.repo.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	s.repo.On("Count", mock.Anything, mock.Anything).Return(0, nil).Maybe()

	rec := s.do(t, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"failed to fetch products"}`, rec.Body.String())
}

// =============================================================================
// Product CRUD
// =============================================================================

func TestCreateProduct(t *testing.T) {
	s := setup(t)
	s.repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	rec := s.do(t, http.MethodPost, "/api/v1/products", "", `{"name":"Soundbar","price":"249.90","category":"audio","stock":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var env struct {
		Data domain.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Soundbar", env.Data.Name)
	assert.True(t, decimal.RequireFromString("249.9").Equal(env.Data.Price))
	_, err := uuid.Parse(env.Data.ID)
	assert.NoError(t, err)
}

func TestCreateProduct_ValidationError(t *testing.T) {
	s := setup(t)

	rec := s.do(t, http.MethodPost, "/api/v1/products", "", `{"name":"Soundbar","price":"10"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
	s.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetProduct(t *testing.T) {
	s := setup(t)
	id := uuid.NewString()
	s.repo.On("GetByID", mock.Anything, id).Return(&domain.Product{ID: id, Name: "Phone"}, nil)
	missing := uuid.NewString()
	s.repo.On("GetByID", mock.Anything, missing).Return(nil, apperrors.NotFound("product", missing))

	rec := s.do(t, http.MethodGet, "/api/v1/products/"+id, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/products/"+missing, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")

	rec = s.do(t, http.MethodGet, "/api/v1/products/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteProduct(t *testing.T) {
	s := setup(t)
	id := uuid.NewString()
	s.repo.On("Delete", mock.Anything, id).Return(nil)

	rec := s.do(t, http.MethodDelete, "/api/v1/products/"+id, "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListCategories(t *testing.T) {
	s := setup(t)
	s.repo.On("Categories", mock.Anything).Return([]string{"audio", "tv"}, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":["audio","tv"]}`, rec.Body.String())
}

// =============================================================================
// Cart
// =============================================================================

func TestCart_RequiresSession(t *testing.T) {
	s := setup(t)

	rec := s.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestCart_Flow(t *testing.T) {
	s := setup(t)
	const sid = "sess-flow"

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", sid, `{"id":"p1","price":"$19.99","name":"Widget"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeCart(t, rec)
	require.Len(t, env.Data.Items, 1)
	assert.Equal(t, 19.99, env.Data.TotalPrice)

	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", sid, `{"id":"p1","price":"$19.99","name":"Widget"}`)
	env = decodeCart(t, rec)
	assert.Equal(t, 2, env.Data.ItemCount)
	assert.Equal(t, 39.98, env.Data.TotalPrice)

	rec = s.do(t, http.MethodPost, "/api/v1/cart/items/p1/decrease", sid, nil)
	env = decodeCart(t, rec)
	assert.Equal(t, 1, env.Data.ItemCount)
	assert.Equal(t, 19.99, env.Data.TotalPrice)

	rec = s.do(t, http.MethodPost, "/api/v1/cart/items/p1/increase", sid, nil)
	env = decodeCart(t, rec)
	assert.Equal(t, 2, env.Data.ItemCount)

	stored, err := s.redis.Get(redisrepo.Key(sid))
	require.NoError(t, err)
	assert.Contains(t, stored, `"qty":2`)

	rec = s.do(t, http.MethodDelete, "/api/v1/cart/items/p1", sid, nil)
	env = decodeCart(t, rec)
	assert.Empty(t, env.Data.Items)
	assert.Equal(t, 0.0, env.Data.TotalPrice)
}

func TestCart_NumericPrices(t *testing.T) {
	s := setup(t)
	const sid = "sess-numeric"

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", sid, `{"id":"srv","name":"Server","price":1e3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeCart(t, rec)
	require.Len(t, env.Data.Items, 1)
	assert.Equal(t, 1000.0, env.Data.Items[0].Price)
	assert.Equal(t, 1000.0, env.Data.TotalPrice)

	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", sid, `{"id":"gpu","name":"GPU","price":1499.99,"offerPrice":1.25E3}`)
	env = decodeCart(t, rec)
	assert.Equal(t, 2, env.Data.ItemCount)
	assert.Equal(t, 2250.0, env.Data.TotalPrice)

	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", sid, `{"id":"neg","name":"Refund","price":-5}`)
	env = decodeCart(t, rec)
	assert.Equal(t, 2250.0, env.Data.TotalPrice)

	stored, err := s.redis.Get(redisrepo.Key(sid))
	require.NoError(t, err)
	assert.Contains(t, stored, `"price":1000`)
	assert.NotContains(t, stored, `"price":-5`)
}

func TestCart_SessionsAreIsolated(t *testing.T) {
	s := setup(t)

	s.do(t, http.MethodPost, "/api/v1/cart/items", "alice", `{"id":"p1","price":5}`)

	rec := s.do(t, http.MethodGet, "/api/v1/cart", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeCart(t, rec).Data.Items)
}

func TestCart_InvalidBody(t *testing.T) {
	s := setup(t)

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", "sess", `[1,2,3]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", "sess", `null`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCart_ClearAndEndSession(t *testing.T) {
	s := setup(t)
	const sid = "sess-clear"

	s.do(t, http.MethodPost, "/api/v1/cart/items", sid, `{"id":"p1","price":5}`)
	s.do(t, http.MethodPost, "/api/v1/cart/items", sid, `{"id":"p2","price":7}`)

	rec := s.do(t, http.MethodPost, "/api/v1/cart/session/end", sid, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, s.sessions.Len())

	rec = s.do(t, http.MethodGet, "/api/v1/cart", sid, nil)
	assert.Equal(t, 2, decodeCart(t, rec).Data.ItemCount)

	rec = s.do(t, http.MethodDelete, "/api/v1/cart", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decodeCart(t, rec).Data.ItemCount)
	assert.False(t, s.redis.Exists(redisrepo.Key(sid)))
}

func TestCart_MirrorUnavailable(t *testing.T) {
	s := setup(t)
	s.redis.Close()

	rec := s.do(t, http.MethodGet, "/api/v1/cart", "sess-down", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "SERVICE_UNAVAILABLE")
}

func TestContentTypeJSON(t *testing.T) {
	s := setup(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString("id=p1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(middleware.SessionIDHeader, "sess")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := setup(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/ready", "", nil).Code)

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

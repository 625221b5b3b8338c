package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilift/ilift-backend/api/middleware"
	"github.com/ilift/ilift-backend/internal/catalog"
	"github.com/ilift/ilift-backend/internal/enquiry"
	"github.com/ilift/ilift-backend/pkg/config"
	"github.com/ilift/ilift-backend/pkg/logger"
	"github.com/ilift/ilift-backend/pkg/metrics"
	pkgredis "github.com/ilift/ilift-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

// memoryRedis satisfies RedisStore with process-local maps.
type memoryRedis struct {
	mu     sync.Mutex
	values map[string]string
	counts map[string]int64
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{values: map[string]string{}, counts: map[string]int64{}}
}

func (m *memoryRedis) Ping(context.Context) error { return nil }

func (m *memoryRedis) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[scope]++
	return m.counts[scope] <= limit, m.counts[scope], nil
}

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return "", pkgredis.ErrNil
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

type stubCatalogService struct {
	catalog.Service
	lastQuery catalog.ListInput
}

func (s *stubCatalogService) ListProducts(_ context.Context, input catalog.ListInput) (*catalog.ProductListResult, error) {
	s.lastQuery = input
	return &catalog.ProductListResult{Products: []catalog.ProductSummary{}}, nil
}

type countingSubmitter struct {
	mu    sync.Mutex
	calls int
}

func (c *countingSubmitter) Submit(context.Context, enquiry.Submission) (enquiry.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return enquiry.Receipt{LeadID: "lead", Reference: fmt.Sprintf("RFRO-%d", 1000+c.calls)}, nil
}

func (c *countingSubmitter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0", CORSOrigins: []string{"https://ilift.example"}},
		Visitor: config.VisitorConfig{
			Secret:     "secret",
			Issuer:     "ilift-test",
			CookieName: "ilift_visitor",
			TTL:        time.Hour,
		},
		SubmitRateLimit: config.SubmitRateLimitConfig{Window: time.Minute, IPLimit: 100, EmailLimit: 2},
	}
}

type testEnv struct {
	router    http.Handler
	submitter *countingSubmitter
	catalog   *stubCatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	registry := prometheus.NewRegistry()
	sub := &countingSubmitter{}
	svc, err := enquiry.NewService(enquiry.ServiceParams{
		RegistrySize:  16,
		SubmitTimeout: time.Second,
		Submitter:     sub,
		Logger:        logg,
		Metrics:       metrics.NewEnquiryMetrics(registry),
	})
	require.NoError(t, err)

	cat := &stubCatalogService{}
	return &testEnv{
		router:    NewRouter(testConfig(), logg, stubPinger{}, newMemoryRedis(), registry, cat, svc),
		submitter: sub,
		catalog:   cat,
	}
}

func (e *testEnv) do(t *testing.T, method, target, body string, cookie *http.Cookie, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func visitorCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "ilift_visitor" {
			return c
		}
	}
	t.Fatalf("visitor cookie not issued")
	return nil
}

func TestHealthRoutes(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", "", nil, nil).Code)
	ready := env.do(t, http.MethodGet, "/health/ready", "", nil, nil)
	assert.Equal(t, http.StatusOK, ready.Code)
	assert.Contains(t, ready.Body.String(), `"redis":"up"`)
}

func TestMetricsRouteExposesEnquiryMetrics(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/enquiry", "", nil, nil)
	cookie := visitorCookie(t, rec)
	env.do(t, http.MethodPost, "/api/v1/enquiry/items", `{"id":"A","name":"Forklift X"}`, cookie, nil)

	metricsRec := env.do(t, http.MethodGet, "/metrics", "", nil, nil)
	require.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), "enquiry_cart")
}

func TestCatalogRoutesArePublic(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/products?q=forklift&category=all", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "forklift", env.catalog.lastQuery.Query)
	assert.Equal(t, "all", env.catalog.lastQuery.Category)
	assert.Empty(t, rec.Result().Cookies())
}

func TestEnquiryStateFollowsVisitorCookie(t *testing.T) {
	env := newTestEnv(t)

	first := env.do(t, http.MethodPost, "/api/v1/enquiry/items", `{"_id":"A","name":"Forklift X","category":"forklift"}`, nil, nil)
	require.Equal(t, http.StatusOK, first.Code)
	cookie := visitorCookie(t, first)

	same := env.do(t, http.MethodGet, "/api/v1/enquiry/items/A", "", cookie, nil)
	require.Equal(t, http.StatusOK, same.Code)
	assert.Contains(t, same.Body.String(), `"inList":true`)

	// a different browser sees its own empty list
	other := env.do(t, http.MethodGet, "/api/v1/enquiry/items/A", "", nil, nil)
	require.Equal(t, http.StatusOK, other.Code)
	assert.Contains(t, other.Body.String(), `"inList":false`)
}

const submitBody = `{"contact":{"name":"Dana Reyes","company":"Harbor Logistics","email":"dana@harbor.example","phone":"+1 555 0100"}}`

func TestSubmitReplaysWithIdempotencyKey(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/v1/enquiry/items", `{"id":"A"}`, nil, nil)
	cookie := visitorCookie(t, rec)

	headers := map[string]string{middleware.IdempotencyKeyHeader: "quote-1"}
	first := env.do(t, http.MethodPost, "/api/v1/enquiry/checkout/submit", submitBody, cookie, headers)
	require.Equal(t, http.StatusCreated, first.Code)

	replay := env.do(t, http.MethodPost, "/api/v1/enquiry/checkout/submit", submitBody, cookie, headers)
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, first.Body.String(), replay.Body.String())
	assert.Equal(t, 1, env.submitter.count())

	// without a key the flow itself rejects a second send
	again := env.do(t, http.MethodPost, "/api/v1/enquiry/checkout/submit", submitBody, cookie, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, again.Code)
}

func TestSubmitRateLimitedPerEmail(t *testing.T) {
	env := newTestEnv(t)

	codes := []int{}
	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodPost, "/api/v1/enquiry/items", `{"id":"A"}`, nil, nil)
		cookie := visitorCookie(t, rec)
		resp := env.do(t, http.MethodPost, "/api/v1/enquiry/checkout/submit", submitBody, cookie, nil)
		codes = append(codes, resp.Code)
	}

	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 2, env.submitter.count())
}

func TestCORSPreflightAllowsVisitorHeaders(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodOptions, "/api/v1/enquiry/items", "", nil, map[string]string{
		"Origin":                         "https://ilift.example",
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": "Content-Type, X-Visitor-Token",
	})

	assert.Equal(t, "https://ilift.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestUnknownRouteIs404(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/orders", "", nil, nil).Code)
}

package http

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/ledgerimport/internal/adapter/http/handler"
	apimiddleware "github.com/iho/ledgerimport/internal/adapter/http/middleware"
	"github.com/iho/ledgerimport/internal/domain"
	"github.com/iho/ledgerimport/internal/infrastructure/auth"
	"github.com/iho/ledgerimport/internal/usecase"
)

const routerProjectID = "3f2b8c1e-5a4d-4e8f-9b7a-1c2d3e4f5a6b"

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1, nil)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	path := "/api/v1/projects/" + routerProjectID + "/imports"

	req1 := httptest.NewRequest(http.MethodGet, path, nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, path, nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}

	// health checks are never throttled
	req3 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req3.RemoteAddr = "1.2.3.4:1234"
	rec3 := httptest.NewRecorder()
	router.ServeHTTP(rec3, req3)
	if rec3.Code != http.StatusOK {
		t.Fatalf("expected /health to bypass the limiter, got %d", rec3.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	imports := &stubImportService{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
		cfg.ImportHandler = handler.NewImportHandler(handler.ImportHandlerConfig{Imports: imports, Logger: zerolog.Nop()})
	}))

	req := newUpload(t, routerProjectID)
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
	if !store.updateCalled {
		t.Fatalf("expected successful upload to be stored, status %d: %s", rec.Code, rec.Body.String())
	}
	if imports.calls != 1 {
		t.Fatalf("expected one import, got %d", imports.calls)
	}
}

func TestNewRouter_UploadRequiresOperator(t *testing.T) {
	verifier := &stubVerifier{claims: map[string]*auth.Claims{
		"viewer":   {UserID: "u-viewer", Role: domain.RoleViewer},
		"operator": {UserID: "u-operator", Role: domain.RoleOperator},
	}}
	imports := &stubImportService{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.TokenVerifier = verifier
		cfg.ImportHandler = handler.NewImportHandler(handler.ImportHandlerConfig{Imports: imports, Logger: zerolog.Nop()})
	}))

	tests := []struct {
		token      string
		wantStatus int
	}{
		{token: "", wantStatus: http.StatusUnauthorized},
		{token: "unknown", wantStatus: http.StatusUnauthorized},
		{token: "viewer", wantStatus: http.StatusForbidden},
		{token: "operator", wantStatus: http.StatusCreated},
	}

	for _, tt := range tests {
		req := newUpload(t, routerProjectID)
		if tt.token != "" {
			req.Header.Set("Authorization", "Bearer "+tt.token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != tt.wantStatus {
			t.Fatalf("token %q: expected %d, got %d", tt.token, tt.wantStatus, rec.Code)
		}
	}

	if imports.lastCreatedBy != "u-operator" {
		t.Fatalf("expected created_by from token, got %q", imports.lastCreatedBy)
	}

	// viewers can still read
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/"+routerProjectID+"/imports", nil)
	req.Header.Set("Authorization", "Bearer viewer")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected viewer to list imports, got %d", rec.Code)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.MetricsHandler = http.NotFoundHandler()
	}))

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"POST /api/v1/projects/{projectID}/imports/",
		"GET /api/v1/projects/{projectID}/imports/",
		"GET /api/v1/projects/{projectID}/imports/progress",
		"GET /api/v1/imports/{id}/",
		"GET /api/v1/imports/{id}/divergences",
		"GET /api/v1/imports/{id}/progress",
		"POST /api/v1/diagnostics/offers",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered, have %v", route, seen)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		HealthHandler: handler.NewHealthHandler(),
		ImportHandler: handler.NewImportHandler(handler.ImportHandlerConfig{
			Imports: &stubImportService{},
			Batches: &stubBatchService{},
			Logger:  zerolog.Nop(),
		}),
		DiagnosticHandler: handler.NewDiagnosticHandler(usecase.NewOfferDiagnosticUseCase(), 0),
		Logger:            zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

func newUpload(t *testing.T, projectID string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "sales.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("transaction_id,net_value\nT1,10\n")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/"+projectID+"/imports", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

type stubImportService struct {
	calls         int
	lastCreatedBy string
}

func (s *stubImportService) Import(ctx context.Context, input usecase.ImportInput) (*usecase.ImportReport, error) {
	s.calls++
	s.lastCreatedBy = input.CreatedBy
	return &usecase.ImportReport{BatchID: "batch"}, nil
}

type stubBatchService struct{}

func (stubBatchService) GetBatch(ctx context.Context, id string) (*domain.ImportBatch, error) {
	return &domain.ImportBatch{ID: id}, nil
}

func (stubBatchService) ListBatches(ctx context.Context, input usecase.ListBatchesInput) ([]*domain.ImportBatch, error) {
	return []*domain.ImportBatch{}, nil
}

func (stubBatchService) ListDivergences(ctx context.Context, input usecase.ListDivergencesInput) ([]*domain.LedgerRow, error) {
	return []*domain.LedgerRow{}, nil
}

type stubVerifier struct {
	claims map[string]*auth.Claims
}

func (v *stubVerifier) Verify(token string) (*auth.Claims, error) {
	if c, ok := v.claims[token]; ok {
		return c, nil
	}
	return nil, domain.ErrInvalidToken
}

type stubIdempotencyStore struct {
	checkCalled  bool
	updateCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.updateCalled = true
	return nil
}

func (s *stubIdempotencyStore) Delete(ctx context.Context, key string) error {
	return nil
}

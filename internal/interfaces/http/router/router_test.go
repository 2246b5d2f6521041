package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"appendix-ai-api/internal/application/appendix"
	"appendix-ai-api/internal/application/extraction"
	"appendix-ai-api/internal/application/workspace"
	"appendix-ai-api/internal/config"
	"appendix-ai-api/internal/domain/entity"
	"appendix-ai-api/internal/interfaces/http/handler"
)

type nopGenerator struct{}

func (nopGenerator) Generate(ctx context.Context, cfg entity.GenerationConfig, onIncrement appendix.IncrementFunc) (string, error) {
	return "", nil
}

// countingLimiter 每个键只放行 limit 次
type countingLimiter struct {
	mu   sync.Mutex
	seen map[string]int
	keys []string
}

func (l *countingLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen == nil {
		l.seen = make(map[string]int)
	}
	l.seen[key]++
	l.keys = append(l.keys, key)
	return l.seen[key] <= limit, nil
}

func newTestRouter(t *testing.T, limiter *countingLimiter) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.App.Name = "appendix-ai-api"
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.Metrics.Path = "/metrics"
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 1, Window: time.Minute}

	renderer, err := appendix.NewRenderer(appendix.RendererOptions{})
	if err != nil {
		t.Fatal(err)
	}
	store := workspace.NewStore(workspace.StoreOptions{TTL: time.Hour})
	svc := workspace.NewService(store, extraction.NewService(0, nil), nopGenerator{}, renderer)

	handlers := &RouterHandlers{
		Health:   handler.NewHealthHandler(nil, store),
		Catalog:  handler.NewCatalogHandler(),
		Session:  handler.NewSessionHandler(cfg, svc),
		Generate: handler.NewGenerateHandler(svc, nopGenerator{}),
		Document: handler.NewDocumentHandler(svc),
	}
	if limiter == nil {
		return NewWithDeps(cfg, handlers, nil)
	}
	return NewWithDeps(cfg, handlers, limiter)
}

func serve(r *Router, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, req)
	return w
}

func TestSystemEndpoints(t *testing.T) {
	r := newTestRouter(t, nil)

	for _, path := range []string{"/health", "/live", "/ready", "/metrics", "/v1/catalog"} {
		if w := serve(r, http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, w.Code)
		}
	}

	w := serve(r, http.MethodGet, "/ready", "")
	if !strings.Contains(w.Body.String(), `"redis":{"status":"disabled"}`) {
		t.Fatalf("ready body = %s", w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("request id header missing")
	}
}

func TestRateLimitOnlyGuardsExpensiveRoutes(t *testing.T) {
	limiter := &countingLimiter{}
	r := newTestRouter(t, limiter)

	body := `{"appendix_kind":"PHU_LUC_III","grade_level":"Khối 6 (Mức TC1)","source_text":" "}`
	if w := serve(r, http.MethodPost, "/v1/generate", body); w.Code == http.StatusTooManyRequests {
		t.Fatal("first request must pass")
	}
	if w := serve(r, http.MethodPost, "/v1/generate", body); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", w.Code)
	}

	for i := 0; i < 3; i++ {
		if w := serve(r, http.MethodGet, "/v1/catalog", ""); w.Code != http.StatusOK {
			t.Fatalf("catalog = %d", w.Code)
		}
	}
	if len(limiter.keys) != 2 || !strings.HasPrefix(limiter.keys[0], "ratelimit:ip:") {
		t.Fatalf("limiter keys = %v", limiter.keys)
	}
}

func TestRateLimitKeyedBySession(t *testing.T) {
	limiter := &countingLimiter{}
	r := newTestRouter(t, limiter)

	serve(r, http.MethodPost, "/v1/sessions/abc/generate", "")
	want := "ratelimit:abc:/v1/sessions/:sid/generate"
	if len(limiter.keys) != 1 || limiter.keys[0] != want {
		t.Fatalf("limiter keys = %v, want %s", limiter.keys, want)
	}
}

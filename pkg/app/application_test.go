package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"roomreserve/pkg/auth"
	"roomreserve/pkg/client"
	"roomreserve/pkg/config"
	"roomreserve/pkg/contracts"
	httputil "roomreserve/pkg/http"
	"roomreserve/pkg/logger"
	"roomreserve/pkg/metrics"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
)

type whoAmIHandler struct{}

func (whoAmIHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/whoami", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		_ = httputil.WriteSuccess(w, map[string]string{"id": auth.FromContext(r.Context()).ID})
	})
	router.POST("/api/v1/whoami", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		httputil.WriteNoContent(w)
	})
}

var panicHandler = contracts.HandlerFunc(func(router *httprouter.Router) {
	router.GET("/api/v1/panic", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		panic("boom")
	})
})

func newTestApp(t *testing.T) *Application {
	t.Helper()
	cfg := &config.Config{
		Port:              "0",
		JWTSecret:         "app-test-secret",
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
		IdempotencyTTL:    time.Minute,
		MaxRequestSize:    1024,
		Log:               logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"}),
		Client:            client.NewClient(),
	}
	a := NewApplication(cfg, metrics.New("test", prometheus.NewRegistry()))
	a.SetApp(whoAmIHandler{}, panicHandler, nil)
	t.Cleanup(func() {
		a.idempotencyStore.Stop()
		a.memoryLimiter.Stop()
	})
	return a
}

func serve(a *Application, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func TestApplication_Authentication(t *testing.T) {
	a := newTestApp(t)

	rec := serve(a, httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"id":""`) {
		t.Errorf("expected anonymous access, got %d %s", rec.Code, rec.Body)
	}

	token, err := auth.NewTokenParser("app-test-secret").Sign(auth.Principal{ID: "user-7"}, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = serve(a, req)
	if !strings.Contains(rec.Body.String(), `"id":"user-7"`) {
		t.Errorf("expected principal from token, got %s", rec.Body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer forged")
	if rec := serve(a, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a forged token, got %d", rec.Code)
	}
}

func TestApplication_RateLimitPerCaller(t *testing.T) {
	a := newTestApp(t)

	var last *httptest.ResponseRecorder
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		last = serve(a, req)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Errorf("expected third request to be limited, got %d", last.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	if rec := serve(a, req); rec.Code != http.StatusOK {
		t.Errorf("expected other callers to be unaffected, got %d", rec.Code)
	}
}

func TestApplication_Plumbing(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/whoami", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	if rec := serve(a, req); rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415 for a non-JSON body, got %d", rec.Code)
	}

	if rec := serve(a, httptest.NewRequest(http.MethodGet, "/api/v1/panic", nil)); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected recovered panic to be a 500, got %d", rec.Code)
	}

	if rec := serve(a, httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Errorf("expected health to be served, got %d", rec.Code)
	}

	if rec := serve(a, httptest.NewRequest(http.MethodGet, "/metrics", nil)); rec.Code != http.StatusOK {
		t.Errorf("expected metrics to be served, got %d", rec.Code)
	}
}

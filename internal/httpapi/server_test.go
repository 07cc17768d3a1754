package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	apimw "github.com/hamed0406/metaprobe/internal/httpapi/middleware"
)

func TestHealthz_NoAuth(t *testing.T) {
	srv, _ := setupServer(t, fakeProber())
	h := srv.Router(testKeys(), nil, 10_000, 10_000, 10_000, 10_000)

	rr := do(t, h, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz: code=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestPublicRoutes_RequireKey(t *testing.T) {
	srv, _ := setupServer(t, fakeProber())
	h := srv.Router(testKeys(), nil, 10_000, 10_000, 10_000, 10_000)

	if rr := do(t, h, http.MethodGet, "/api/runs", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/runs", "wrong"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: want 401, got %d", rr.Code)
	}
}

func TestNoKeysConfigured_OpenAccess(t *testing.T) {
	srv, _ := setupServer(t, fakeProber())
	h := srv.Router(apimwKeysNone(), nil, 10_000, 10_000, 10_000, 10_000)

	if rr := do(t, h, http.MethodPost, "/api/runs", ""); rr.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rr.Code)
	}
}

func TestCORS_AllowedOrigin(t *testing.T) {
	srv, _ := setupServer(t, fakeProber())
	h := srv.Router(testKeys(), []string{"https://app.example"}, 10_000, 10_000, 10_000, 10_000)

	req := httptest.NewRequest(http.MethodOptions, "/api/runs", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("allow-origin = %q", got)
	}
}

func TestPublicRateLimit(t *testing.T) {
	srv, _ := setupServer(t, fakeProber())
	h := srv.Router(testKeys(), nil, 60, 1, 10_000, 10_000)

	if rr := do(t, h, http.MethodGet, "/api/targets", "pub_test"); rr.Code != http.StatusOK {
		t.Fatalf("first: want 200, got %d", rr.Code)
	}
	rr := do(t, h, http.MethodGet, "/api/targets", "pub_test")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second: want 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
}

func apimwKeysNone() apimw.Keys { return apimw.Keys{} }

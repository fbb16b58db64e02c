package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit/httpkit"
	"github.com/Scotts-Thoughts/fury-cutter/internal/platform/config"
	phttp "github.com/Scotts-Thoughts/fury-cutter/internal/platform/net/http"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthPort_DisabledWithoutToken(t *testing.T) {
	cfg := config.New().Prefix("CORE_API_TEST_NONE_")
	if p := AuthPort(cfg); p != nil {
		t.Fatalf("expected nil port without a configured token, got %T", p)
	}
}

func TestAuthPort_GatesProtectedRoutes(t *testing.T) {
	t.Setenv("CORE_API_TEST_TOKEN", "hush")
	cfg := config.New().Prefix("CORE_API_TEST_")

	port := AuthPort(cfg)
	if port == nil {
		t.Fatal("expected a port when a token is configured")
	}

	mux := chi.NewRouter()
	httpkit.Protected(phttp.AdaptChi(mux), port, func(gr httpkit.Router) {
		gr.Get("/runs", okHandler)
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"right token", "Bearer hush", http.StatusOK},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/runs", nil)
		if c.header != "" {
			req.Header.Set("Authorization", c.header)
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != c.want {
			t.Fatalf("%s: status = %d, want %d", c.name, rec.Code, c.want)
		}
	}
}

func TestAuthPort_NilPortLeavesRoutesOpen(t *testing.T) {
	mux := chi.NewRouter()
	httpkit.Protected(phttp.AdaptChi(mux), nil, func(gr httpkit.Router) {
		gr.Get("/runs", okHandler)
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("open surface status = %d, want 200", rec.Code)
	}
}

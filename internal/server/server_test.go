package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spracknow-droid/Excel-to-DB/internal/config"
	"github.com/spracknow-droid/Excel-to-DB/internal/store"
)

func newTestServer(t *testing.T, devMode bool) *Server {
	t.Helper()

	st, err := store.New(store.MemoryPath)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.DefaultConfig()
	cfg.Data.DataDir = t.TempDir()
	cfg.Server.DevMode = devMode
	return NewServer(cfg, st, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t, false)

	tests := []struct {
		path     string
		code     int
		contains string
	}{
		{"/", http.StatusOK, "<html"},
		{"/api/status", http.StatusOK, `"partitions"`},
		{"/nope", http.StatusNotFound, "not found"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if w.Code != tt.code {
			t.Fatalf("%s: status = %d, want %d", tt.path, w.Code, tt.code)
		}
		if !strings.Contains(w.Body.String(), tt.contains) {
			t.Fatalf("%s: body missing %q", tt.path, tt.contains)
		}
	}
	if s.GetStore() == nil {
		t.Fatal("store should be exposed")
	}
}

func TestServer_DevModeCORS(t *testing.T) {
	s := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Origin", devFrontendOrigin)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != devFrontendOrigin {
		t.Fatalf("allow origin = %q, want %q", got, devFrontendOrigin)
	}
}

func TestServer_AddrDefaultsToLoopback(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Host = ""
	cfg.Server.Port = 9100
	s := &Server{cfg: cfg}

	if got := s.Addr(); got != "127.0.0.1:9100" {
		t.Fatalf("addr = %s", got)
	}
	if got := s.URL(); got != "http://localhost:9100" {
		t.Fatalf("url = %s", got)
	}
}

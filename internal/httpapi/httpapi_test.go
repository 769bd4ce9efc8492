package httpapi

import (
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"climate-server/internal/config"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "hawaii.sqlite"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestServer(t *testing.T, db *sql.DB, cfg config.Config) *httptest.Server {
	t.Helper()

	r := NewRouter(db)
	r.Route("/api", func(api chi.Router) {
		api.Use(APIMiddleware(cfg)...)
		api.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("pong"))
		})
		api.Get("/boom", func(http.ResponseWriter, *http.Request) {
			panic("boom")
		})
	})
	ts := httptest.NewServer(r)

	t.Cleanup(ts.Close)
	return ts
}

func defaultConfig() config.Config {
	return config.Config{
		HTTPAddr:           ":0",
		HTTPReadTimeout:    5 * time.Second,
		HTTPWriteTimeout:   10 * time.Second,
		RateLimitPerMin:    0,
		CORSAllowedOrigins: []string{"*"},
	}
}

func mustGet(t *testing.T, client *http.Client, url string, header http.Header) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		ts := newTestServer(t, openTestDB(t), defaultConfig())

		resp := mustGet(t, ts.Client(), ts.URL+"/healthz", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d; want 200", resp.StatusCode)
		}
		var body map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["status"] != "ok" {
			t.Errorf("status field = %q; want ok", body["status"])
		}
	})

	t.Run("closed database", func(t *testing.T) {
		db := openTestDB(t)
		_ = db.Close()
		ts := newTestServer(t, db, defaultConfig())

		resp := mustGet(t, ts.Client(), ts.URL+"/healthz", nil)
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("status = %d; want 503", resp.StatusCode)
		}
	})
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t, openTestDB(t), defaultConfig())

	resp := mustGet(t, ts.Client(), ts.URL+"/healthz", nil)
	generated := resp.Header.Get(requestIDHeader)
	if len(generated) != 36 {
		t.Errorf("generated request id = %q; want a uuid", generated)
	}

	const id = "4f9b7c1e-3a2d-4c5b-8e6f-7a8b9c0d1e2f"
	resp = mustGet(t, ts.Client(), ts.URL+"/healthz", http.Header{requestIDHeader: {id}})
	if got := resp.Header.Get(requestIDHeader); got != id {
		t.Errorf("request id = %q; want %q echoed", got, id)
	}

	resp = mustGet(t, ts.Client(), ts.URL+"/healthz", http.Header{requestIDHeader: {"not a uuid\n"}})
	if got := resp.Header.Get(requestIDHeader); got == "not a uuid\n" || len(got) != 36 {
		t.Errorf("request id = %q; want a fresh uuid", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, openTestDB(t), defaultConfig())

	mustGet(t, ts.Client(), ts.URL+"/api/ping", nil)
	resp := mustGet(t, ts.Client(), ts.URL+"/metrics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d; want 200", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(b), `climate_http_requests_total{method="GET",route="/api/ping",status="200"}`) {
		t.Errorf("metrics missing /api/ping request counter:\n%s", b)
	}
}

func TestCORS(t *testing.T) {
	cfg := defaultConfig()
	cfg.CORSAllowedOrigins = []string{"https://example.org"}
	ts := newTestServer(t, openTestDB(t), cfg)

	resp := mustGet(t, ts.Client(), ts.URL+"/api/ping", http.Header{"Origin": {"https://example.org"}})
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://example.org" {
		t.Errorf("Access-Control-Allow-Origin = %q; want https://example.org", got)
	}

	resp = mustGet(t, ts.Client(), ts.URL+"/api/ping", http.Header{"Origin": {"https://evil.example"}})
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q for a foreign origin; want empty", got)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := defaultConfig()
	cfg.RateLimitPerMin = 2
	ts := newTestServer(t, openTestDB(t), cfg)

	for i := 0; i < 2; i++ {
		if resp := mustGet(t, ts.Client(), ts.URL+"/api/ping", nil); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d status = %d; want 200", i, resp.StatusCode)
		}
	}
	if resp := mustGet(t, ts.Client(), ts.URL+"/api/ping", nil); resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d; want 429", resp.StatusCode)
	}
	// Outside /api the limiter does not apply.
	if resp := mustGet(t, ts.Client(), ts.URL+"/healthz", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d; want 200", resp.StatusCode)
	}
}

func TestRecoverer(t *testing.T) {
	ts := newTestServer(t, openTestDB(t), defaultConfig())

	resp := mustGet(t, ts.Client(), ts.URL+"/api/boom", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d; want 500", resp.StatusCode)
	}
	// The server keeps serving after a panic.
	if resp := mustGet(t, ts.Client(), ts.URL+"/healthz", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d; want 200", resp.StatusCode)
	}
}

func TestNewServer(t *testing.T) {
	cfg := defaultConfig()
	cfg.HTTPAddr = "127.0.0.1:9999"
	h := http.NotFoundHandler()
	srv := NewServer(cfg, h)

	if srv.Addr != "127.0.0.1:9999" {
		t.Errorf("Addr = %q", srv.Addr)
	}
	if srv.ReadTimeout != 5*time.Second || srv.WriteTimeout != 10*time.Second || srv.ReadHeaderTimeout != 5*time.Second {
		t.Errorf("timeouts = %v / %v / %v", srv.ReadTimeout, srv.WriteTimeout, srv.ReadHeaderTimeout)
	}
	if srv.Handler == nil {
		t.Error("Handler is nil")
	}
}

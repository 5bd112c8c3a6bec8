package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"log/slog"
	"os"
)

// TestRequestID_Preserved: входящий x-request-id сохраняется.
func TestRequestID_Preserved(t *testing.T) {
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := RequestIDFromContext(r.Context()); id != "req-42" {
			t.Errorf("ожидался req-42, получено %q", id)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/save_file", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get(HeaderRequestID) != "req-42" {
		t.Errorf("заголовок ответа не совпадает: %q", rec.Header().Get(HeaderRequestID))
	}
}

// TestRequestID_Generated: отсутствующий идентификатор генерируется.
func TestRequestID_Generated(t *testing.T) {
	var seen string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/save_file", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen == "" {
		t.Error("request id должен генерироваться при отсутствии заголовка")
	}
	if rec.Header().Get(HeaderRequestID) != seen {
		t.Error("заголовок ответа должен совпадать со сгенерированным значением")
	}
}

// TestDiscovery_Cached: повторный запрос отдаётся из кэша.
func TestDiscovery_Cached(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jwks_uri":"https://keys.local/jwks","issuer":"https://issuer.local"}`))
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	d := NewDiscovery(srv.URL, time.Minute, logger)

	for i := 0; i < 3; i++ {
		uri, err := d.JWKSURI(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		if uri != "https://keys.local/jwks" {
			t.Errorf("неожиданный jwks_uri: %s", uri)
		}
	}
	if calls != 1 {
		t.Errorf("discovery должен кэшироваться: %d запросов", calls)
	}
}

// TestDiscovery_MissingJWKSURI: документ без jwks_uri — ошибка.
func TestDiscovery_MissingJWKSURI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"issuer":"https://issuer.local"}`))
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	d := NewDiscovery(srv.URL, time.Minute, logger)

	if _, err := d.JWKSURI(t.Context()); err == nil {
		t.Error("ожидалась ошибка при отсутствии jwks_uri")
	}
}

package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok", http.StatusCreated, "INFO"},
		{"client error", http.StatusConflict, "WARN"},
		{"server error", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			r := chi.NewRouter()
			r.Use(chimw.RequestID)
			r.Use(RequestLogger(logger))
			r.Post("/orders", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{}`)) //nolint:errcheck
			})

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest("POST", "/orders", nil))

			entry := decodeLine(t, &buf)
			if entry["level"] != tt.wantLevel {
				t.Errorf("level: got %v, want %s", entry["level"], tt.wantLevel)
			}
			if entry["status"] != float64(tt.status) {
				t.Errorf("status: got %v, want %d", entry["status"], tt.status)
			}
			if entry["method"] != "POST" || entry["path"] != "/orders" {
				t.Errorf("method/path: got %v %v", entry["method"], entry["path"])
			}
			if id, _ := entry["request_id"].(string); id == "" {
				t.Error("expected a request id")
			}
			if entry["bytes"] != float64(2) {
				t.Errorf("bytes: got %v, want 2", entry["bytes"])
			}
		})
	}
}

func TestRequestLogger_ImplicitOK(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	if entry := decodeLine(t, &buf); entry["status"] != float64(http.StatusOK) {
		t.Errorf("status: got %v, want 200", entry["status"])
	}
}

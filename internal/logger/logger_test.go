package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func TestNewWithWriterLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewWithWriter(buf, false)
	l.Debug().Msg("hidden")
	l.Info().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug line written at info level")
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("expected info line, got %q", out)
	}

	buf.Reset()
	debugLog := NewWithWriter(buf, true)
	debugLog.Debug().Msg("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug logger dropped a debug line")
	}
}

func TestContextRoundtrip(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf, false))
	l := FromContext(ctx)
	l.Info().Msg("from context")
	if buf.Len() == 0 {
		t.Error("expected output from the stored logger")
	}

	if FromContext(context.Background()).GetLevel() != zerolog.Disabled {
		t.Error("expected a no-op logger when none is stored")
	}
}

func TestMiddleware(t *testing.T) {
	buf := &bytes.Buffer{}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Middleware(NewWithWriter(buf, false)))
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		l := FromContext(r.Context())
		l.Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("bad log line: %v", err)
	}
	if entry["status"] != float64(http.StatusTeapot) || entry["path"] != "/ping" {
		t.Errorf("entry = %v", entry)
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Error("request id missing from log line")
	}
}

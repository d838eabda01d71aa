package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nikhil/teamglow/internal/logger"
)

type staticParser map[string]string

func (p staticParser) Parse(token string) (string, error) {
	if id, ok := p[token]; ok {
		return id, nil
	}
	return "", errors.New("bad token")
}

func TestAuthMiddleware(t *testing.T) {
	var gotID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := AuthMiddleware(staticParser{"good": "u1"})(next)

	tests := []struct {
		header string
		status int
		msg    string
	}{
		{"", http.StatusUnauthorized, "Missing auth token"},
		{"Token good", http.StatusUnauthorized, "Invalid auth header"},
		{"Bearer ", http.StatusUnauthorized, "Invalid auth header"},
		{"Bearer bad", http.StatusUnauthorized, "Invalid token"},
		{"Bearer good", http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		gotID = ""
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != tt.status {
			t.Errorf("%q: status %d, want %d", tt.header, rec.Code, tt.status)
		}
		if tt.msg != "" && !strings.Contains(rec.Body.String(), tt.msg) {
			t.Errorf("%q: body %s", tt.header, rec.Body.String())
		}
		if tt.status == http.StatusNoContent && gotID != "u1" {
			t.Errorf("user id = %q", gotID)
		}
	}
}

func TestRequestLoggerKeepsStatus(t *testing.T) {
	h := RequestLogger(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Context().Value(logger.RequestIDKey) != "abc" {
			t.Errorf("request id = %v", r.Context().Value(logger.RequestIDKey))
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New("demo", logger.Options{Env: "production", Level: "info", Output: &buf})
	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodPut, "/api/feedback/f1", nil)
	req.Header.Set("X-Request-ID", "req-7")
	h.ServeHTTP(httptest.NewRecorder(), req)
	_ = log.Sync()

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if entry["method"] != "PUT" || entry["path"] != "/api/feedback/f1" ||
		entry["status"] != float64(404) || entry["request_id"] != "req-7" {
		t.Fatalf("entry = %v", entry)
	}
	if _, ok := entry["duration"]; !ok {
		t.Fatal("duration missing")
	}
}

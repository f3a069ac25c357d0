package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DukeRupert/wayfind/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{code: domain.EINVALID, want: http.StatusBadRequest},
		{code: domain.EUNAUTHORIZED, want: http.StatusUnauthorized},
		{code: domain.ENOTFOUND, want: http.StatusNotFound},
		{code: domain.ECONFLICT, want: http.StatusConflict},
		{code: domain.ERATELIMIT, want: http.StatusTooManyRequests},
		{code: domain.EUNAVAILABLE, want: http.StatusServiceUnavailable},
		{code: domain.EINTERNAL, want: http.StatusInternalServerError},
		{code: "unknown_code", want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := ErrorCodeToHTTPStatus(tt.code); got != tt.want {
			t.Errorf("ErrorCodeToHTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestErrorResponse_JSONForAPIPaths(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/get/nope", nil)
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, discardLogger(), domain.NotFound("location.resolve", "location", "nope"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON response, got %q", ct)
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Error.Code != domain.ENOTFOUND {
		t.Errorf("error code = %q, want %q", body.Error.Code, domain.ENOTFOUND)
	}
	if body.Error.Message == "" {
		t.Error("error message should not be empty")
	}
}

func TestErrorResponse_PlainTextForPages(t *testing.T) {
	req := httptest.NewRequest("GET", "/view/nope", nil)
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, discardLogger(), domain.NotFound("location.resolve", "location", "nope"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct == "application/json" {
		t.Errorf("page requests should not get JSON errors")
	}
}

func TestErrorResponse_MasksInternalDetails(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/get/mi", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	underlying := domain.Internal(io.ErrUnexpectedEOF, "location.resolve", "connection reset while reading row")
	ErrorResponse(rec, req, discardLogger(), underlying)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	body := rec.Body.String()
	if strings.Contains(body, "connection reset") || strings.Contains(body, "unexpected EOF") {
		t.Errorf("internal details should be masked, got: %s", body)
	}
}

func TestAcceptsJSON(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		accept string
		want   bool
	}{
		{name: "api path", path: "/api/search", want: true},
		{name: "page path", path: "/view/mi", want: false},
		{name: "page path with json accept", path: "/view/mi", accept: "application/json", want: true},
		{name: "root", path: "/", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if got := acceptsJSON(req); got != tt.want {
				t.Errorf("acceptsJSON() = %v, want %v", got, tt.want)
			}
		})
	}
}

package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/information-sharing-networks/dbc-connect/internal/session"
)

func TestRequestSizeLimits(t *testing.T) {
	router := chi.NewRouter()

	route := "/test/route"

	maxRequestSize := int64(64)

	errRequestSize := int64(128)

	if maxRequestSize <= 0 {
		t.Fatalf("Max request size is not greater than 0: %d", maxRequestSize)
	}

	router.Group(func(r chi.Router) {
		r.Use(RequestSizeLimit(maxRequestSize))
		r.Post(route, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	tests := []struct {
		name     string
		path     string
		bodySize int64
		wantCode int
	}{
		{"API normal request", route, maxRequestSize, http.StatusOK},
		{"API oversized request", route, errRequestSize, 413}, // Request Entity Too Large
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Repeat("x", int(tt.bodySize))
			req := httptest.NewRequest("POST", tt.path, bytes.NewReader([]byte(body)))
			req.ContentLength = tt.bodySize

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("got status %d, want %d", rr.Code, tt.wantCode)
			}

			// Verify header is always set
			if header := rr.Header().Get("X-Max-Request-Size"); header == "" {
				t.Error("X-Max-Request-Size header not set")
			}
		})
	}
}

func TestRequestSizeLimitByContentType(t *testing.T) {
	maxBytes := 4 * maxFormBytes
	handler := RequestSizeLimit(maxBytes)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name        string
		contentType string
		bodySize    int64
		wantCode    int
		wantLimit   string
	}{
		{"small JSON body", "application/json", 1024, http.StatusOK, "65536"},
		{"JSON body over the form limit", "application/json", maxFormBytes + 1, http.StatusRequestEntityTooLarge, "65536"},
		{"login form over the form limit", "application/x-www-form-urlencoded", maxFormBytes + 1, http.StatusRequestEntityTooLarge, "65536"},
		{"message upload", "multipart/form-data; boundary=xyz", 2 * maxFormBytes, http.StatusOK, "262144"},
		{"message upload over the limit", "multipart/form-data; boundary=xyz", maxBytes + 1, http.StatusRequestEntityTooLarge, "262144"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/messages", strings.NewReader(strings.Repeat("x", int(tt.bodySize))))
			req.Header.Set("Content-Type", tt.contentType)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("got status %d, want %d", rr.Code, tt.wantCode)
			}
			if got := rr.Header().Get("X-Max-Request-Size"); got != tt.wantLimit {
				t.Errorf("X-Max-Request-Size = %s, want %s", got, tt.wantLimit)
			}
		})
	}
}

func TestRateLimitIsEnabled(t *testing.T) {
	// Create router with rate limiting
	router := chi.NewRouter()
	router.Use(RateLimit(10, 5)) // 10 requests per second, burst of 5
	router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// First few requests should succeed (within burst)
	for i := range 5 {
		req := httptest.NewRequest("GET", "/test", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("Request %d failed: got status %d, want %d", i+1, rr.Code, http.StatusOK)
		}
	}

	// Next request should be rate limited
	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("Rate limit request should fail: got status %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
}

func TestRateLimitIsPerClient(t *testing.T) {
	router := chi.NewRouter()
	router.Use(RateLimit(1, 1))
	router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func(remoteAddr string) int {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = remoteAddr
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send("192.0.2.1:1111"); code != http.StatusOK {
		t.Fatalf("first request from client A: got %d, want %d", code, http.StatusOK)
	}
	// same client on another port shares the bucket
	if code := send("192.0.2.1:2222"); code != http.StatusTooManyRequests {
		t.Errorf("second request from client A: got %d, want %d", code, http.StatusTooManyRequests)
	}
	if code := send("192.0.2.2:1111"); code != http.StatusOK {
		t.Errorf("first request from client B: got %d, want %d", code, http.StatusOK)
	}
	// RealIP rewrites RemoteAddr without a port
	if code := send("198.51.100.7"); code != http.StatusOK {
		t.Errorf("first request from client C: got %d, want %d", code, http.StatusOK)
	}
}

func TestIdleClientLimitersAreDropped(t *testing.T) {
	limiters := newClientLimiters(1, 1)
	start := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	limiters.allow("192.0.2.1", start)
	limiters.allow("192.0.2.2", start.Add(limiterIdleTimeout))
	if got := limiters.size(); got != 2 {
		t.Fatalf("got %d limiters, want 2", got)
	}

	limiters.allow("192.0.2.3", start.Add(limiterIdleTimeout+time.Minute))
	if got := limiters.size(); got != 2 {
		t.Errorf("got %d limiters after the idle client was dropped, want 2", got)
	}
	if !limiters.allow("192.0.2.1", start.Add(limiterIdleTimeout+time.Minute)) {
		t.Error("a dropped client should start with a full bucket")
	}
}

func TestRateLimitIsDisabled(t *testing.T) {

	tests := []struct {
		name          string
		rps           int32
		expectLimited bool
	}{
		{"Rate limiting enabled", 10, true},
		{"Rate limiting disabled with 0", 0, false},
		{"Rate limiting disabled with negative", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := chi.NewRouter()
			router.Use(RateLimit(tt.rps, 1)) // burst of 1 for easy testing
			router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			// Make 2 requests quickly
			for i := 0; i < 2; i++ {
				req := httptest.NewRequest("GET", "/test", nil)
				rr := httptest.NewRecorder()
				router.ServeHTTP(rr, req)

				if tt.expectLimited && i == 1 {
					// Second request should be rate limited
					if rr.Code != http.StatusTooManyRequests {
						t.Errorf("Expected rate limit on request %d: got status %d, want %d", i+1, rr.Code, http.StatusTooManyRequests)
					}
				} else {
					// Request should succeed
					if rr.Code != http.StatusOK {
						t.Errorf("Request %d failed: got status %d, want %d", i+1, rr.Code, http.StatusOK)
					}
				}
			}
		})
	}
}

func TestRequireSession(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	st, err := store.Create(context.Background(), &session.State{ABN: "51824753556"})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	router := chi.NewRouter()
	router.Use(RequireSession(store, "dbc_session"))
	router.Get("/api/session", func(w http.ResponseWriter, r *http.Request) {
		got, ok := ContextSession(r.Context())
		if !ok {
			t.Error("session not in context")
			return
		}
		_, _ = w.Write([]byte(got.ABN))
	})

	tests := []struct {
		name     string
		cookie   *http.Cookie
		wantCode int
	}{
		{"no cookie", nil, http.StatusUnauthorized},
		{"not a session id", &http.Cookie{Name: "dbc_session", Value: "not-a-uuid"}, http.StatusUnauthorized},
		{"unknown session", &http.Cookie{Name: "dbc_session", Value: uuid.NewString()}, http.StatusUnauthorized},
		{"valid session", &http.Cookie{Name: "dbc_session", Value: st.ID.String()}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/session", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("got status %d, want %d", rr.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK && rr.Body.String() != "51824753556" {
				t.Errorf("got body %q", rr.Body.String())
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		environment string
		wantHSTS    bool
	}{
		{"dev", false},
		{"staging", true},
		{"prod", true},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			handler := SecurityHeaders(tt.environment)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

			for header, want := range map[string]string{
				"X-Content-Type-Options": "nosniff",
				"Cache-Control":          "no-store",
				"Referrer-Policy":        "no-referrer",
			} {
				if got := rr.Header().Get(header); got != want {
					t.Errorf("%s = %q, want %q", header, got, want)
				}
			}
			if got := rr.Header().Get("Strict-Transport-Security") != ""; got != tt.wantHSTS {
				t.Errorf("HSTS set = %v, want %v", got, tt.wantHSTS)
			}
		})
	}
}

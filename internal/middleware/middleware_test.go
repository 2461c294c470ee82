package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/DocuMind/internal/api"
	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

func configureAuth(t *testing.T, s config.AuthSettings) {
	t.Helper()
	Configure(s)
	t.Cleanup(func() {
		Configure(config.AuthSettings{
			Token:         config.AuthToken,
			Bypass:        config.NoAuthBypass,
			RatePerSecond: config.RATE_LIMIT_PER_SECOND,
			Burst:         config.BURST_RATE_LIMIT_PER_SECOND,
		})
	})
}

// okHandler records the trace id the wrapped handler saw.
func okHandler(seen *string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*seen = config.TraceId(r.Context())
		w.WriteHeader(http.StatusOK)
	}
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestWrap_Auth(t *testing.T) {
	configureAuth(t, config.AuthSettings{Token: "secret", RatePerSecond: 100, Burst: 100})

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic c2VjcmV0", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			req := httptest.NewRequest(http.MethodGet, "/sessions/s1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := serve(Wrap(okHandler(&seen)), req)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusUnauthorized {
				var body api.JobResponse
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("decoding error body: %v", err)
				}
				if body.Error == nil || body.Error.Code != http.StatusUnauthorized {
					t.Errorf("unexpected error body %+v", body)
				}
				if seen != "" {
					t.Error("handler must not run on auth failure")
				}
			}
		})
	}
}

func TestWrap_EmptyTokenRejects(t *testing.T) {
	configureAuth(t, config.AuthSettings{Token: "", RatePerSecond: 100, Burst: 100})
	req := httptest.NewRequest(http.MethodGet, "/sessions/s1", nil)
	req.Header.Set("Authorization", "Bearer ")
	var seen string
	if rec := serve(Wrap(okHandler(&seen)), req); rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestWrap_Bypass(t *testing.T) {
	configureAuth(t, config.AuthSettings{Bypass: true, RatePerSecond: 100, Burst: 100})
	var seen string
	if rec := serve(Wrap(okHandler(&seen)), httptest.NewRequest(http.MethodGet, "/chat", nil)); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestTraceHeader(t *testing.T) {
	configureAuth(t, config.AuthSettings{Bypass: true, RatePerSecond: 100, Burst: 100})

	t.Run("generated", func(t *testing.T) {
		var seen string
		rec := serve(Wrap(okHandler(&seen)), httptest.NewRequest(http.MethodGet, "/health", nil))
		if seen == "" {
			t.Fatal("no trace id on the request context")
		}
		if got := rec.Header().Get(traceHeader); got != seen {
			t.Errorf("response trace = %q, context trace = %q", got, seen)
		}
	})

	t.Run("propagated", func(t *testing.T) {
		var seen string
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(traceHeader, "trace-123")
		rec := serve(Public(okHandler(&seen)), req)
		if seen != "trace-123" || rec.Header().Get(traceHeader) != "trace-123" {
			t.Errorf("trace not propagated: context %q, header %q", seen, rec.Header().Get(traceHeader))
		}
	})
}

func TestRateLimiter(t *testing.T) {
	configureAuth(t, config.AuthSettings{Bypass: true, RatePerSecond: 0.001, Burst: 1})

	var seen string
	h := Wrap(okHandler(&seen))
	first := httptest.NewRequest(http.MethodPost, "/chat", nil)
	first.RemoteAddr = "10.0.0.1:5000"
	if rec := serve(h, first); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/chat", nil)
	second.RemoteAddr = "10.0.0.1:5001"
	if rec := serve(h, second); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}

	other := httptest.NewRequest(http.MethodPost, "/chat", nil)
	other.RemoteAddr = "10.0.0.2:5000"
	if rec := serve(h, other); rec.Code != http.StatusOK {
		t.Errorf("other ip status = %d, want 200", rec.Code)
	}
}

func TestPublic_SkipsAuthAndLimits(t *testing.T) {
	configureAuth(t, config.AuthSettings{Token: "secret", RatePerSecond: 0.001, Burst: 1})
	var seen string
	h := Public(okHandler(&seen))
	for i := 0; i < 3; i++ {
		if rec := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
}

func TestIsValidBearerToken(t *testing.T) {
	configureAuth(t, config.AuthSettings{Token: "abc"})
	log := logger_i.NewLogger("test")
	if !IsValidBearerToken("Bearer abc", log) {
		t.Error("valid token rejected")
	}
	if IsValidBearerToken("Bearer abcd", log) {
		t.Error("longer token accepted")
	}
	if IsValidBearerToken("abc", log) {
		t.Error("token without scheme accepted")
	}
}

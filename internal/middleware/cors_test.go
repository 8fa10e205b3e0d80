package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		allowed         []string
		origin          string
		method          string
		wantOrigin      string
		wantCredentials bool
		wantNextCalled  bool
	}{
		{
			name:            "explicit origin",
			allowed:         []string{"http://localhost:5173"},
			origin:          "http://localhost:5173",
			method:          http.MethodGet,
			wantOrigin:      "http://localhost:5173",
			wantCredentials: true,
			wantNextCalled:  true,
		},
		{
			name:           "wildcard without credentials",
			allowed:        []string{"*"},
			origin:         "http://evil.test",
			method:         http.MethodGet,
			wantOrigin:     "http://evil.test",
			wantNextCalled: true,
		},
		{
			name:           "unlisted origin",
			allowed:        []string{"http://localhost:3000"},
			origin:         "http://evil.test",
			method:         http.MethodGet,
			wantNextCalled: true,
		},
		{
			name:            "preflight",
			allowed:         []string{"http://localhost:3000"},
			origin:          "http://localhost:3000",
			method:          http.MethodOptions,
			wantOrigin:      "http://localhost:3000",
			wantCredentials: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			called := false
			h := CORS(tt.allowed)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				called = true
			}))
			req := httptest.NewRequest(tt.method, "/api/timeline", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials") == "true"; got != tt.wantCredentials {
				t.Errorf("Allow-Credentials = %v, want %v", got, tt.wantCredentials)
			}
			if called != tt.wantNextCalled {
				t.Errorf("next called = %v, want %v", called, tt.wantNextCalled)
			}
		})
	}
}

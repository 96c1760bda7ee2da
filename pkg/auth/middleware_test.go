package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authedHandler(t *testing.T, captured *User) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			t.Fatalf("user missing from context")
		}
		*captured = u
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireUser(t *testing.T) {
	var got User
	h := RequireUser(Config{RPS: 100, Burst: 100})(authedHandler(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("X-User-Name", "Alice")
	req.Header.Set("X-User-Groups", "support, admins")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got.ID != "u1" || got.Name != "Alice" {
		t.Fatalf("user = %+v", got)
	}
	if len(got.Groups) != 2 || got.Groups[0] != "support" || got.Groups[1] != "admins" {
		t.Fatalf("groups = %v", got.Groups)
	}
}

func TestRequireUserMissingID(t *testing.T) {
	h := RequireUser(Config{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler reached without identity")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRateLimitPerUser(t *testing.T) {
	var got User
	h := RequireUser(Config{RPS: 1, Burst: 1})(authedHandler(t, &got))

	fire := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
		req.Header.Set("X-User-ID", userID)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := fire("u1"); code != http.StatusOK {
		t.Fatalf("first request: %d", code)
	}
	if code := fire("u1"); code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d, want 429", code)
	}
	// another user has an independent bucket
	if code := fire("u2"); code != http.StatusOK {
		t.Fatalf("other user: %d", code)
	}
}

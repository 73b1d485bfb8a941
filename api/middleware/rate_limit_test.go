package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	pkgAuth "github.com/angelmondragon/homeplast-storefront/pkg/auth"
	pkgredis "github.com/angelmondragon/homeplast-storefront/pkg/redis"
)

func newLimiter(t *testing.T) *pkgredis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return pkgredis.Wrap(raw)
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	policy := NewRateLimitPolicy("coupon", time.Minute, 2)
	handler := RateLimit(policy, newLimiter(t), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons/validate", nil)
		req = req.WithContext(WithSessionID(req.Context(), "sess-1"))
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
		if i < 2 && last.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200 got %d", i+1, last.Code)
		}
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", last.Code)
	}
	if last.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected Retry-After 60 got %q", last.Header().Get("Retry-After"))
	}
}

func TestRateLimitCountsShoppersSeparately(t *testing.T) {
	policy := NewRateLimitPolicy("coupon", time.Minute, 1)
	handler := RateLimit(policy, newLimiter(t), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, sid := range []string{"sess-a", "sess-b"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons/validate", nil)
		req = req.WithContext(WithSessionID(req.Context(), sid))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", sid, resp.Code)
		}
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	policy := NewRateLimitPolicy("coupon", 0, 0)
	handler := RateLimit(policy, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected passthrough got %d", resp.Code)
	}
}

func TestShopperKeyPrecedence(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := shopperKey(req); got != "ip:10.0.0.1" {
		t.Fatalf("expected ip key got %s", got)
	}

	req = req.WithContext(WithSessionID(req.Context(), "sess-1"))
	if got := shopperKey(req); got != "session:sess-1" {
		t.Fatalf("expected session key got %s", got)
	}

	req = req.WithContext(pkgAuth.WithUserID(req.Context(), "user-7"))
	if got := shopperKey(req); got != "user:user-7" {
		t.Fatalf("expected user key got %s", got)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.2")
	if got := clientIP(req); got != "203.0.113.9" {
		t.Fatalf("expected forwarded ip got %s", got)
	}
}

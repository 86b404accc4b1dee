package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docrequest/internal/domain"

	"github.com/gin-gonic/gin"
)

type stubLimiter struct {
	decision domain.RateLimitDecision
	err      error
}

func (s stubLimiter) Allow(context.Context, string, int, time.Duration) (domain.RateLimitDecision, error) {
	return s.decision, s.err
}

func newTestRouter(h gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", h, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func serve(r *gin.Engine) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	return rec
}

func TestWriteErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.Validation("bad input", nil), http.StatusBadRequest, "VALIDATION_ERROR"},
		{domain.Conflict("already closed"), http.StatusConflict, "CONFLICT"},
		{fmt.Errorf("wrap: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrRequestClosed, http.StatusForbidden, "REQUEST_CLOSED"},
		{domain.ErrTokenMismatch, http.StatusUnauthorized, "TOKEN_MISMATCH"},
		{domain.ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
		{&domain.AuthzError{Code: domain.AuthzNotCampaignOwner, Err: domain.ErrForbidden}, http.StatusForbidden, domain.AuthzNotCampaignOwner},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		WriteError(c, tc.err)
		if rec.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
		}
		var resp ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Code != tc.code {
			t.Fatalf("%v: expected code %s, got %s", tc.err, tc.code, resp.Code)
		}
	}
}

func TestWriteErrorKeepsDomainMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	WriteError(c, domain.Validation("deadline is required", map[string]any{"index": 2}))

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "deadline is required" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if resp.Details["index"] != float64(2) {
		t.Fatalf("unexpected details %+v", resp.Details)
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"":             "",
	}
	for in, want := range cases {
		if got := extractBearerToken(in); got != want {
			t.Fatalf("extractBearerToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("2026-03-01")
	if err != nil {
		t.Fatalf("date only: %v", err)
	}
	if !got.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", got)
	}
	got, err = ParseTime("2026-03-01T10:00:00+02:00")
	if err != nil {
		t.Fatalf("rfc3339: %v", err)
	}
	if got.Hour() != 8 || got.Location() != time.UTC {
		t.Fatalf("expected UTC conversion, got %v", got)
	}
	if _, err := ParseTime("March 1"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRateLimitBlocksAndSetsHeaders(t *testing.T) {
	limiter := stubLimiter{decision: domain.RateLimitDecision{Allowed: false, Limit: 5, Remaining: 0, ResetAt: time.Now().Add(30 * time.Second)}}
	r := newTestRouter(RateLimit(limiter, domain.RateLimitPolicy{Name: "auth", Limit: 5, Window: time.Minute}, false))
	rec := serve(r)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("RateLimit-Limit") != "5" || rec.Header().Get("RateLimit-Remaining") != "0" {
		t.Fatalf("missing rate limit headers: %v", rec.Header())
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After")
	}
}

func TestRateLimitFailureModes(t *testing.T) {
	limiter := stubLimiter{err: errors.New("redis down")}
	policy := domain.RateLimitPolicy{Name: "api", Limit: 10, Window: time.Minute}

	if rec := serve(newTestRouter(RateLimit(limiter, policy, false))); rec.Code != http.StatusNoContent {
		t.Fatalf("fail open: expected 204, got %d", rec.Code)
	}
	rec := serve(newTestRouter(RateLimit(limiter, policy, true)))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("fail closed: expected 429, got %d", rec.Code)
	}
	if !json.Valid(rec.Body.Bytes()) {
		t.Fatalf("expected json body, got %s", rec.Body.String())
	}
}

type keyRecorder struct {
	keys []string
}

func (k *keyRecorder) Allow(_ context.Context, key string, limit int, _ time.Duration) (domain.RateLimitDecision, error) {
	k.keys = append(k.keys, key)
	return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
}

func TestRateLimitPerRouteBuckets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, perRoute := range []bool{false, true} {
		rec := &keyRecorder{}
		mw := RateLimit(rec, domain.RateLimitPolicy{Name: "auth", Limit: 5, Window: time.Minute, PerRoute: perRoute}, false)
		r := gin.New()
		ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
		r.POST("/a/:id", mw, ok)
		r.POST("/b", mw, ok)
		for _, path := range []string{"/a/1", "/a/2", "/b"} {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, path, nil))
		}
		if len(rec.keys) != 3 {
			t.Fatalf("perRoute=%v: expected 3 limiter calls, got %v", perRoute, rec.keys)
		}
		if rec.keys[0] != rec.keys[1] {
			t.Fatalf("perRoute=%v: same template should share a bucket: %v", perRoute, rec.keys)
		}
		if shared := rec.keys[0] == rec.keys[2]; shared == perRoute {
			t.Fatalf("perRoute=%v: unexpected bucket sharing across routes: %v", perRoute, rec.keys)
		}
	}
}

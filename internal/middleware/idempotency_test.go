package middleware_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelmuhia/booking-website/internal/middleware"
)

// fakeRedis is an in-memory RedisClient. Set err to simulate an outage.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newFakeRedis() *fakeRedis { return &fakeRedis{data: map[string]string{}} }

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = toString(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = toString(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func toString(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}

// countingHandler creates a resource and reports how often it ran.
type countingHandler struct {
	mu     sync.Mutex
	calls  int
	status int
}

func (c *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	c.calls++
	n := c.calls
	c.mu.Unlock()
	status := c.status
	if status == 0 {
		status = http.StatusCreated
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"call":%d,"echo":%q}`, n, body)
}

func idempotentPost(t *testing.T, h http.Handler, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(body))
	if key != "" {
		req.Header.Set(middleware.IdempotencyKeyHeader, key)
	}
	req = req.WithContext(middleware.WithPrincipal(req.Context(), middleware.Principal{UserID: "user-1"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newIdempotent(client middleware.RedisClient, next http.Handler) http.Handler {
	return middleware.NewIdempotency(middleware.IdempotencyConfig{
		Client: client,
		TTL:    time.Hour,
		Logger: discardLogger(),
	})(next)
}

func TestIdempotency_ReplaysCompletedResponse(t *testing.T) {
	next := &countingHandler{}
	h := newIdempotent(newFakeRedis(), next)

	first := idempotentPost(t, h, "key-1", `{"seats":[1]}`)
	second := idempotentPost(t, h, "key-1", `{"seats":[1]}`)

	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.Equal(t, "true", second.Header().Get(middleware.IdempotencyReplayedHeader))
	assert.Equal(t, 1, next.calls)
}

func TestIdempotency_DifferentBodyIsRejected(t *testing.T) {
	next := &countingHandler{}
	h := newIdempotent(newFakeRedis(), next)
	idempotentPost(t, h, "key-1", `{"seats":[1]}`)

	rec := idempotentPost(t, h, "key-1", `{"seats":[2]}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "idempotency_key_reused")
	assert.Equal(t, 1, next.calls)
}

func TestIdempotency_InProgressIsConflict(t *testing.T) {
	client := newFakeRedis()
	var h http.Handler
	var inner *httptest.ResponseRecorder
	h = newIdempotent(client, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A duplicate arriving while the first request is still running.
		inner = idempotentPost(t, h, "key-1", `{}`)
		w.WriteHeader(http.StatusCreated)
	}))

	idempotentPost(t, h, "key-1", `{}`)

	require.NotNil(t, inner)
	assert.Equal(t, http.StatusConflict, inner.Code)
}

func TestIdempotency_KeysAreScopedPerUser(t *testing.T) {
	next := &countingHandler{}
	h := newIdempotent(newFakeRedis(), next)
	idempotentPost(t, h, "key-1", `{}`)

	req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(`{}`))
	req.Header.Set(middleware.IdempotencyKeyHeader, "key-1")
	req = req.WithContext(middleware.WithPrincipal(req.Context(), middleware.Principal{UserID: "user-2"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 2, next.calls)
}

func TestIdempotency_ServerErrorIsNotCached(t *testing.T) {
	next := &countingHandler{status: http.StatusInternalServerError}
	h := newIdempotent(newFakeRedis(), next)

	idempotentPost(t, h, "key-1", `{}`)
	next.status = http.StatusCreated
	rec := idempotentPost(t, h, "key-1", `{}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 2, next.calls)
}

func TestIdempotency_PassThrough(t *testing.T) {
	tests := []struct {
		name   string
		method string
		key    string
	}{
		{"no key", http.MethodPost, ""},
		{"not a post", http.MethodDelete, "key-1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next := &countingHandler{}
			h := newIdempotent(newFakeRedis(), next)
			for range 2 {
				req := httptest.NewRequest(tc.method, "/reservations/x", strings.NewReader(`{}`))
				if tc.key != "" {
					req.Header.Set(middleware.IdempotencyKeyHeader, tc.key)
				}
				h.ServeHTTP(httptest.NewRecorder(), req)
			}
			assert.Equal(t, 2, next.calls)
		})
	}
}

func TestIdempotency_FailsOpenWhenStoreIsDown(t *testing.T) {
	client := newFakeRedis()
	client.err = errors.New("dial tcp: connection refused")
	next := &countingHandler{}
	h := newIdempotent(client, next)

	first := idempotentPost(t, h, "key-1", `{}`)
	second := idempotentPost(t, h, "key-1", `{}`)

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, 2, next.calls)
}

func TestIdempotency_KeyTooLong(t *testing.T) {
	h := newIdempotent(newFakeRedis(), &countingHandler{})

	rec := idempotentPost(t, h, strings.Repeat("k", 256), `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// IdempotencyKeyHeader names the client-chosen key for a POST.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayedHeader is set on responses served from the store.
	IdempotencyReplayedHeader = "Idempotency-Replayed"

	idempotencyPrefix = "idempotency:"
	processingTTL     = 60 * time.Second
	maxKeyLength      = 255
)

// RedisClient is the subset of *redis.Client the idempotency store uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type idempotencyStatus string

const (
	statusProcessing idempotencyStatus = "processing"
	statusCompleted  idempotencyStatus = "completed"
)

type idempotencyRecord struct {
	Status      idempotencyStatus `json:"status"`
	RequestHash string            `json:"request_hash"`
	StatusCode  int               `json:"status_code,omitempty"`
	ContentType string            `json:"content_type,omitempty"`
	Body        []byte            `json:"body,omitempty"`
}

// IdempotencyConfig configures NewIdempotency.
type IdempotencyConfig struct {
	Client RedisClient
	// TTL is how long a completed response is kept for replay.
	TTL    time.Duration
	Logger *slog.Logger
}

// NewIdempotency replays the stored response of a POST repeated with the same
// Idempotency-Key. A key reused with a different request gets 422; a key whose
// first request is still running gets 409. Requests without a key pass
// through, and the middleware fails open when Redis is unavailable.
//
// Keys are scoped per user, so it must run after NewAuthenticator.
func NewIdempotency(cfg IdempotencyConfig) func(http.Handler) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyKeyHeader)
			if r.Method != http.MethodPost || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxKeyLength {
				writeError(w, http.StatusBadRequest, "invalid_idempotency_key", "Idempotency-Key is too long")
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			ctx := r.Context()
			user := UserFrom(ctx)
			storeKey := idempotencyPrefix + user + ":" + key
			hash := requestHash(r.Method, r.URL.Path, user, body)

			pending, _ := json.Marshal(idempotencyRecord{Status: statusProcessing, RequestHash: hash})
			acquired, err := cfg.Client.SetNX(ctx, storeKey, pending, processingTTL).Result()
			if err != nil {
				log.WarnContext(ctx, "idempotency store unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !acquired {
				replayExisting(ctx, w, cfg.Client, storeKey, hash, log, func() { next.ServeHTTP(w, r) })
				return
			}

			rec := &capturingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			// Server errors are not cached so the client may retry.
			if rec.status >= http.StatusInternalServerError {
				if err := cfg.Client.Del(ctx, storeKey).Err(); err != nil {
					log.WarnContext(ctx, "idempotency key release failed", "error", err)
				}
				return
			}
			done, _ := json.Marshal(idempotencyRecord{
				Status:      statusCompleted,
				RequestHash: hash,
				StatusCode:  rec.status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			})
			if err := cfg.Client.Set(ctx, storeKey, done, cfg.TTL).Err(); err != nil {
				log.WarnContext(ctx, "idempotency response not stored", "error", err)
			}
		})
	}
}

func replayExisting(ctx context.Context, w http.ResponseWriter, client RedisClient, storeKey, hash string, log *slog.Logger, passThrough func()) {
	raw, err := client.Get(ctx, storeKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SetNX and Get.
		passThrough()
		return
	}
	if err != nil {
		log.WarnContext(ctx, "idempotency store unavailable", "error", err)
		passThrough()
		return
	}
	var stored idempotencyRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		log.WarnContext(ctx, "idempotency record unreadable", "error", err)
		passThrough()
		return
	}
	if stored.RequestHash != hash {
		writeError(w, http.StatusUnprocessableEntity, "idempotency_key_reused",
			"Idempotency-Key was already used with a different request")
		return
	}
	if stored.Status == statusProcessing {
		writeError(w, http.StatusConflict, "request_in_progress",
			"a request with this Idempotency-Key is still being processed")
		return
	}
	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set(IdempotencyReplayedHeader, "true")
	w.WriteHeader(stored.StatusCode)
	_, _ = w.Write(stored.Body)
}

func requestHash(method, path, user string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(user))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// capturingWriter copies the response body while writing it through.
type capturingWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (c *capturingWriter) WriteHeader(code int) {
	if !c.wroteHeader {
		c.status = code
		c.wroteHeader = true
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *capturingWriter) Write(b []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	IdempotencyHeader  = "Idempotency-Key"
	idempotencyTTL     = 24 * time.Hour
	idempotencyPending = "pending"
)

type storedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// idempotencyKey scopes a client key to the caller and the route
func idempotencyKey(r *http.Request, key string) string {
	return fmt.Sprintf("idempotency:%s:%s:%s:%s", UserIDFromContext(r.Context()), r.Method, r.URL.Path, key)
}

func release(ctx context.Context, rdb *redis.Client, redisKey string) {
	if err := rdb.Del(context.WithoutCancel(ctx), redisKey).Err(); err != nil {
		log.Printf("[IDEMPOTENCY] failed to release %s: %v", redisKey, err)
	}
}

// Idempotency replays the stored response when a request is retried with the
// same Idempotency-Key. Without Redis, or without the header, requests pass
// straight through.
func Idempotency(rdb *redis.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rdb == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			redisKey := idempotencyKey(r, key)

			acquired, err := rdb.SetNX(ctx, redisKey, idempotencyPending, idempotencyTTL).Result()
			if err != nil {
				log.Printf("[IDEMPOTENCY] redis unavailable, processing %s without replay protection: %v", key, err)
				next.ServeHTTP(w, r)
				return
			}

			if !acquired {
				replay(ctx, w, rdb, redisKey)
				return
			}

			// a panicking handler must not leave the key pending until it expires
			defer func() {
				if p := recover(); p != nil {
					release(ctx, rdb, redisKey)
					panic(p)
				}
			}()

			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			// the key outlives a cancelled request context
			saveCtx := context.WithoutCancel(ctx)
			if rec.status >= http.StatusInternalServerError {
				release(ctx, rdb, redisKey)
				return
			}

			data, _ := json.Marshal(storedResponse{Status: rec.status, Body: rec.body.Bytes()})
			if err := rdb.Set(saveCtx, redisKey, data, idempotencyTTL).Err(); err != nil {
				log.Printf("[IDEMPOTENCY] failed to store response for %s: %v", redisKey, err)
			}
		})
	}
}

func replay(ctx context.Context, w http.ResponseWriter, rdb *redis.Client, redisKey string) {
	data, err := rdb.Get(ctx, redisKey).Bytes()
	if err != nil {
		log.Printf("[IDEMPOTENCY] failed to read %s: %v", redisKey, err)
		http.Error(w, "Unable to verify idempotency key", http.StatusServiceUnavailable)
		return
	}

	if string(data) == idempotencyPending {
		http.Error(w, "A request with this Idempotency-Key is still being processed", http.StatusConflict)
		return
	}

	var stored storedResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Printf("[IDEMPOTENCY] corrupt entry %s: %v", redisKey, err)
		http.Error(w, "Unable to verify idempotency key", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(stored.Status)
	w.Write(stored.Body)
}

package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

func createdHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true}`))
	})
}

func idempotentRequest(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/walk-requests", nil)
	req.Header.Set(IdempotencyHeader, key)
	return req.WithContext(WithUser(req.Context(), "client-1", RoleClient))
}

func TestIdempotency(t *testing.T) {
	redisKey := "idempotency:client-1:POST:/api/v1/walk-requests:abc"
	stored, _ := json.Marshal(storedResponse{Status: http.StatusCreated, Body: []byte(`{"success":true}`)})

	t.Run("first request is processed and stored", func(t *testing.T) {
		redisClient, mock := redismock.NewClientMock()
		calls := 0

		mock.ExpectSetNX(redisKey, idempotencyPending, idempotencyTTL).SetVal(true)
		mock.ExpectSet(redisKey, stored, idempotencyTTL).SetVal("OK")

		w := httptest.NewRecorder()
		Idempotency(redisClient)(createdHandler(&calls)).ServeHTTP(w, idempotentRequest("abc"))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("retry replays the stored response", func(t *testing.T) {
		redisClient, mock := redismock.NewClientMock()
		calls := 0

		mock.ExpectSetNX(redisKey, idempotencyPending, idempotencyTTL).SetVal(false)
		mock.ExpectGet(redisKey).SetVal(string(stored))

		w := httptest.NewRecorder()
		Idempotency(redisClient)(createdHandler(&calls)).ServeHTTP(w, idempotentRequest("abc"))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, `{"success":true}`, w.Body.String())
		assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))
		assert.Zero(t, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent duplicate is rejected", func(t *testing.T) {
		redisClient, mock := redismock.NewClientMock()
		calls := 0

		mock.ExpectSetNX(redisKey, idempotencyPending, idempotencyTTL).SetVal(false)
		mock.ExpectGet(redisKey).SetVal(idempotencyPending)

		w := httptest.NewRecorder()
		Idempotency(redisClient)(createdHandler(&calls)).ServeHTTP(w, idempotentRequest("abc"))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Zero(t, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("server errors release the key", func(t *testing.T) {
		redisClient, mock := redismock.NewClientMock()
		failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		mock.ExpectSetNX(redisKey, idempotencyPending, idempotencyTTL).SetVal(true)
		mock.ExpectDel(redisKey).SetVal(1)

		w := httptest.NewRecorder()
		Idempotency(redisClient)(failing).ServeHTTP(w, idempotentRequest("abc"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("panicking handler releases the key", func(t *testing.T) {
		redisClient, mock := redismock.NewClientMock()
		panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})

		mock.ExpectSetNX(redisKey, idempotencyPending, idempotencyTTL).SetVal(true)
		mock.ExpectDel(redisKey).SetVal(1)

		w := httptest.NewRecorder()
		assert.PanicsWithValue(t, "boom", func() {
			Idempotency(redisClient)(panicking).ServeHTTP(w, idempotentRequest("abc"))
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("same key on another route is a different entry", func(t *testing.T) {
		redisClient, mock := redismock.NewClientMock()
		calls := 0

		otherKey := "idempotency:client-1:POST:/api/v1/payments/intent:abc"
		mock.ExpectSetNX(otherKey, idempotencyPending, idempotencyTTL).SetVal(true)
		mock.ExpectSet(otherKey, stored, idempotencyTTL).SetVal("OK")

		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/intent", nil)
		req.Header.Set(IdempotencyHeader, "abc")
		req = req.WithContext(WithUser(req.Context(), "client-1", RoleClient))

		w := httptest.NewRecorder()
		Idempotency(redisClient)(createdHandler(&calls)).ServeHTTP(w, req)

		assert.Equal(t, 1, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis errors fall through", func(t *testing.T) {
		redisClient, mock := redismock.NewClientMock()
		calls := 0

		mock.ExpectSetNX(redisKey, idempotencyPending, idempotencyTTL).SetErr(errors.New("connection refused"))

		w := httptest.NewRecorder()
		Idempotency(redisClient)(createdHandler(&calls)).ServeHTTP(w, idempotentRequest("abc"))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no header, no redis calls", func(t *testing.T) {
		redisClient, mock := redismock.NewClientMock()
		calls := 0

		req := httptest.NewRequest(http.MethodPost, "/api/v1/walk-requests", nil)
		w := httptest.NewRecorder()
		Idempotency(redisClient)(createdHandler(&calls)).ServeHTTP(w, req)

		assert.Equal(t, 1, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil client disables the middleware", func(t *testing.T) {
		calls := 0
		w := httptest.NewRecorder()
		Idempotency(nil)(createdHandler(&calls)).ServeHTTP(w, idempotentRequest("abc"))
		assert.Equal(t, 1, calls)
	})
}

package middleware

import (
	"bytes"
	"errors"
	"time"

	"subpay/internal/core/domain"
	"subpay/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// HeaderIdempotencyKey carries the client's idempotency key.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotencyReplayed marks a response served from the cache.
	HeaderIdempotencyReplayed = "X-Idempotency-Replayed"
)

// bufferedWriter tees the response body so the middleware can store it
// after the handler finishes.
type bufferedWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency caches responses of mutating requests by their Idempotency-Key
// header and replays them byte-for-byte on retries. Requests without the
// header, and non-mutating methods, pass through untouched.
//
// The store's uniqueness constraint is the only concurrency control: when
// concurrent requests race on a fresh key, each executes the handler and the
// first save wins; later saves hit the duplicate-key error and are dropped.
// On a store read failure the middleware fails open: the handler runs and
// nothing is saved, trading replay protection for availability.
func Idempotency(store ports.IdempotencyStore, ttl time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isMutating(c.Request.Method) {
			c.Next()
			return
		}
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		record, err := store.Get(c.Request.Context(), key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("idempotency lookup failed, executing without replay protection")
			c.Next()
			return
		}

		if record != nil && !record.IsExpired() {
			log.Debug().
				Str("key", key).
				Int("status", record.StatusCode).
				Msg("idempotent replay")
			c.Header(HeaderIdempotencyReplayed, "true")
			c.Data(record.StatusCode, record.ContentType, record.ResponseBody)
			c.Abort()
			return
		}

		// Miss (or expired record, which reads as a miss): run the handler
		// with a buffering writer and persist what it produced.
		writer := &bufferedWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		now := time.Now().UTC()
		saveErr := store.Save(c.Request.Context(), &domain.IdempotencyRecord{
			Key:           key,
			RequestMethod: c.Request.Method,
			RequestPath:   c.Request.URL.Path,
			StatusCode:    writer.Status(),
			ContentType:   writer.Header().Get("Content-Type"),
			ResponseBody:  writer.body.Bytes(),
			CreatedAt:     now,
			ExpiresAt:     now.Add(ttl),
		})
		if saveErr != nil {
			if errors.Is(saveErr, ports.ErrDuplicateIdempotencyKey) {
				// Concurrent request or expired record holding the key; the
				// stored response stays authoritative.
				log.Debug().Str("key", key).Msg("idempotency record already stored")
				return
			}
			log.Warn().Err(saveErr).Str("key", key).Msg("failed to save idempotency record")
		}
	}
}

func isMutating(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	}
	return false
}

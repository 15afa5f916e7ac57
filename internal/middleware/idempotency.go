package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-opsportal/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type IdempotencyConfig struct {
	TTL     time.Duration
	LockTTL time.Duration
}

type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated POST carrying the
// same Idempotency-Key from the same actor. A concurrent duplicate gets 409
// while the first request still holds the lock. Server errors are not
// stored, so the client may retry them.
func Idempotency(rdb *redis.Client, cfg IdempotencyConfig, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	logger = logger.Named("middleware.idempotency")
	if rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}

	return func(c *gin.Context) {
		idempKey := c.GetHeader(HeaderIdempotencyKey)
		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		actorID := c.GetString(ContextActorID)
		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), actorID, idempKey)
		lockKey := cacheKey + ":lock"

		if val, err := rdb.Get(ctx, cacheKey).Result(); err == nil {
			var cached cachedResponse
			if json.Unmarshal([]byte(val), &cached) == nil {
				c.Header("Idempotent-Replayed", "true")
				c.Data(cached.Status, "application/json; charset=utf-8", cached.Body)
				c.Abort()
				return
			}
		} else if err != redis.Nil {
			logger.Warn("idempotency lookup failed", zap.String("key", cacheKey), zap.Error(err))
			c.Next()
			return
		}

		isNew, err := rdb.SetNX(ctx, lockKey, "locked", cfg.LockTTL).Result()
		if err != nil {
			logger.Warn("idempotency lock failed", zap.String("key", lockKey), zap.Error(err))
			c.Next()
			return
		}
		if !isNew {
			response.Error(c, http.StatusConflict, "PROCESSING", "A request with this idempotency key is still being processed", nil)
			c.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		if status := rec.Status(); status < http.StatusInternalServerError {
			data, err := json.Marshal(cachedResponse{Status: status, Body: rec.body.Bytes()})
			if err == nil {
				if err := rdb.Set(ctx, cacheKey, string(data), cfg.TTL).Err(); err != nil {
					logger.Warn("idempotency store failed", zap.String("key", cacheKey), zap.Error(err))
				}
			}
		}
		if err := rdb.Del(ctx, lockKey).Err(); err != nil {
			logger.Warn("idempotency unlock failed", zap.String("key", lockKey), zap.Error(err))
		}
	}
}

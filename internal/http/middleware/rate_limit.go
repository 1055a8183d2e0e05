package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/ignatzorin/sportmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/sportmarket-backend/internal/logger"
)

// NewLimiterStore возвращает общее хранилище счётчиков в Redis или память процесса.
func NewLimiterStore(client *redis.Client) limiter.Store {
	if client != nil {
		store, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: "ratelimit"})
		if err == nil {
			return store
		}
		logger.Log.WithError(err).Warn("ratelimit: redis недоступен, используется память процесса")
	}
	return memory.NewStore()
}

// RateLimitMiddleware ограничивает количество запросов. Ключ: пользователь, если он
// известен, иначе IP. По умолчанию 10 запросов в минуту.
func RateLimitMiddleware(store limiter.Store, limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = time.Minute
	}
	if store == nil {
		store = memory.NewStore()
	}

	instance := limiter.New(store, limiter.Rate{Period: period, Limit: limit})

	return func(c *gin.Context) {
		key := c.FullPath() + ":" + c.ClientIP()
		if r := RequesterFrom(c); !r.IsAnonymous() {
			key = c.FullPath() + ":" + r.ID.String()
		}

		lctx, err := instance.Get(c.Request.Context(), key)
		if err != nil {
			// Сбой хранилища не блокирует запросы.
			logger.Log.WithFields(logrus.Fields{"key": key}).WithError(err).Warn("ratelimit: ошибка хранилища")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", lctx.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", lctx.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", lctx.Reset))

		if lctx.Reached {
			response.TooManyRequests(c, "слишком много запросов, попробуйте позже")
			return
		}

		c.Next()
	}
}

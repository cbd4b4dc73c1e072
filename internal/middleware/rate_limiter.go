package middleware

import (
	"net/http"
	"strconv"
	"time"

	"hersis/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// NewLimiter builds an in-memory per-key limiter allowing perMinute requests.
func NewLimiter(perMinute int64) *limiter.Limiter {
	if perMinute <= 0 {
		perMinute = 1000
	}
	return limiter.New(memory.NewStore(), limiter.Rate{Period: time.Minute, Limit: perMinute})
}

// RateLimit limits requests per client IP with the given limiter.
// A store error lets the request through.
func RateLimit(l *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		ctx, err := l.Get(c.Request.Context(), ip)
		if err != nil {
			log.Error().Err(err).Str("ip", ip).Msg("rate limiter: store error")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
		if ctx.Reached {
			log.Warn().Str("ip", ip).Int64("limit", ctx.Limit).Msg("rate limit exceeded")
			c.Header("Retry-After", strconv.FormatInt(ctx.Reset-time.Now().Unix(), 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Demasiadas solicitudes. Intente nuevamente en un momento."))
			return
		}
		c.Next()
	}
}

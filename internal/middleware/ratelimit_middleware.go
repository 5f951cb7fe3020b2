package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"campuschat/internal/ratelimit"
	"campuschat/internal/services"
	"campuschat/internal/transport/httpdto"
)

// APIRateLimit caps requests per caller across the whole API surface. The
// per-conversation send limit is enforced separately inside the message
// service; this is a coarse outer guard keyed by user, falling back to
// client IP before authentication.
func APIRateLimit(store ratelimit.CounterStore, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:api:ip:" + c.ClientIP()
		if actor, err := services.ActorFromContext(c.Request.Context()); err == nil {
			key = fmt.Sprintf("ratelimit:api:%s:%s", actor.SchoolID, actor.UserID)
		}

		result, err := store.Incr(c.Request.Context(), key, limit, window)
		if err != nil {
			// Counter backend failures never take the API down.
			c.Next()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("rate limit exceeded", "RATE_LIMITED"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func setRateLimitHeaders(c *gin.Context, result *ratelimit.Result) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.RetryAfter.Seconds()), 10))
}

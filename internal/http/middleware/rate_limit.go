package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/maia-backend/internal/http/response"
	"github.com/yungbote/maia-backend/internal/observability"
	"github.com/yungbote/maia-backend/internal/platform/ctxutil"
	"github.com/yungbote/maia-backend/internal/platform/logger"
)

var errTooManyRequests = errors.New("too many messages, slow down")

// WindowCounter is the fixed-window store behind ChatRateLimit.
type WindowCounter interface {
	Hit(ctx context.Context, subject string, window time.Duration) (int64, time.Duration, error)
}

// ChatRateLimit caps requests per authenticated user per window. It must run
// after RequireAuth. A nil counter or a non-positive limit disables it; store
// failures let the request through.
func ChatRateLimit(log *logger.Logger, counter WindowCounter, limit int, window time.Duration, m *observability.Metrics) gin.HandlerFunc {
	if counter == nil || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if window <= 0 {
		window = time.Minute
	}
	log = log.With("middleware", "ChatRateLimit")
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil {
			c.Next()
			return
		}
		n, resetIn, err := counter.Hit(c.Request.Context(), "chat:"+rd.UserID.String(), window)
		if err != nil {
			log.Warn("rate limit store unavailable", "error", err)
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		remaining := int64(limit) - n
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if n > int64(limit) {
			m.RateLimited()
			c.Header("Retry-After", strconv.Itoa(int(resetIn.Seconds())+1))
			response.RespondError(c, http.StatusTooManyRequests, "rate_limited", errTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}

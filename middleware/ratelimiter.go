package middleware

import (
	"net/http"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultIPLookups is the order in which the client address is resolved
// when no proxy setup is configured.
var DefaultIPLookups = []string{"RemoteAddr", "X-Forwarded-For", "X-Real-IP"}

// RateLimit configures RateLimitMiddleware.
type RateLimit struct {
	// PerMinute is the number of contact submissions one client may send
	// per minute. It is also the burst size.
	PerMinute float64
	// IPLookups lists where the client address is read from, first match
	// wins. Behind a proxy put its header first.
	IPLookups []string
	Logger    *zap.Logger
}

// RateLimitMiddleware limits submissions per client address and answers
// 429 once a client is over its budget.
func RateLimitMiddleware(rl RateLimit) gin.HandlerFunc {
	logger := rl.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	lookups := rl.IPLookups
	if len(lookups) == 0 {
		lookups = DefaultIPLookups
	}

	lmt := tollbooth.NewLimiter(rl.PerMinute/60.0, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Minute})
	lmt.SetBurst(max(1, int(rl.PerMinute)))
	lmt.SetIPLookups(lookups)
	lmt.SetMethods([]string{http.MethodPost})

	return func(c *gin.Context) {
		if httpError := tollbooth.LimitByRequest(lmt, c.Writer, c.Request); httpError != nil {
			logger.Info("contact submission rate limited", zap.String("ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, Message{
				Status: "Request Failed",
				Body:   "Too many messages, try again later.",
			})
			return
		}
		c.Next()
	}
}

type Message struct {
	Status string `json:"status"`
	Body   string `json:"body"`
}

package middlewares

import (
	"sync"
	"time"

	"MediCore/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 30 * time.Minute

// RateLimiterConfig allows Requests per Window from each client IP.
type RateLimiterConfig struct {
	Requests int
	Window   time.Duration
	Message  string
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterData holds one token bucket per client IP.
type rateLimiterData struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	lastSweep time.Time
}

func (d *rateLimiterData) allow(ip string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if now.Sub(d.lastSweep) > limiterIdleTTL {
		for key, client := range d.clients {
			if now.Sub(client.lastSeen) > limiterIdleTTL {
				delete(d.clients, key)
			}
		}
		d.lastSweep = now
	}

	client, ok := d.clients[ip]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(d.limit, d.burst)}
		d.clients[ip] = client
	}
	client.lastSeen = now
	return client.limiter.AllowN(now, 1)
}

// NewRateLimiterMiddleware creates a per-client rate limiter middleware
func NewRateLimiterMiddleware(config RateLimiterConfig) gin.HandlerFunc {
	if config.Requests <= 0 || config.Window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if config.Message == "" {
		config.Message = "Too many requests, please try again later"
	}
	data := &rateLimiterData{
		clients:   make(map[string]*clientLimiter),
		limit:     rate.Every(config.Window / time.Duration(config.Requests)),
		burst:     config.Requests,
		lastSweep: time.Now(),
	}

	return func(c *gin.Context) {
		if !data.allow(c.ClientIP(), time.Now()) {
			c.Header("Retry-After", "60")
			abortWithError(c, utils.NewAPIError(utils.KindRateLimited, config.Message))
			return
		}
		c.Next()
	}
}

package sandbox

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

/*
ipRateLimiter keeps one token bucket per client address, mimicking the
per-key request ceiling of the real API.
*/
type ipRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func newIPRateLimiter(requestsPerSecond float64, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		clients: map[string]*rate.Limiter{},
		limit:   rate.Limit(requestsPerSecond),
		burst:   burst,
	}
}

func (l *ipRateLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.clients[ip]
	if !exists {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.clients[ip] = limiter
	}
	return limiter
}

// Middleware answers 429 once a client runs out of tokens.
func (l *ipRateLimiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !l.get(c.RealIP()).Allow() {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"STATUS": "Error", "MESSAGE": "Too many requests"})
		}
		return next(c)
	}
}

package middleware

import (
	"sync"

	"github.com/akolanti/DocuMind/internal/config"
	"golang.org/x/time/rate"
)

type IPRateLimiter struct {
	ips       map[string]*rate.Limiter
	mu        sync.Mutex
	rateLimit rate.Limit
	burstRate int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{ips: make(map[string]*rate.Limiter), rateLimit: r, burstRate: b}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()
	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.rateLimit, i.burstRate)
		i.ips[ip] = limiter
	}
	return limiter
}

//TODO: limiters are per process and never evicted,
// move them to redis once there is more than one replica

var (
	settingsMu      sync.RWMutex
	authSettings    = config.AuthSettings{Token: config.AuthToken, Bypass: config.NoAuthBypass}
	limiterInstance = NewIPRateLimiter(rate.Limit(config.RATE_LIMIT_PER_SECOND), config.BURST_RATE_LIMIT_PER_SECOND)
)

// Configure swaps in the auth token and rate limits from the loaded settings.
func Configure(s config.AuthSettings) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	authSettings = s
	if s.RatePerSecond > 0 && s.Burst > 0 {
		limiterInstance = NewIPRateLimiter(rate.Limit(s.RatePerSecond), s.Burst)
	}
}

func currentAuth() config.AuthSettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return authSettings
}

func currentLimiter() *IPRateLimiter {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return limiterInstance
}

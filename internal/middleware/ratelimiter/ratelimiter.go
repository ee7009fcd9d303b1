package ratelimiter

import (
	"sync"
	"time"
)

// RateLimiter implements a token bucket rate limiter
type RateLimiter struct {
	tokens     float64
	capacity   float64
	rate       float64
	lastRefill time.Time
	mu         sync.Mutex
	timer      *time.Timer
	identity   string           // for cleanup
	parent     *UserRateLimiter // for cleanup
}

// UserRateLimiter manages rate limiting for multiple identities
// (pubkeys or IPs).
type UserRateLimiter struct {
	limiters       map[string]*RateLimiter
	mu             sync.RWMutex
	rate           float64
	capacity       float64
	expirationTime time.Duration
}

func New(rate float64, capacity float64, expirationTime time.Duration) *UserRateLimiter {
	return &UserRateLimiter{
		limiters:       make(map[string]*RateLimiter),
		rate:           rate,
		capacity:       capacity,
		expirationTime: expirationTime,
	}
}

func OnceInSecond() *UserRateLimiter { return New(1, 1, time.Hour) }
func OnceInMinute() *UserRateLimiter { return New(1.0/60.0, 1, time.Hour) }
func Rps10() *UserRateLimiter        { return New(10, 10, time.Hour) }

func (u *UserRateLimiter) cleanup(identity string) {
	u.mu.Lock()
	delete(u.limiters, identity)
	u.mu.Unlock()
}

func (rl *RateLimiter) resetTimer() {
	if rl.timer != nil {
		rl.timer.Stop()
	}
	rl.timer = time.AfterFunc(rl.parent.expirationTime, func() {
		rl.parent.cleanup(rl.identity)
	})
}

func (u *UserRateLimiter) getLimiter(identity string) *RateLimiter {
	u.mu.RLock()
	limiter, exists := u.limiters[identity]
	u.mu.RUnlock()

	if exists {
		limiter.resetTimer()
		return limiter
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	// Double-check after acquiring write lock
	limiter, exists = u.limiters[identity]
	if exists {
		limiter.resetTimer()
		return limiter
	}

	limiter = &RateLimiter{
		tokens:     u.capacity,
		capacity:   u.capacity,
		rate:       u.rate,
		lastRefill: time.Now(),
		identity:   identity,
		parent:     u,
	}
	limiter.resetTimer()
	u.limiters[identity] = limiter
	return limiter
}

// Allow reports whether one request from identity may proceed now.
func (u *UserRateLimiter) Allow(identity string) bool {
	limiter := u.getLimiter(identity)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(limiter.lastRefill).Seconds()
	limiter.tokens += elapsed * limiter.rate
	if limiter.tokens > limiter.capacity {
		limiter.tokens = limiter.capacity
	}
	limiter.lastRefill = now

	if limiter.tokens >= 1 {
		limiter.tokens--
		return true
	}
	return false
}

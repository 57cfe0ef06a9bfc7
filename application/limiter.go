package application

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterStore keeps one token bucket per key and forgets keys that have been
// idle for longer than ttl
type LimiterStore struct {
	mu       sync.Mutex
	limiters map[string]*keyLimiter
	r        rate.Limit
	b        int
	ttl      time.Duration
	now      func() time.Time
}

type keyLimiter struct {
	lim     *rate.Limiter
	lastHit time.Time
}

func NewLimiterStore(r rate.Limit, burst int, ttl time.Duration) *LimiterStore {
	return &LimiterStore{
		limiters: make(map[string]*keyLimiter),
		r:        r,
		b:        burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

// NewCommandLimiter allows a burst of three username submissions and then one
// every five seconds
func NewCommandLimiter() *LimiterStore {
	return NewLimiterStore(rate.Every(5*time.Second), 3, 10*time.Minute)
}

// NewBumpCooldown allows one direct bump per member per cooldown
func NewBumpCooldown(cooldown time.Duration) *LimiterStore {
	if cooldown <= 0 {
		return NewLimiterStore(rate.Inf, 1, time.Minute)
	}
	return NewLimiterStore(rate.Every(cooldown), 1, cooldown*2)
}

// Allow reports whether key may act now, consuming a token if so
func (s *LimiterStore) Allow(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// lazy cleanup
	for k, v := range s.limiters {
		if now.Sub(v.lastHit) > s.ttl {
			delete(s.limiters, k)
		}
	}

	kl, ok := s.limiters[key]
	if !ok {
		kl = &keyLimiter{lim: rate.NewLimiter(s.r, s.b)}
		s.limiters[key] = kl
	}

	kl.lastHit = now
	return kl.lim.AllowN(now, 1)
}

// Len returns the number of tracked keys
func (s *LimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

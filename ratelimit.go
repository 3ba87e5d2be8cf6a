package restful

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the RateLimit middleware.
type RateLimitConfig struct {
	Rate            float64                                      // requests per second
	Burst           int                                          // max burst
	KeyFunc         func(r *http.Request) string                 // default: remote IP
	OnLimit         func(w http.ResponseWriter, r *http.Request) // default: 429 problem response
	CleanupInterval time.Duration                                // how often to prune idle limiters (default: 1m)
	MaxIdle         time.Duration                                // remove limiters idle longer than this (default: 5m)
}

// RateLimit returns middleware that applies per-key token bucket limiting.
// Limited requests get a Retry-After header with the seconds until a token
// is available.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = remoteIP
	}
	if cfg.OnLimit == nil {
		cfg.OnLimit = func(w http.ResponseWriter, _ *http.Request) {
			writeProblem(w, Error(http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests)))
		}
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.MaxIdle <= 0 {
		cfg.MaxIdle = 5 * time.Minute
	}

	set := &limiterSet{
		limit:    rate.Limit(cfg.Rate),
		burst:    cfg.Burst,
		interval: cfg.CleanupInterval,
		maxIdle:  cfg.MaxIdle,
		entries:  make(map[string]*limiterEntry),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			limiter := set.get(cfg.KeyFunc(r), now)

			res := limiter.ReserveN(now, 1)
			if delay := res.DelayFrom(now); !res.OK() || delay > 0 {
				res.CancelAt(now)
				w.Header().Set("Retry-After", retryAfter(delay, res.OK()))
				cfg.OnLimit(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// limiterSet holds one limiter per key and lazily prunes idle ones.
type limiterSet struct {
	limit    rate.Limit
	burst    int
	interval time.Duration
	maxIdle  time.Duration

	mu          sync.Mutex
	entries     map[string]*limiterEntry
	lastCleanup time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (s *limiterSet) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastCleanup) >= s.interval {
		for k, e := range s.entries {
			if now.Sub(e.lastSeen) > s.maxIdle {
				delete(s.entries, k)
			}
		}
		s.lastCleanup = now
	}

	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

func retryAfter(delay time.Duration, ok bool) string {
	if !ok || delay <= 0 {
		return "1"
	}
	return strconv.Itoa(int(math.Ceil(delay.Seconds())))
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

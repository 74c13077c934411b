package api

import (
	"net/http"
	"sync"
	"time"

	"careercraft/internal/config"
	"careercraft/internal/domain"
	"careercraft/internal/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// rateLimiter keeps one token bucket per client key.
type rateLimiter struct {
	limiters  sync.Map // map[string]*rate.Limiter
	cfg       config.APIRateLimitConfig
	keyHeader string
}

func newRateLimiter(cfg config.APIRateLimitConfig, keyHeader string) *rateLimiter {
	return &rateLimiter{cfg: cfg, keyHeader: keyHeader}
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

func (l *rateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.cfg.RPS <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		if !l.getLimiter(clientKey(r, l.keyHeader)).Allow() {
			writeError(w, http.StatusTooManyRequests, domain.KindRateLimited, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// submissionThrottle limits public submissions per client address and
// scope. A throttle failure lets the request through.
func submissionThrottle(t domain.Throttle, scope string, limit int, window time.Duration, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if t == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			allowed, err := t.Allow(r.Context(), scope+":"+ip, limit, window)
			if err != nil {
				logger.Error().Err(err).Str("scope", scope).Msg("Throttle check failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				metrics.IncThrottled()
				logger.Warn().Str("scope", scope).Str("remote", ip).Msg("Submission throttled")
				writeError(w, http.StatusTooManyRequests, domain.KindRateLimited, "Too many submissions, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

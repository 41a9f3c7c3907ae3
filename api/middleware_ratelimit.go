package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an unused bucket is kept before it is evicted
const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands out one token bucket per client IP
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int

	// forwarding headers are only read when the peer is one of these
	trustedProxies map[string]bool
	lastSweep      time.Time
	now            func() time.Time
}

// NewIPRateLimiter creates a limiter allowing rps requests per second with the given
// burst per IP. X-Forwarded-For and X-Real-IP are honoured only when the direct peer
// is listed in trustedProxies.
func NewIPRateLimiter(rps float64, burst int, trustedProxies ...string) *IPRateLimiter {
	trusted := make(map[string]bool, len(trustedProxies))
	for _, p := range trustedProxies {
		if p = strings.TrimSpace(p); p != "" {
			trusted[p] = true
		}
	}
	return &IPRateLimiter{
		visitors:       make(map[string]*visitor),
		rate:           rate.Limit(rps),
		burst:          burst,
		trustedProxies: trusted,
		now:            time.Now,
	}
}

// GetLimiter returns the bucket for ip, creating it on first use. Buckets idle for
// longer than limiterIdleTTL are swept at most once per TTL.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()
	now := i.now()
	if now.Sub(i.lastSweep) >= limiterIdleTTL {
		i.sweep(now)
	}
	v, ok := i.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(i.rate, i.burst)}
		i.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (i *IPRateLimiter) sweep(now time.Time) {
	for ip, v := range i.visitors {
		if now.Sub(v.lastSeen) >= limiterIdleTTL {
			delete(i.visitors, ip)
		}
	}
	i.lastSweep = now
}

// Len reports how many client buckets are held
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.visitors)
}

// Middleware answers 429 once a client IP exhausts its bucket
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := i.clientIP(r)
		if !i.GetLimiter(ip).Allow() {
			zap.S().Debugw("rate limited",
				"ip", ip,
				"path", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": "too many requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP is the direct peer unless that peer is a trusted proxy, in which case the
// nearest untrusted hop of X-Forwarded-For (or X-Real-IP) is used
func (i *IPRateLimiter) clientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if !i.trustedProxies[peer] {
		return peer
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for n := len(hops) - 1; n >= 0; n-- {
			hop := strings.TrimSpace(hops[n])
			if hop != "" && !i.trustedProxies[hop] {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

package api

import (
	"net"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// clientLimiter keeps one token bucket per client address. Buckets of
// clients that stay away for idleTTL are dropped.
type clientLimiter struct {
	limit   rate.Limit
	burst   int
	clients *cache.Cache
}

const idleTTL = 10 * time.Minute

func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	return &clientLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: cache.New(idleTTL, 2*idleTTL),
	}
}

func (l *clientLimiter) get(ip string) *rate.Limiter {
	if v, ok := l.clients.Get(ip); ok {
		l.clients.SetDefault(ip, v)
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	if err := l.clients.Add(ip, lim, cache.DefaultExpiration); err != nil {
		// Another request created it first.
		if v, ok := l.clients.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

// middleware rejects requests with 429 once a client's bucket is empty.
// Loopback clients are never limited.
func (l *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if parsed := net.ParseIP(ip); parsed != nil && parsed.IsLoopback() {
			next.ServeHTTP(w, r)
			return
		}
		if !l.get(ip).Allow() {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

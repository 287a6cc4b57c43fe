package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"medhead-reservation/pkg/response"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const limiterIdleTimeout = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware limits requests per client IP. Forwarding headers
// are only honored when the connection comes from a trusted proxy.
type RateLimitMiddleware struct {
	log            *logrus.Logger
	rps            rate.Limit
	burst          int
	trustedProxies []netip.Prefix

	mu       sync.Mutex
	limiters map[string]*clientLimiter
	now      func() time.Time
}

func NewRateLimitMiddleware(log *logrus.Logger, rps float64, burst int, trustedProxies []string) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		log:            log,
		rps:            rate.Limit(rps),
		burst:          burst,
		trustedProxies: parseTrustedProxies(log, trustedProxies),
		limiters:       make(map[string]*clientLimiter),
		now:            time.Now,
	}
}

// parseTrustedProxies accepts CIDRs and bare addresses
func parseTrustedProxies(log *logrus.Logger, entries []string) []netip.Prefix {
	var prefixes []netip.Prefix
	for _, entry := range entries {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			log.Warnf("Ignoring invalid trusted proxy %q", entry)
			continue
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes
}

func (m *RateLimitMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := m.clientIP(r)
		if !m.getLimiter(ip).Allow() {
			m.log.Warnf("Rate limit exceeded: ip=%s, path=%s", ip, r.URL.Path)
			response.TooManyRequests(w, "Rate limit exceeded. Try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) getLimiter(ip string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, cl := range m.limiters {
		if now.Sub(cl.lastSeen) > limiterIdleTimeout {
			delete(m.limiters, key)
		}
	}

	cl, ok := m.limiters[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(m.rps, m.burst)}
		m.limiters[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// clientIP keys the limiter on the peer address unless the peer is a
// trusted proxy, in which case the first forwarded address wins
func (m *RateLimitMiddleware) clientIP(r *http.Request) string {
	host := remoteHost(r)
	if !m.trusted(host) {
		return host
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return host
}

func (m *RateLimitMiddleware) trusted(host string) bool {
	if len(m.trustedProxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range m.trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

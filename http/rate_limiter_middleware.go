package http

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// TrustedProxies lists the networks whose X-Forwarded-For header is honored.
type TrustedProxies []*net.IPNet

// ParseTrustedProxies accepts bare IPs and CIDR blocks.
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	var out TrustedProxies
	for _, entry := range entries {
		cidr := entry
		if !strings.Contains(cidr, "/") {
			ip := net.ParseIP(cidr)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", entry)
			}
			bits := 128
			if ip.To4() != nil {
				bits = 32
			}
			cidr = fmt.Sprintf("%s/%d", cidr, bits)
		}
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q", entry)
		}
		out = append(out, network)
	}
	return out, nil
}

func (t TrustedProxies) contains(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, network := range t {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func remoteIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// clientIP keys on the peer address. When the peer is a trusted proxy the
// rightmost X-Forwarded-For hop that is not itself trusted wins.
func clientIP(r *http.Request, trusted TrustedProxies) string {
	ip := remoteIP(r)
	if !trusted.contains(ip) {
		return ip
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !trusted.contains(hop) {
			return hop
		}
		ip = hop
	}
	return ip
}

func RateLimitMiddleware(limiter *RateLimiter, trusted TrustedProxies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trusted)

			if !limiter.Allow(ip) {
				wait := limiter.RetryAfter(ip)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				loggerFrom(r.Context()).WithField("client_ip", ip).Warn("rate limit exceeded")
				writeJSON(w, r, http.StatusTooManyRequests, errorBody{Detail: "rate limit exceeded"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}


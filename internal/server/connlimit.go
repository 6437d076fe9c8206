package server

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/lawnchairsociety/dungeontopo/internal/config"
)

// ConnLimiter caps concurrent preview WebSocket clients per IP and in total.
type ConnLimiter struct {
	mu         sync.Mutex
	ipCounts   map[string]int
	totalCount int
	maxPerIP   int
	maxTotal   int
}

// ConnStats is a snapshot of a ConnLimiter.
type ConnStats struct {
	Total int `json:"total"`
	IPs   int `json:"ips"`
}

// NewConnLimiter creates a new connection limiter with the given config.
func NewConnLimiter(cfg config.ConnectionsConfig) *ConnLimiter {
	return &ConnLimiter{
		ipCounts: make(map[string]int),
		maxPerIP: cfg.MaxPerIP,
		maxTotal: cfg.MaxTotal,
	}
}

// TryAcquire attempts to acquire a connection slot for the given IP.
// Returns true if the connection is allowed, false if it would exceed limits.
func (c *ConnLimiter) TryAcquire(ip string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxTotal > 0 && c.totalCount >= c.maxTotal {
		return false
	}
	if c.maxPerIP > 0 && c.ipCounts[ip] >= c.maxPerIP {
		return false
	}

	c.ipCounts[ip]++
	c.totalCount++
	return true
}

// Release releases a connection slot for the given IP.
func (c *ConnLimiter) Release(ip string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ipCounts[ip] == 0 {
		return
	}
	c.ipCounts[ip]--
	if c.ipCounts[ip] == 0 {
		delete(c.ipCounts, ip)
	}
	c.totalCount--
}

// Stats returns the current connection counts.
func (c *ConnLimiter) Stats() ConnStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ConnStats{Total: c.totalCount, IPs: len(c.ipCounts)}
}

// IPCount returns the current connection count for a specific IP.
func (c *ConnLimiter) IPCount(ip string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ipCounts[ip]
}

// getRealIP extracts the client IP, preferring X-Forwarded-For and X-Real-IP
// set by reverse proxies over the direct remote address.
func getRealIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs: "client, proxy1, proxy2"
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	return extractIP(r.RemoteAddr)
}

// extractIP extracts the IP address from a remote address string (ip:port format).
func extractIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr // Return as-is if can't split
	}
	return host
}

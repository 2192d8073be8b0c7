package middleware

import (
	"net/netip" // Proxy address matching
	"strings"   // Header normalization

	"github.com/gin-gonic/gin" // Gin web framework
)

// SchemeKey holds "http" or "https" as seen by the client
const SchemeKey = "scheme"

// RequestScheme records the client-facing scheme. X-Forwarded-Proto is only
// honored when the direct peer is one of trustedProxies (IPs or CIDRs), the
// same list gin uses for client IPs.
func RequestScheme(trustedProxies []string) gin.HandlerFunc {
	var trusted []netip.Prefix // Parsed once at startup
	for _, p := range trustedProxies {
		if prefix, err := netip.ParsePrefix(p); err == nil {
			trusted = append(trusted, prefix.Masked())
		} else if addr, err := netip.ParseAddr(p); err == nil {
			trusted = append(trusted, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return func(c *gin.Context) {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if proto := strings.ToLower(c.GetHeader("X-Forwarded-Proto")); proto == "http" || proto == "https" {
			if peer, err := netip.ParseAddr(c.RemoteIP()); err == nil && isTrusted(trusted, peer.Unmap()) {
				scheme = proto
			}
		}
		c.Set(SchemeKey, scheme)
		c.Next()
	}
}

func isTrusted(trusted []netip.Prefix, peer netip.Addr) bool {
	for _, p := range trusted {
		if p.Contains(peer) {
			return true
		}
	}
	return false
}

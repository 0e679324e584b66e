package guard

import (
	"net"
	"net/http"
	"strings"
)

type whitelistGuard struct {
	entries []string
}

// WhitelistGuard passes when the peer address of the request equals one of
// entries or lies inside one of its IPv4 CIDR blocks.  An empty list passes
// nothing.  Forwarding headers are not consulted.
func WhitelistGuard(entries ...string) Guard {
	cp := make([]string, 0, len(entries))
	for _, e := range entries {
		if e = strings.TrimSpace(e); e != "" {
			cp = append(cp, e)
		}
	}
	return whitelistGuard{entries: cp}
}

func (g whitelistGuard) Verify(r *http.Request) bool {
	ip := peerIP(r.RemoteAddr)
	if ip == "" {
		return false
	}
	for _, e := range g.entries {
		if e == ip || inRange(ip, e) {
			return true
		}
	}
	return false
}

// InRange reports whether ip lies inside the IPv4 CIDR block cidr.  IPv6
// blocks never match, and neither does malformed input.
func InRange(ip, cidr string) bool { return inRange(ip, cidr) }

func inRange(ip, cidr string) bool {
	if !strings.Contains(cidr, "/") {
		return false
	}
	addr := net.ParseIP(ip).To4()
	if addr == nil {
		return false
	}
	_, block, err := net.ParseCIDR(cidr)
	if err != nil || len(block.IP) != net.IPv4len {
		return false
	}
	return block.Contains(addr)
}

// peerIP strips the port from a RemoteAddr value.
func peerIP(remote string) string {
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return strings.TrimSpace(remote)
}

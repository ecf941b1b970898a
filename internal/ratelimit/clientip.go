package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// UnknownClient identifies requests whose source address cannot be determined.
const UnknownClient = "unknown"

// ClientIP returns the address a request is attributed to. With
// trustForwarded the left-most X-Forwarded-For entry wins; otherwise, or when
// the header is absent, the host part of RemoteAddr is used.
func ClientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	if r.RemoteAddr == "" {
		return UnknownClient
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	if host == "" {
		return UnknownClient
	}
	return host
}

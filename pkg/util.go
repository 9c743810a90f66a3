package pkg

import (
	"net"
	"net/http"
	"strings"
)

func ReadUserIP(r *http.Request) (string, error) {
	ipAddr := r.Header.Get("X-Real-Ip")
	if ipAddr == "" {
		ipAddr = r.Header.Get("X-Forwarded-For")
	}
	if ipAddr == "" {
		ipAddr = r.RemoteAddr
	}

	if strings.HasPrefix(ipAddr, "[::1]") || strings.HasPrefix(ipAddr, "127.0.0.1") {
		return "localhost", nil
	}

	if host, _, err := net.SplitHostPort(ipAddr); err == nil {
		return host, nil
	}
	return ipAddr, nil
}

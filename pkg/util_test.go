package pkg

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadUserIP(t *testing.T) {
	testCases := []struct {
		name       string
		realIP     string
		forwarded  string
		remoteAddr string
		expected   string
	}{
		{
			name:     "XRealIpHeader",
			realIP:   "203.0.113.10",
			expected: "203.0.113.10",
		},
		{
			name:      "XForwardedForHeader",
			forwarded: "203.0.113.20",
			expected:  "203.0.113.20",
		},
		{
			name:       "RemoteAddrWithPort",
			remoteAddr: "203.0.113.30:51234",
			expected:   "203.0.113.30",
		},
		{
			name:       "LocalhostV4",
			remoteAddr: "127.0.0.1:8080",
			expected:   "localhost",
		},
		{
			name:       "LocalhostV6",
			remoteAddr: "[::1]:8080",
			expected:   "localhost",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.realIP != "" {
				req.Header.Set("X-Real-Ip", tc.realIP)
			}
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}

			ip, err := ReadUserIP(req)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ip)
		})
	}
}

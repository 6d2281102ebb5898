package metadata

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicegate/pkg/requestcontext"
)

func TestMiddlewareHandler(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trusted    string
		expectedIP string
	}{
		{
			name:       "ignores forwarding headers from untrusted peers",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1"},
			remoteAddr: "192.168.1.1:12345",
			expectedIP: "192.168.1.1",
		},
		{
			name:       "trusts first forwarded hop from a trusted proxy",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.2"},
			remoteAddr: "10.0.0.1:12345",
			trusted:    "10.0.0.0/8",
			expectedIP: "203.0.113.1",
		},
		{
			name:       "uses X-Real-IP when no X-Forwarded-For",
			headers:    map[string]string{"X-Real-IP": "198.51.100.9"},
			remoteAddr: "10.0.0.1:12345",
			trusted:    "10.0.0.1",
			expectedIP: "198.51.100.9",
		},
		{
			name:       "malformed forwarded address falls back to peer",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			remoteAddr: "10.0.0.1:12345",
			trusted:    "10.0.0.0/8",
			expectedIP: "10.0.0.1",
		},
		{
			name:       "oversized header falls back to peer",
			headers:    map[string]string{"X-Forwarded-For": strings.Repeat("1", MaxForwardedHeaderLength+1)},
			remoteAddr: "10.0.0.1:12345",
			trusted:    "10.0.0.0/8",
			expectedIP: "10.0.0.1",
		},
		{
			name:       "strips brackets from IPv6 peers",
			remoteAddr: "[::1]:8080",
			expectedIP: "::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefixes, err := ParseTrustedProxies(tt.trusted)
			require.NoError(t, err)

			var got string
			h := NewMiddleware(Config{TrustedProxies: prefixes}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = requestcontext.ClientIP(r.Context())
			}))
			req := httptest.NewRequest(http.MethodPost, "/profiles/x/verify", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.expectedIP, got)
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := ParseTrustedProxies(" 10.0.0.0/8, 192.168.1.7 ,")
	require.NoError(t, err)
	require.Len(t, prefixes, 2)
	assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	assert.Equal(t, "192.168.1.7/32", prefixes[1].String())

	_, err = ParseTrustedProxies("10.0.0.0/99")
	assert.Error(t, err)
}

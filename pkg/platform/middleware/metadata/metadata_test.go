package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credvault/pkg/requestcontext"
)

func TestMiddlewareHandler(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		wantIP     string
	}{
		{
			name:       "ignores XFF from untrusted peer",
			remoteAddr: "192.168.1.1:12345",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1"},
			wantIP:     "192.168.1.1",
		},
		{
			name:       "trusts XFF from trusted proxy",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.0.0.1:12345",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.5"},
			wantIP:     "203.0.113.1",
		},
		{
			name:       "falls back to X-Real-IP",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.0.0.1:12345",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			wantIP:     "198.51.100.7",
		},
		{
			name:       "rejects malformed forwarded address",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.0.0.1:12345",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			wantIP:     "10.0.0.1",
		},
		{
			name:       "ipv6 remote",
			remoteAddr: "[2001:db8::1]:443",
			wantIP:     "2001:db8::1",
		},
		{
			name:   "missing remote addr",
			wantIP: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefixes, err := ParsePrefixes(tt.trusted)
			require.NoError(t, err)

			var gotIP, gotUA string
			handler := NewMiddleware(prefixes...).Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				gotIP = requestcontext.ClientIP(r.Context())
				gotUA = requestcontext.UserAgent(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			req.Header.Set("User-Agent", "curl/8.4.0")
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.wantIP, gotIP)
			assert.Equal(t, "curl/8.4.0", gotUA)
		})
	}
}

func TestParsePrefixes(t *testing.T) {
	got, err := ParsePrefixes([]string{"10.0.0.0/8", " ", "172.16.0.0/12"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = ParsePrefixes([]string{"10.0.0.0"})
	assert.Error(t, err)
}

package utils

import (
	"context"
	"crypto/tls"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded-for first", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"cloudflare", map[string]string{"CF-Connecting-IP": "198.51.100.4"}, "10.0.0.2:1234", "198.51.100.4"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.5"}, "10.0.0.2:1234", "198.51.100.5"},
		{"rfc7239", map[string]string{"Forwarded": `for="[2001:db8::1]:4711";proto=https`}, "10.0.0.2:1234", "2001:db8::1"},
		{"rfc7239 plain", map[string]string{"Forwarded": "for=192.0.2.60;proto=http"}, "10.0.0.2:1234", "192.0.2.60"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tc.remote
			for k, v := range tc.header {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, ClientIP(r))
		})
	}
}

func TestOpenRedisFromEnv(t *testing.T) {
	t.Setenv("REDIS_HOST", "")
	c, err := OpenRedisFromEnv(context.Background())
	require.NoError(t, err)
	assert.Nil(t, c)

	mr := miniredis.RunT(t)
	t.Setenv("REDIS_HOST", mr.Host())
	t.Setenv("REDIS_PORT", mr.Port())
	t.Setenv("REDIS_DB", "bad")
	c, err = OpenRedisFromEnv(context.Background())
	require.NoError(t, err)
	require.NotNil(t, c)
	defer c.Close()
	assert.Equal(t, 0, c.Options().DB)

	mr.Close()
	_, err = OpenRedisFromEnv(context.Background())
	assert.Error(t, err)
}

func TestEnsureSelfSignedCert(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "certs", "server.crt")
	key := filepath.Join(dir, "keys", "server.key")
	require.NoError(t, EnsureSelfSignedCert(cert, key, "webkart.local"))

	pair, err := tls.LoadX509KeyPair(cert, key)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Certificate)

	// existing pair is kept
	require.NoError(t, EnsureSelfSignedCert(cert, key, "other"))
	again, err := tls.LoadX509KeyPair(cert, key)
	require.NoError(t, err)
	assert.Equal(t, pair.Certificate[0], again.Certificate[0])
}

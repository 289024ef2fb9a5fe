package pkg

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPIsLocal(t *testing.T) {
	cases := []struct {
		addr    string
		isLocal bool
	}{
		{addr: "127.0.0.1:35325", isLocal: true},
		{addr: "127.23.0.1:35325", isLocal: false},
		{addr: "172.20.0.1:60102", isLocal: true},
		{addr: "172.200.0.1:60096", isLocal: true},
		{addr: "172.19.0.1:42452", isLocal: true},
		{addr: "83.12.53.65:2145", isLocal: false},
		{addr: "111.12.56.65:8080", isLocal: false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.isLocal, IPIsLocal(tc.addr), tc.addr)
	}
}

func TestReadUserIP(t *testing.T) {
	t.Run("from x-real-ip", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Real-Ip", "83.12.53.65")
		ip, err := ReadUserIP(req)
		require.NoError(t, err)
		assert.Equal(t, "83.12.53.65", ip)
	})

	t.Run("from x-forwarded-for", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Forwarded-For", "111.12.56.65")
		ip, err := ReadUserIP(req)
		require.NoError(t, err)
		assert.Equal(t, "111.12.56.65", ip)
	})

	t.Run("remote addr with port", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "83.12.53.65:2145"
		ip, err := ReadUserIP(req)
		require.NoError(t, err)
		assert.Equal(t, "83.12.53.65", ip)
	})

	t.Run("local addr", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "127.0.0.1:9000"
		ip, err := ReadUserIP(req)
		require.NoError(t, err)
		assert.Equal(t, "localhost", ip)
	})

	t.Run("garbage", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "not-an-address"
		_, err := ReadUserIP(req)
		assert.Error(t, err)
	})
}

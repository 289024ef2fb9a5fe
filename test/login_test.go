package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/2beens/fitlog/internal/middleware"
	"github.com/2beens/fitlog/internal/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestAuth() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.redisDataCleanup(ctx))

	registered := s.registerUser(ctx, t, "auth@fitlog.test", "super-secret-1")
	assert.Equal(t, "auth@fitlog.test", registered.User.Email)

	t.Run("me", func(t *testing.T) {
		var me users.User
		s.doRequest(ctx, t, registered.Token, "GET", "/a/me", nil, http.StatusOK, &me)
		assert.Equal(t, registered.User.ID, me.ID)
		assert.Equal(t, "auth@fitlog.test", me.Email)
	})

	t.Run("duplicate email", func(t *testing.T) {
		registerReqJson, err := json.Marshal(users.LoginRequest{
			Email:    "auth@fitlog.test",
			Password: "another-pass-1",
		})
		require.NoError(t, err)

		req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/a/register", serverEndpoint), bytes.NewBuffer(registerReqJson))
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("bad password", func(t *testing.T) {
		loginReqJson, err := json.Marshal(users.LoginRequest{
			Email:    "auth@fitlog.test",
			Password: "bad-password",
		})
		require.NoError(t, err)

		req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/a/login", serverEndpoint), bytes.NewBuffer(loginReqJson))
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "login failed", strings.TrimSpace(string(respBytes)))
	})

	t.Run("unknown email", func(t *testing.T) {
		loginReqJson, err := json.Marshal(users.LoginRequest{
			Email:    "nobody@fitlog.test",
			Password: "super-secret-1",
		})
		require.NoError(t, err)

		req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/a/login", serverEndpoint), bytes.NewBuffer(loginReqJson))
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		// same response as for a bad password, no email probing
		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "login failed", strings.TrimSpace(string(respBytes)))
	})

	t.Run("logout", func(t *testing.T) {
		token := s.doLogin(ctx, t, "auth@fitlog.test", "super-secret-1")

		req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/a/logout", serverEndpoint), nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set(middleware.AuthTokenHeader, token)

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		// session gone now
		meReq, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/a/me", serverEndpoint), nil)
		require.NoError(t, err)
		meReq.Header.Set("User-Agent", "test-agent")
		meReq.Header.Set(middleware.AuthTokenHeader, token)

		meResp, err := s.httpClient.Do(meReq)
		require.NoError(t, err)
		defer meResp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, meResp.StatusCode)
	})
}

// named so it runs after the other tests, it trashes the rate limiter
func (s *IntegrationTestSuite) TestZLoginRateLimiting() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// simulate a login brute force attack
	loginReqJson, err := json.Marshal(users.LoginRequest{
		Email:    "attacker@fitlog.test",
		Password: "guess-1",
	})
	require.NoError(t, err)

	// config allows 10 login attempts per minute, so the 11th gets 429
	// but first, do a redis cleanup
	require.NoError(t, s.redisDataCleanup(ctx))

	for i := 1; i <= 15; i++ {
		req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/a/login", serverEndpoint), bytes.NewBuffer(loginReqJson))
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)

		if i <= 10 {
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, "iteration: %d", i)
			assert.Empty(t, resp.Header.Get("Retry-After"), "iteration: %d", i)
		} else {
			require.Equal(t, http.StatusTooManyRequests, resp.StatusCode, "iteration: %d", i)
			retryAfter, err := strconv.ParseFloat(resp.Header.Get("Retry-After"), 64)
			require.NoError(t, err, "iteration: %d", i)
			assert.Greater(t, retryAfter, 0., "iteration: %d", i)
		}
		resp.Body.Close()
	}
}

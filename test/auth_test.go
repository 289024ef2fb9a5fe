package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/2beens/fitlog/internal/middleware"
	"github.com/2beens/fitlog/internal/users"

	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) registerUser(ctx context.Context, t *testing.T, email, password string) *users.LoginResponse {
	t.Helper()

	registerReqJson, err := json.Marshal(users.LoginRequest{
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/a/register", serverEndpoint), bytes.NewBuffer(registerReqJson))
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var loginResp users.LoginResponse
	require.NoError(t, json.Unmarshal(respBytes, &loginResp))
	require.NotEmpty(t, loginResp.Token)
	require.NotNil(t, loginResp.User)

	return &loginResp
}

func (s *IntegrationTestSuite) doLogin(ctx context.Context, t *testing.T, email, password string) string {
	t.Helper()

	loginReqJson, err := json.Marshal(users.LoginRequest{
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/a/login", serverEndpoint), bytes.NewBuffer(loginReqJson))
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var loginResp users.LoginResponse
	require.NoError(t, json.Unmarshal(respBytes, &loginResp))
	require.NotEmpty(t, loginResp.Token)

	return loginResp.Token
}

// doRequest fires an authenticated request and unmarshals the response
// into respObj (unless nil), asserting the expected status code.
func (s *IntegrationTestSuite) doRequest(
	ctx context.Context, t *testing.T,
	token, method, path string,
	reqObj any,
	expectedStatusCode int,
	respObj any,
) {
	t.Helper()

	var body io.Reader
	if reqObj != nil {
		reqJson, err := json.Marshal(reqObj)
		require.NoError(t, err)
		body = bytes.NewBuffer(reqJson)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, body)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.AuthTokenHeader, token)

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, expectedStatusCode, resp.StatusCode, "response: %s", respBytes)

	if respObj != nil {
		require.NoError(t, json.Unmarshal(respBytes, respObj))
	}
}

package users_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/fitlog/internal/auth"
	"github.com/2beens/fitlog/internal/middleware"
	"github.com/2beens/fitlog/internal/telemetry/metrics"
	"github.com/2beens/fitlog/internal/users"
	"github.com/2beens/fitlog/pkg"

	"github.com/go-redis/redismock/v8"
	"github.com/golang/mock/gomock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-session-token"

func newTestHandler(t *testing.T) (*users.Handler, *MockusersRepo, redismock.ClientMock) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repoMock := NewMockusersRepo(ctrl)

	rdb, redisMock := redismock.NewClientMock()
	t.Cleanup(func() { _ = rdb.Close() })

	authService := auth.NewService(time.Hour, rdb)
	authService.RandStringFunc = func(s int) (string, error) {
		return testToken, nil
	}

	return users.NewHandler(repoMock, authService, metrics.NewTestManager()), repoMock, redisMock
}

func expectSession(redisMock redismock.ClientMock) {
	// session value carries the login timestamp, match it loosely
	redisMock.CustomMatch(func(expected, actual []interface{}) error {
		return nil
	}).ExpectSet("fitlog-service-session||"+testToken, "", 0).SetVal("ok")
	redisMock.ExpectSAdd("fitlog-service-sessions", testToken).SetVal(1)
}

func TestHandler_Register(t *testing.T) {
	handler, repoMock, redisMock := newTestHandler(t)

	repoMock.EXPECT().
		Add(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, user users.User) (*users.User, error) {
			assert.Equal(t, "new@user.com", user.Email)
			assert.True(t, pkg.CheckPasswordHash("password123", user.PasswordHash))
			user.ID = 7
			return &user, nil
		})
	expectSession(redisMock)

	body, err := json.Marshal(users.LoginRequest{
		Email:    "  New@User.com ",
		Password: "password123",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/a/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.HandleRegister(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var resp users.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, testToken, resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, 7, resp.User.ID)
	assert.Equal(t, "new@user.com", resp.User.Email)
}

func TestHandler_Register_duplicateEmail(t *testing.T) {
	handler, repoMock, _ := newTestHandler(t)

	repoMock.EXPECT().
		Add(gomock.Any(), gomock.Any()).
		Return(nil, &pgconn.PgError{Code: "23505"})

	body, err := json.Marshal(users.LoginRequest{
		Email:    "taken@user.com",
		Password: "password123",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/a/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.HandleRegister(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandler_Register_passwordTooShort(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	body, err := json.Marshal(users.LoginRequest{
		Email:    "new@user.com",
		Password: "short",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/a/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.HandleRegister(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_Login(t *testing.T) {
	handler, repoMock, redisMock := newTestHandler(t)

	passwordHash, err := pkg.HashPassword("password123")
	require.NoError(t, err)

	user := &users.User{
		ID:           13,
		Email:        "gym@rat.com",
		PasswordHash: passwordHash,
	}

	t.Run("ok", func(t *testing.T) {
		repoMock.EXPECT().
			GetByEmail(gomock.Any(), "gym@rat.com").
			Return(user, nil)
		expectSession(redisMock)

		body, err := json.Marshal(users.LoginRequest{
			Email:    "Gym@Rat.com",
			Password: "password123",
		})
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/a/login", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		handler.HandleLogin(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp users.LoginResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, testToken, resp.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		repoMock.EXPECT().
			GetByEmail(gomock.Any(), "gym@rat.com").
			Return(user, nil)

		body, err := json.Marshal(users.LoginRequest{
			Email:    "gym@rat.com",
			Password: "wrong-password",
		})
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/a/login", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		handler.HandleLogin(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		repoMock.EXPECT().
			GetByEmail(gomock.Any(), "who@dis.com").
			Return(nil, users.ErrUserNotFound)

		body, err := json.Marshal(users.LoginRequest{
			Email:    "who@dis.com",
			Password: "password123",
		})
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/a/login", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		handler.HandleLogin(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandler_Me(t *testing.T) {
	handler, repoMock, _ := newTestHandler(t)

	repoMock.EXPECT().
		Get(gomock.Any(), 13).
		Return(&users.User{ID: 13, Email: "gym@rat.com"}, nil)

	req := httptest.NewRequest("GET", "/a/me", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), 13))
	rr := httptest.NewRecorder()
	handler.HandleMe(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var gotUser users.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &gotUser))
	assert.Equal(t, "gym@rat.com", gotUser.Email)
}

func TestHandler_Me_noUserInContext(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	req := httptest.NewRequest("GET", "/a/me", nil)
	rr := httptest.NewRecorder()
	handler.HandleMe(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

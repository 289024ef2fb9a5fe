package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginChecker_GetLoggedUser(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	loginChecker := NewLoginChecker(time.Hour, db)
	require.NotNil(t, loginChecker)

	ctx := context.Background()

	mock.ExpectGet(sessionKeyPrefix + "invalid token").SetErr(redis.Nil)
	userID, err := loginChecker.GetLoggedUser(ctx, "invalid token")
	require.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Zero(t, userID)

	mock.ExpectGet(sessionKeyPrefix + "invalid token").SetErr(redis.Nil)
	userID, err = loginChecker.GetLoggedUser(ctx, "invalid token")
	require.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Zero(t, userID) // idempotent

	testToken := "test-token"
	now := time.Now()
	sessionKey := sessionKeyPrefix + testToken

	mock.ExpectGet(sessionKey).SetVal(fmt.Sprintf("42:%d", now.Unix()))
	userID, err = loginChecker.GetLoggedUser(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)

	// expired session
	then := now.Add(-2 * time.Hour)
	mock.ExpectGet(sessionKey).SetVal(fmt.Sprintf("42:%d", then.Unix()))
	userID, err = loginChecker.GetLoggedUser(ctx, testToken)
	require.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Zero(t, userID)
}

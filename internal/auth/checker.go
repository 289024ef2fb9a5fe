package auth

import (
	"context"
	"errors"
)

var _ Checker = (*LoginChecker)(nil)
var _ Checker = (*LoginTestChecker)(nil)

// ErrNotLoggedIn is returned for unknown and for expired tokens alike.
var ErrNotLoggedIn = errors.New("not logged in")

// Checker resolves a session token to the id of the logged-in user.
type Checker interface {
	GetLoggedUser(ctx context.Context, token string) (int, error)
}

// Package claims carries the authenticated caller's identity through
// the request context.
package claims

import (
	"context"
	"errors"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type Claims struct {
	UserID string
	Role   string
}

type ctxKey int

const claimsKey ctxKey = 1

var ErrMissing = errors.New("no claims in context")

func Set(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// Get returns the caller's claims, or ErrMissing for anonymous
// requests.
func Get(ctx context.Context) (Claims, error) {
	c, ok := ctx.Value(claimsKey).(Claims)
	if !ok {
		return Claims{}, ErrMissing
	}
	return c, nil
}

func IsAdmin(ctx context.Context) bool {
	c, err := Get(ctx)
	return err == nil && c.Role == RoleAdmin
}

// IsUser reports whether the caller is the user with the given id.
func IsUser(ctx context.Context, id string) bool {
	c, err := Get(ctx)
	return err == nil && c.UserID == id
}

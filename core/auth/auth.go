package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/rfebrian/storefront/api/web"
	"github.com/rfebrian/storefront/api/weberr"
	"github.com/rfebrian/storefront/core/claims"
)

const (
	sessionUserID = "user_id"
	sessionRole   = "role"
)

// LoadAndSave adapts the session manager's cookie handling to the
// handler chain. It must be the outermost middleware.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error

			sh := session.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			}))

			sh.ServeHTTP(w, r)
			return err
		}
		return h
	}
	return m
}

// LoadClaims populates claims from the session when a user is logged
// in, and lets anonymous visitors through. Routes that serve both
// guests and users hang off this instead of Authenticate.
func LoadClaims(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if userID := session.GetString(ctx, sessionUserID); userID != "" {
				ctx = claims.Set(ctx, claims.Claims{
					UserID: userID,
					Role:   session.GetString(ctx, sessionRole),
				})
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Authenticate populates claims from the session and rejects
// unauthenticated requests.
func Authenticate(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			userID := session.GetString(ctx, sessionUserID)
			if userID == "" {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			ctx = claims.Set(ctx, claims.Claims{
				UserID: userID,
				Role:   session.GetString(ctx, sessionRole),
			})

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Admin is like Authenticate but additionally requires the admin role.
func Admin(session *scs.SessionManager) web.Middleware {
	authen := Authenticate(session)

	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !claims.IsAdmin(ctx) {
				return weberr.NotAuthorized(errors.New("admin role required"))
			}
			return handler(ctx, w, r)
		}
		return authen(h)
	}
	return m
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rfebrian/storefront/api/web"
	"github.com/rfebrian/storefront/api/weberr"
	"github.com/rfebrian/storefront/core/cart"
	"github.com/rfebrian/storefront/core/claims"
	"github.com/rfebrian/storefront/core/user"
	"github.com/rfebrian/storefront/database"
	"github.com/rfebrian/storefront/validate"
	"golang.org/x/crypto/bcrypt"
)

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func HandleSignup(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var un user.UserNew
		if err := web.Decode(w, r, &un); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if fields, err := validate.CheckFields(un); err != nil {
			return weberr.FieldErrors(err, fields)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(un.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		now := time.Now().UTC()
		usr := user.User{
			ID:           validate.GenerateID(),
			Name:         un.Name,
			Email:        un.Email,
			Role:         claims.RoleUser,
			PasswordHash: string(hash),
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := user.Create(ctx, db, usr); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == database.UniqueViolation {
				return weberr.BadRequest(errors.New("email already in use"))
			}
			return fmt.Errorf("creating user: %w", err)
		}

		return web.Respond(ctx, w, usr, http.StatusCreated)
	}
}

// HandleLogin authenticates the visitor and, as a side effect, folds
// their anonymous cart into the account cart.
func HandleLogin(db *sqlx.DB, session *scs.SessionManager, carts *cart.Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var creds credentials
		if err := web.Decode(w, r, &creds); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(creds); err != nil {
			return weberr.BadRequest(err)
		}

		usr, err := user.FetchByEmail(ctx, db, creds.Email)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return weberr.NotAuthorized(errors.New("wrong credentials"))
			}
			return fmt.Errorf("fetching user by email: %w", err)
		}

		if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(creds.Password)); err != nil {
			return weberr.NotAuthorized(errors.New("wrong credentials"))
		}

		if err := establishSession(ctx, session, carts, usr); err != nil {
			return err
		}

		return web.Respond(ctx, w, usr, http.StatusOK)
	}
}

func HandleLogout(session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := session.Destroy(ctx); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// establishSession renews the session token against fixation, stores
// the user claims and merges the pre-login guest cart, all keyed by
// the token the visitor browsed with before authenticating.
func establishSession(ctx context.Context, session *scs.SessionManager, carts *cart.Service, usr user.User) error {
	guestToken := session.Token(ctx)

	if err := session.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}

	session.Put(ctx, sessionUserID, usr.ID)
	session.Put(ctx, sessionRole, usr.Role)

	if guestToken == "" {
		return nil
	}

	if _, err := carts.Merge(ctx, guestToken, usr.ID); err != nil {
		return fmt.Errorf("merging guest cart into user[%s]: %w", usr.ID, err)
	}

	return nil
}

package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/rfebrian/storefront/api/web"
	"github.com/rfebrian/storefront/api/weberr"
	"github.com/rfebrian/storefront/core/claims"
	"github.com/rfebrian/storefront/validate"
	"github.com/shopspring/decimal"
)

// ownerFromRequest resolves the cart owner for the current request:
// the user id when authenticated, the session token otherwise.
func ownerFromRequest(ctx context.Context, session *scs.SessionManager) (Owner, error) {
	if clm, err := claims.Get(ctx); err == nil {
		return UserOwner(clm.UserID), nil
	}

	tok := session.Token(ctx)
	if tok == "" {
		return Owner{}, errors.New("no session for visitor")
	}

	return GuestOwner(tok), nil
}

func HandleShow(svc *Service, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		owner, err := ownerFromRequest(ctx, session)
		if err != nil {
			// A visitor with no session yet has no cart; show them an
			// empty one without committing anything.
			return web.Respond(ctx, w, emptyView(), http.StatusOK)
		}

		c, err := svc.GetOrCreate(ctx, owner)
		if err != nil {
			return fmt.Errorf("fetching cart: %w", err)
		}

		return web.Respond(ctx, w, cartView(c), http.StatusOK)
	}
}

func HandleClear(svc *Service, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		owner, err := ownerFromRequest(ctx, session)
		if err != nil {
			// Nothing bound to this visitor, so nothing to clear.
			return web.Respond(ctx, w, emptyView(), http.StatusOK)
		}

		c, err := svc.Clear(ctx, owner)
		if err != nil {
			return fmt.Errorf("clearing cart: %w", err)
		}

		return web.Respond(ctx, w, cartView(c), http.StatusOK)
	}
}

func HandleAddItem(svc *Service, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.BadRequest(err)
		}

		owner, err := ownerForMutation(ctx, session)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		c, err := svc.AddItem(ctx, owner, in.SubproductID, in.Quantity)
		if err != nil {
			return mapCartErr(err, in.SubproductID)
		}

		return web.Respond(ctx, w, cartView(c), http.StatusOK)
	}
}

func HandleUpdateItem(svc *Service, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in ItemDelta
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.BadRequest(err)
		}

		owner, err := ownerForMutation(ctx, session)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		c, err := svc.UpdateQuantity(ctx, owner, in.SubproductID, in.Delta)
		if err != nil {
			return mapCartErr(err, in.SubproductID)
		}

		return web.Respond(ctx, w, cartView(c), http.StatusOK)
	}
}

func HandleRemoveItem(svc *Service, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "subproduct_id")

		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		owner, err := ownerForMutation(ctx, session)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		c, err := svc.RemoveItem(ctx, owner, id)
		if err != nil {
			return mapCartErr(err, id)
		}

		return web.Respond(ctx, w, cartView(c), http.StatusOK)
	}
}

// ownerForMutation is like ownerFromRequest but commits a session for
// first-time guests, since a mutation must have a key to bind to.
func ownerForMutation(ctx context.Context, session *scs.SessionManager) (Owner, error) {
	if clm, err := claims.Get(ctx); err == nil {
		return UserOwner(clm.UserID), nil
	}

	tok := session.Token(ctx)
	if tok == "" {
		session.Put(ctx, "guest", true)
		var err error
		if tok, _, err = session.Commit(ctx); err != nil {
			return Owner{}, fmt.Errorf("committing guest session: %w", err)
		}
	}

	return GuestOwner(tok), nil
}

func mapCartErr(err error, subproductID string) error {
	switch {
	case errors.Is(err, ErrItemUnavailable):
		return weberr.NewError(err, fmt.Sprintf("subproduct[%s] is not available", subproductID), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrItemNotFound):
		return weberr.NotFound(err)
	default:
		return err
	}
}

type view struct {
	ID       string          `json:"id"`
	Items    []Item          `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func emptyView() view {
	return view{Items: []Item{}}
}

func cartView(c Cart) view {
	return view{
		ID:       c.ID,
		Items:    c.Items,
		Subtotal: c.Subtotal(),
	}
}

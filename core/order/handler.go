package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rfebrian/storefront/api/web"
	"github.com/rfebrian/storefront/api/weberr"
	"github.com/rfebrian/storefront/core/cart"
	"github.com/rfebrian/storefront/core/claims"
	"github.com/rfebrian/storefront/database"
	"github.com/rfebrian/storefront/random"
	"github.com/rfebrian/storefront/validate"
)

// place persists the order and its item snapshots and clears the cart,
// all in one transaction. Runs under the cart service's owner lock.
func place(db *sqlx.DB, userID string, addr AddressInfo, out *Handle) cart.PlaceFunc {
	return func(ctx context.Context, c cart.Cart) error {
		err := database.Transaction(db, func(tx sqlx.ExtContext) error {
			now := time.Now().UTC()
			ord := Order{
				ID:        validate.GenerateID(),
				Number:    "SO-" + random.String(10),
				UserID:    userID,
				Status:    Pending,
				Name:      addr.Name,
				Email:     addr.Email,
				Street:    addr.Street,
				Postcode:  addr.Postcode,
				City:      addr.City,
				Country:   addr.Country,
				Total:     c.Subtotal(),
				CreatedAt: now,
				UpdatedAt: now,
			}

			if err := Create(ctx, tx, ord); err != nil {
				return fmt.Errorf("creating order: %w", err)
			}

			for _, ci := range c.Items {
				it := Item{
					OrderID:      ord.ID,
					SubproductID: ci.SubproductID,
					Name:         ci.Name,
					Variant:      ci.Variant,
					Quantity:     ci.Quantity,
					Price:        ci.UnitPrice,
					CreatedAt:    now,
				}

				if err := CreateItem(ctx, tx, it); err != nil {
					return fmt.Errorf("creating item[%s]: %w", ci.SubproductID, err)
				}
			}

			if err := cart.ClearTx(ctx, tx, c.ID); err != nil {
				return fmt.Errorf("flushing cart[%s]: %w", c.ID, err)
			}

			// The order only confirms once every snapshot landed and
			// the cart is flushed; a rollback leaves no trace of it.
			if err := UpdateStatus(ctx, tx, ord.ID, Confirmed); err != nil {
				return fmt.Errorf("confirming order[%s]: %w", ord.ID, err)
			}

			*out = Handle{ID: ord.ID, Number: ord.Number, Total: ord.Total}
			return nil
		})

		if err != nil {
			return fmt.Errorf("placing order for user[%s]: %w", userID, err)
		}
		return nil
	}
}

func HandleCheckout(db *sqlx.DB, carts *cart.Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var addr AddressInfo
		if err := web.Decode(w, r, &addr); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if fields, err := validate.CheckFields(addr); err != nil {
			return weberr.FieldErrors(err, fields)
		}

		var handle Handle
		if _, err := carts.Checkout(ctx, cart.UserOwner(clm.UserID), place(db, clm.UserID, addr, &handle)); err != nil {
			if errors.Is(err, cart.ErrEmptyCart) {
				return weberr.Unprocessable(cart.ErrEmptyCart)
			}
			return fmt.Errorf("checking out cart of user[%s]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, handle, http.StatusCreated)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		orders, err := FetchByUser(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("fetching orders of user[%s]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, orders, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		ord, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching order[%s]: %w", id, err)
		}

		if ord.UserID != clm.UserID && !claims.IsAdmin(ctx) {
			return weberr.NotFound(ErrNotFound)
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

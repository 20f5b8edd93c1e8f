package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/rfebrian/storefront/api/middleware"
	"github.com/rfebrian/storefront/api/web"
	"github.com/rfebrian/storefront/api/weberr"
	"github.com/rfebrian/storefront/core/auth"
	"github.com/rfebrian/storefront/core/brand"
	"github.com/rfebrian/storefront/core/cart"
	"github.com/rfebrian/storefront/core/category"
	"github.com/rfebrian/storefront/core/driver"
	"github.com/rfebrian/storefront/core/order"
	"github.com/rfebrian/storefront/core/product"
	"github.com/rfebrian/storefront/core/subproduct"
	"github.com/rfebrian/storefront/core/user"
	"github.com/rfebrian/storefront/database"
	"github.com/rfebrian/storefront/rate"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin       string
	Log              logrus.FieldLogger
	DB               *sqlx.DB
	Session          *scs.SessionManager
	Carts            *cart.Service
	Products         *product.Cache
	Positions        *driver.Hub
	Limiter          *rate.Limiter
	Providers        map[string]auth.Provider
	LoginRedirectURL string
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.Limiter != nil {
		a.mw = append(a.mw, middleware.RateLimit(cfg.Limiter))
	}

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	health := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := database.StatusCheck(ctx, cfg.DB); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusServiceUnavailable)
		}
		return web.Respond(ctx, w, map[string]string{"status": "ok"}, http.StatusOK)
	}
	a.Handle(http.MethodGet, "/health", health)

	authen := auth.Authenticate(cfg.Session)
	admin := auth.Admin(cfg.Session)
	visitor := auth.LoadClaims(cfg.Session)

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session, cfg.Carts))
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Session, cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.DB, cfg.Session, cfg.Providers, cfg.Carts, cfg.LoginRedirectURL))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)
	a.Handle(http.MethodGet, "/users/{id}", user.HandleShow(cfg.DB), authen)

	a.Handle(http.MethodGet, "/brands/{id}", brand.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/brands", brand.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/brands", brand.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodDelete, "/brands/{id}", brand.HandleDelete(cfg.DB), admin)

	a.Handle(http.MethodGet, "/categories/{id}", category.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/categories", category.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/categories", category.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodDelete, "/categories/{id}", category.HandleDelete(cfg.DB), admin)

	a.Handle(http.MethodGet, "/products/{product_id}/subproducts", subproduct.HandleListByProduct(cfg.DB))
	a.Handle(http.MethodGet, "/products/{id}", product.HandleShow(cfg.Products))
	a.Handle(http.MethodGet, "/products", product.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/products", product.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/products/{id}", product.HandleUpdate(cfg.DB, cfg.Products), admin)

	a.Handle(http.MethodPost, "/subproducts", subproduct.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/subproducts/{id}", subproduct.HandleUpdate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.Carts, cfg.Session), visitor)
	a.Handle(http.MethodPost, "/cart/items", cart.HandleAddItem(cfg.Carts, cfg.Session), visitor)
	a.Handle(http.MethodPut, "/cart/items", cart.HandleUpdateItem(cfg.Carts, cfg.Session), visitor)
	a.Handle(http.MethodDelete, "/cart/items/{subproduct_id}", cart.HandleRemoveItem(cfg.Carts, cfg.Session), visitor)
	a.Handle(http.MethodDelete, "/cart", cart.HandleClear(cfg.Carts, cfg.Session), visitor)

	a.Handle(http.MethodPost, "/checkout", order.HandleCheckout(cfg.DB, cfg.Carts), authen)
	a.Handle(http.MethodGet, "/orders", order.HandleList(cfg.DB), authen)
	a.Handle(http.MethodGet, "/orders/{id}", order.HandleShow(cfg.DB), authen)

	a.Handle(http.MethodPost, "/drivers", driver.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/drivers/{id}/position", driver.HandleUpdatePosition(cfg.DB, cfg.Positions), authen)
	a.Handle(http.MethodGet, "/drivers/{id}/position", driver.HandleShowPosition(cfg.DB), authen)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}

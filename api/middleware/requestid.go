package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rfebrian/storefront/api/web"
)

// RequestIDHeader lets callers propagate their own correlation id.
const RequestIDHeader = "X-Request-Id"

// requestIDLengthLimit truncates abusive caller-supplied ids.
const requestIDLengthLimit = 128

type ctxKey int

const requestIDKey ctxKey = 1

// RequestID stores a request id in the context, taking the caller's
// header value when present and minting one otherwise.
func RequestID() web.Middleware {
	return func(handler web.Handler) web.Handler {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			id := r.Header.Get(RequestIDHeader)
			switch {
			case id == "":
				id = uuid.NewString()
			case len(id) > requestIDLengthLimit:
				id = id[:requestIDLengthLimit]
			}

			w.Header().Set(RequestIDHeader, id)
			ctx = context.WithValue(ctx, requestIDKey, id)

			return handler(ctx, w, r)
		}
	}
}

// ContextRequestID returns the request id stored by RequestID, or the
// empty string.
func ContextRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

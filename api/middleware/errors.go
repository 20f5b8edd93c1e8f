package middleware

import (
	"context"
	"net/http"

	"github.com/rfebrian/storefront/api/web"
	"github.com/rfebrian/storefront/api/weberr"
	"github.com/sirupsen/logrus"
)

// Errors logs every handler error and turns it into a JSON response.
// Errors without an attached response become an opaque 500.
func Errors(log logrus.FieldLogger) web.Middleware {
	return func(handler web.Handler) web.Handler {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			entry := map[string]any{
				"req_id":  ContextRequestID(ctx),
				"message": err,
			}
			if extra, ok := weberr.Fields(err); ok {
				for k, v := range extra {
					entry[k] = v
				}
			}
			log.WithFields(logrus.Fields(entry)).Error("ERROR")

			if body, status, ok := weberr.Response(err); ok {
				return web.Respond(ctx, w, body, status)
			}

			resp := weberr.ErrorResponse{
				Error: http.StatusText(http.StatusInternalServerError),
			}
			return web.Respond(ctx, w, resp, http.StatusInternalServerError)
		}
	}
}

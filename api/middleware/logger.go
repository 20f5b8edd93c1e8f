package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rfebrian/storefront/api/web"
	"github.com/sirupsen/logrus"
	"github.com/zenazn/goji/web/mutil"
)

// Logger writes one line when a request starts and one when it
// completes, with the status code and bytes taken from the wrapped
// response writer.
func Logger(log logrus.FieldLogger) web.Middleware {
	return func(handler web.Handler) web.Handler {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			entry := log.WithFields(logrus.Fields{
				"req_id": ContextRequestID(ctx),
				"method": r.Method,
				"path":   r.URL.Path,
				"remote": r.RemoteAddr,
			})

			entry.Info("request started")
			start := time.Now().UTC()

			lw := mutil.WrapWriter(w)
			err := handler(ctx, lw, r)

			entry.WithFields(logrus.Fields{
				"status":   lw.Status(),
				"bytes":    lw.BytesWritten(),
				"duration": time.Since(start).String(),
			}).Info("request completed")

			return err
		}
	}
}

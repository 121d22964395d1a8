package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/tsparse/tsparse/internal/web/response"
)

// Recovery turns a panic in a handler into a 500 response. The panic value
// and stack are logged; the client only sees a generic message.
func Recovery(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("panic recovered",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("panic", fmt.Sprint(rec)),
					zap.ByteString("stack", debug.Stack()))

				response.RenderError(w, http.StatusInternalServerError, "internal_server_error",
					"An unexpected error occurred")
			}()

			next.ServeHTTP(w, r)
		})
	}
}

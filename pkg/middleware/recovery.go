package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"roomreserve/pkg/auth"
	apperrors "roomreserve/pkg/errors"
	httputil "roomreserve/pkg/http"
	"roomreserve/pkg/logger"
)

// Recovery turns a handler panic into a 500 response. http.ErrAbortHandler is re-raised so the
// server still aborts the connection silently.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				log.Error("Panic recovered",
					"request_id", RequestID(r),
					"principal_id", auth.FromContext(r.Context()).ID,
					"method", r.Method,
					"path", r.URL.Path,
					"error", rec,
					"stack", string(debug.Stack()),
				)
				_ = httputil.WriteError(w, apperrors.Internal("Internal server error", fmt.Errorf("panic: %v", rec)))
			}()

			next.ServeHTTP(w, r)
		})
	}
}

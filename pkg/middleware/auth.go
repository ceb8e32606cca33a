package middleware

import (
	"net/http"
	"strings"

	"roomreserve/pkg/auth"
	apperrors "roomreserve/pkg/errors"
	httputil "roomreserve/pkg/http"
	"roomreserve/pkg/logger"
)

type TokenParser interface {
	Parse(raw string) (auth.Principal, error)
}

// Authenticate attaches the caller's principal to the request context. Requests without an
// Authorization header continue as anonymous; a header that does not hold a valid bearer
// token is rejected with 401.
func Authenticate(parser TokenParser, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), auth.Anonymous)))
				return
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				_ = httputil.WriteError(w, apperrors.Unauthorized("Missing bearer token"))
				return
			}

			principal, err := parser.Parse(strings.TrimSpace(raw))
			if err != nil {
				log.Warn("Rejected bearer token",
					"request_id", RequestID(r),
					"path", r.URL.Path,
					"error", err,
				)
				_ = httputil.WriteError(w, apperrors.Unauthorized("Invalid token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

package middleware

import (
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/api/responses"
	pkgerrors "github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	pkgredis "github.com/zapkart/zapkart-backend/pkg/redis"
)

// RateLimit throttles by authenticated user, falling back to client IP
// for anonymous routes such as login.
func RateLimit(limiter *pkgredis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			identity := UserIDFromContext(r.Context()).String()
			if identity == uuid.Nil.String() {
				identity = clientIP(r)
			}

			allowed, err := limiter.Allow(r.Context(), identity)
			if err != nil {
				// Redis trouble should not take the API down.
				if logg != nil {
					logg.Error(r.Context(), "rate limit check failed", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

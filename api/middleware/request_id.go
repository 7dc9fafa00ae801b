package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/pkg/config"
	"github.com/zapkart/zapkart-backend/pkg/logger"
)

func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(config.HeaderRequestID)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			w.Header().Set(config.HeaderRequestID, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

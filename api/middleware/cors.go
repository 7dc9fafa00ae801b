package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/zapkart/zapkart-backend/pkg/config"
)

// CORS applies the configured allowed-origin policy.
func CORS(cfg config.HTTPConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", config.HeaderIdempotencyKey, config.HeaderRequestID},
		ExposedHeaders:   []string{config.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}

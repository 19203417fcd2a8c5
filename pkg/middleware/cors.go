package middleware

import (
	"abclisting/pkg/logger"
	"net/http"

	"github.com/rs/cors"
)

// CORS lets the web client call the API with a bearer token.
func CORS(allowedOrigins []string, log *logger.Logger) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Authorization",
			"Content-Type",
			"Idempotency-Key",
			RequestIDHeader,
		},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})

	log.Info("CORS configured", "allowed_origins", allowedOrigins)
	return c.Handler
}

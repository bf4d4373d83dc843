package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/oshokin/calibration-helper/internal/logger"
)

// AccessLog logs one line per request with a request-scoped "http" logger.
// The logger is stored in the request context for the handlers.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx := logger.WithName(r.Context(), "http")
		if id := chimiddleware.GetReqID(ctx); id != "" {
			ctx = logger.WithKV(ctx, "request_id", id)
		}

		sw := wrap(w)
		next.ServeHTTP(sw, r.WithContext(ctx))

		logger.InfoKV(ctx, "HTTP request",
			"method", r.Method,
			"uri", r.RequestURI,
			"status", sw.status,
			"size", sw.size,
			"duration", time.Since(start),
		)
	})
}

package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Srinathnulidonda/Savlinks/internal/domain"
	"github.com/Srinathnulidonda/Savlinks/internal/pkg/logging"
)

// LoggingMiddleware creates HTTP middleware that injects request-scoped logger
// This adapter bridges chi-specific middleware with our generic logging package
func LoggingMiddleware(baseLogger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			if reqID := middleware.GetReqID(ctx); reqID != "" {
				ctx = logging.WithRequestID(ctx, reqID)
			}

			traceID := r.Header.Get("X-Trace-Id")
			if traceID == "" {
				traceID = logging.GenerateTraceID()
			}
			ctx = logging.WithTraceID(ctx, traceID)

			w.Header().Set("X-Trace-Id", traceID)

			requestLogger := logging.NewRequestLogger(ctx, baseLogger)
			ctx = logging.WithLogger(ctx, requestLogger)

			requestLogger.Info("Request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r.WithContext(ctx))

			duration := time.Since(start)
			requestLogger.Info("Request completed",
				"status_code", ww.statusCode,
				"duration_ms", float64(duration.Nanoseconds())/1e6,
			)
		})
	}
}

// RequireAuth verifies the bearer credential and stores the resolved
// identity in the request context.
func RequireAuth(verifier domain.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respondWithError(w, http.StatusUnauthorized, "Missing bearer credential")
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				var authErr *domain.AuthError
				if errors.As(err, &authErr) && authErr.Kind == domain.AuthErrUnavailable {
					logging.FromContext(r.Context()).Error("Identity provider unavailable", "error", err)
					respondWithError(w, http.StatusServiceUnavailable, "Identity provider unavailable")
					return
				}
				respondWithError(w, http.StatusUnauthorized, "Invalid or expired credential")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *identity)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

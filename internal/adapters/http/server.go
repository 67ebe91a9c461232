package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpswagger "github.com/swaggo/http-swagger"

	"github.com/Srinathnulidonda/Savlinks/config"
	"github.com/Srinathnulidonda/Savlinks/internal/domain"
	"github.com/Srinathnulidonda/Savlinks/internal/pkg/metrics"
)

func NewRouter(
	handlers *Handlers,
	logger *slog.Logger,
	cfg *config.Config,
	metricsRegistry metrics.Registry,
	verifier domain.TokenVerifier,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(logger))
	r.Use(metrics.PrometheusMiddleware(metricsRegistry))
	r.Use(middleware.Recoverer)

	r.Get("/health", handlers.HandleHealth)
	r.Get("/ready", handlers.HandleReady)

	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, metricsRegistry.GetHandler())
	}

	r.Get("/swagger/*", httpswagger.Handler(
		httpswagger.URL("http://localhost:8080/swagger/doc.json"),
	))
	r.Get("/redoc", handleRedoc)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/resend-verification", handlers.HandleResendVerification)
		r.Post("/forgot-password", handlers.HandleForgotPassword)
	})

	r.Route("/links", func(r chi.Router) {
		r.Use(RequireAuth(verifier))

		r.Post("/", handlers.HandleCreateLink)
		r.Get("/", handlers.HandleListLinks)
		r.Get("/stats", handlers.HandleStats)
		r.Get("/check-slug", handlers.HandleCheckSlug)

		r.Get("/{linkID}", handlers.HandleGetLink)
		r.Put("/{linkID}", handlers.HandleUpdateLink)
		r.Delete("/{linkID}", handlers.HandleDeleteLink)
		r.Post("/{linkID}/toggle", handlers.HandleToggleLink)
	})

	r.Get("/{slug}", handlers.HandleRedirect)
	r.Head("/{slug}", handlers.HandleRedirect)
	r.Get("/{slug}/preview", handlers.HandlePreview)

	return r
}

func handleRedoc(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	redocHTML := `<!DOCTYPE html>
<html>
<head>
    <title>Savlinks API Documentation - Redoc</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <link href="https://fonts.googleapis.com/css?family=Montserrat:300,400,700|Roboto:300,400,700" rel="stylesheet">
    <style>
        body {
            margin: 0;
            padding: 0;
        }
    </style>
</head>
<body>
    <redoc spec-url='/swagger/doc.json'></redoc>
    <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`
	_, _ = w.Write([]byte(redocHTML))
}

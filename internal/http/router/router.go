// Package router arma el chi.Router completo del servicio: middlewares
// globales, rutas públicas (health, webhook de billing) y rutas
// autenticadas (catálogo y generación).
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/promptcast/internal/billing"
	httperrors "github.com/dropDatabas3/promptcast/internal/http/errors"
	"github.com/dropDatabas3/promptcast/internal/http/handlers"
	mw "github.com/dropDatabas3/promptcast/internal/http/middlewares"
	"github.com/dropDatabas3/promptcast/internal/identity"
	"github.com/dropDatabas3/promptcast/internal/rate"
)

// Deps contiene todas las dependencias inyectables del router.
type Deps struct {
	Verifier identity.Verifier

	Generate *handlers.Generate
	Tools    *handlers.Tools
	Health   *handlers.Health

	// Billing es opcional: sin Stripe configurado la ruta no se registra.
	Billing *billing.WebhookHandler

	// RateLimiter es opcional: nil desactiva el rate limiting.
	RateLimiter rate.Limiter

	CORSAllowedOrigins []string
}

// New construye el router con el pipeline de middlewares en orden:
// request-id → logging → recover → security headers → CORS, y por
// grupo: rate limit → auth.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithRecover(),
		mw.WithSecurityHeaders(),
		mw.WithCORS(deps.CORSAllowedOrigins),
	)

	// Públicas: sin auth ni rate limit.
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)

	if deps.Billing != nil {
		// Stripe firma el body; la verificación de firma ES la auth.
		r.Post("/v1/billing/webhook", deps.Billing.ServeHTTP)
	}

	// Autenticadas.
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(mw.WithRateLimit(mw.RateLimitConfig{
				Limiter: deps.RateLimiter,
				KeyFunc: mw.IPPathRateKey,
			}))
		}
		r.Use(mw.RequireAuth(deps.Verifier))

		r.Get("/v1/tools", deps.Tools.ServeHTTP)
		r.Post("/v1/generate", deps.Generate.ServeHTTP)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	return r
}

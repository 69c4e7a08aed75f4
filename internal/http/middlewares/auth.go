package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/promptcast/internal/http/errors"
	"github.com/dropDatabas3/promptcast/internal/identity"
)

// RequireAuth resuelve la identidad del request via el Verifier inyectado
// y la guarda en el contexto. Responde 401 si la verificación falla
// (en modo open un request sin token NO falla: recibe la identidad fallback).
//
// La verificación ocurre ANTES de cualquier trabajo de catálogo, entitlement
// o upstream: auth es el primer estadio del pipeline.
func RequireAuth(verifier identity.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := verifier.Verify(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}

			ctx := WithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Package middleware holds the chi-compatible request wrappers that bind platform
// sessions to requests and guard protected views.
package middleware

import (
	"net/http"

	"archie-shopify-session-layer/internal/domain"
	"archie-shopify-session-layer/internal/ports"

	"github.com/rs/zerolog"
)

// Activator attaches the caller's platform session, or an empty activation, to every request
type Activator struct {
	tokenStore ports.TokenStore
	apiVersion string
	logger     zerolog.Logger
}

// NewActivator creates the per-request session activator
func NewActivator(tokenStore ports.TokenStore, apiVersion string, logger zerolog.Logger) *Activator {
	return &Activator{
		tokenStore: tokenStore,
		apiVersion: apiVersion,
		logger:     logger,
	}
}

// Handler never rejects a request; it only annotates the context.
// The activation is released when next returns.
func (a *Activator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var session *domain.Session

		shopToken, err := a.tokenStore.Get(r.Context())
		switch {
		case err != nil:
			a.logger.Warn().Err(err).Msg("Token lookup failed, continuing unauthenticated")
		case shopToken != nil:
			session = domain.NewSession(shopToken.Shop, a.apiVersion, shopToken.Token)
		}

		ctx, activation := domain.WithActivation(r.Context(), session)
		defer activation.Release()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

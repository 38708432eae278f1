package middleware

import (
	"context"
	"net/http"
	"net/url"

	"archie-shopify-session-layer/internal/domain"
	"archie-shopify-session-layer/internal/infrastructure/metrics"
	"archie-shopify-session-layer/internal/ports"

	"github.com/rs/zerolog"
)

// SessionTerminator logs the caller out
type SessionTerminator interface {
	Logout(ctx context.Context) error
}

// Guards protects handlers that need a logged-in caller for the right shop
type Guards struct {
	tokenStore ports.TokenStore
	sessions   SessionTerminator
	loginPath  string
	apiVersion string
	logger     zerolog.Logger
}

// NewGuards creates the access guards. An empty loginPath makes RequireLogin answer 401
// and RequireMatchingShop answer 403 instead of redirecting.
func NewGuards(
	tokenStore ports.TokenStore,
	sessions SessionTerminator,
	loginPath string,
	apiVersion string,
	logger zerolog.Logger,
) *Guards {
	return &Guards{
		tokenStore: tokenStore,
		sessions:   sessions,
		loginPath:  loginPath,
		apiVersion: apiVersion,
		logger:     logger,
	}
}

// RequireLogin sends callers without a token to the login entry point with the requested
// shop and the original request URI as next. Otherwise the wrapped handler runs inside its
// own temporary activation, released on every exit path.
func (g *Guards) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shopToken, err := g.tokenStore.Get(r.Context())
		if err != nil {
			g.logger.Warn().Err(err).Msg("Token lookup failed, treating caller as logged out")
			shopToken = nil
		}

		if shopToken == nil {
			if g.loginPath == "" {
				metrics.RecordGuard("require_login", "unauthorized")
				http.Error(w, "login required", http.StatusUnauthorized)
				return
			}
			metrics.RecordGuard("require_login", "redirect")
			http.Redirect(w, r, g.loginURL(r.URL.Query().Get("shop"), r.URL.RequestURI()), http.StatusFound)
			return
		}

		session := domain.NewSession(shopToken.Shop, g.apiVersion, shopToken.Token)
		ctx, temp := domain.WithActivation(r.Context(), session)
		defer temp.Release()

		metrics.RecordGuard("require_login", "allowed")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireMatchingShop only lets the request through when the active session belongs to the
// shop named in the shop query parameter. A mismatch logs the caller out.
func (g *Guards) RequireMatchingShop(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested := r.URL.Query().Get("shop")
		session, ok := domain.GetSessionFromContext(r.Context())
		if ok && domain.SameShop(session.Shop, requested) {
			metrics.RecordGuard("require_matching_shop", "allowed")
			next.ServeHTTP(w, r)
			return
		}

		sessionShop := ""
		if ok {
			sessionShop = session.Shop
		}
		g.logger.Warn().
			Str("session_shop", sessionShop).
			Str("requested_shop", requested).
			Msg("Shop mismatch, logging caller out")

		if err := g.sessions.Logout(r.Context()); err != nil {
			g.logger.Error().Err(err).Msg("Logout after shop mismatch failed")
		}
		metrics.RecordLogout()

		if g.loginPath == "" {
			metrics.RecordGuard("require_matching_shop", "forbidden")
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		metrics.RecordGuard("require_matching_shop", "redirect")
		http.Redirect(w, r, g.loginURL(requested, ""), http.StatusFound)
	})
}

func (g *Guards) loginURL(shop, next string) string {
	q := url.Values{}
	if shop != "" {
		q.Set("shop", shop)
	}
	if next != "" {
		q.Set("next", next)
	}
	if len(q) == 0 {
		return g.loginPath
	}
	return g.loginPath + "?" + q.Encode()
}

package application

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/url"

	"archie-shopify-session-layer/internal/domain"
	"archie-shopify-session-layer/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthServiceConfig holds the process-wide settings of the authorization flow
type AuthServiceConfig struct {
	APIVersion    string
	DefaultScopes []string
	RedirectURI   string
}

// AuthService drives installation, the authorization callback and logout.
// It depends on ports (interfaces) not concrete implementations.
type AuthService struct {
	client        ports.ShopifyClient
	tokenStore    ports.TokenStore
	nonceStore    ports.NonceStore
	renewer       ports.SessionRenewer
	apiVersion    string
	defaultScopes []string
	redirectURI   string
	logger        zerolog.Logger
}

// NewAuthService creates a new auth service. nonceStore may be nil, which disables state checks.
// renewer may be nil when the caller identity is not a cookie session.
func NewAuthService(
	client ports.ShopifyClient,
	tokenStore ports.TokenStore,
	nonceStore ports.NonceStore,
	renewer ports.SessionRenewer,
	cfg AuthServiceConfig,
	logger zerolog.Logger,
) *AuthService {
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = domain.DefaultAPIVersion
	}
	return &AuthService{
		client:        client,
		tokenStore:    tokenStore,
		nonceStore:    nonceStore,
		renewer:       renewer,
		apiVersion:    apiVersion,
		defaultScopes: cfg.DefaultScopes,
		redirectURI:   cfg.RedirectURI,
		logger:        logger,
	}
}

// Redirect is the instruction returned to the HTTP layer
type Redirect struct {
	URL string
}

// APIVersion is the version every session of this process is pinned to
func (s *AuthService) APIVersion() string {
	return s.apiVersion
}

// Install builds the permission URL for a shop subdomain. A nil scopes slice falls back to the
// configured defaults and an empty redirectURI to the configured callback. Nothing is persisted
// apart from the state nonce.
func (s *AuthService) Install(ctx context.Context, shopSubdomain string, scopes []string, redirectURI string) (*Redirect, error) {
	shop, err := domain.ShopDomain(shopSubdomain)
	if err != nil {
		return nil, err
	}
	if scopes == nil {
		scopes = append([]string(nil), s.defaultScopes...)
	}
	if redirectURI == "" {
		redirectURI = s.redirectURI
	}

	// transient, token-less session used only to address the permission URL
	session := domain.NewSession(shop, s.apiVersion, "")

	state := uuid.NewString()
	if s.nonceStore != nil {
		if err := s.nonceStore.SaveNonce(ctx, state); err != nil {
			return nil, fmt.Errorf("failed to save install state: %w", err)
		}
	}

	permissionURL, err := s.client.PermissionURL(domain.PermissionRequest{
		Shop:        session.Shop,
		Scopes:      scopes,
		RedirectURI: redirectURI,
		State:       state,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to generate permission URL")
		return nil, err
	}

	s.logger.Info().
		Str("shop", shop).
		Strs("scopes", scopes).
		Msg("Redirecting to permission grant")

	return &Redirect{URL: permissionURL}, nil
}

// Authenticate completes the handshake for the callback parameters. The callback must be
// signed with the shared secret and fresh; on any failure an *domain.AuthenticationError is
// returned and nothing is stored.
func (s *AuthService) Authenticate(ctx context.Context, params url.Values) (*domain.ShopToken, error) {
	shop := params.Get("shop")
	if shop == "" {
		return nil, domain.NewAuthenticationError("", "missing shop parameter", nil)
	}
	shopDomain, err := domain.ShopDomain(shop)
	if err != nil {
		return nil, domain.NewAuthenticationError(shop, "invalid shop parameter", err)
	}
	session := domain.NewSession(shop, s.apiVersion, "")

	if err := s.client.VerifyCallback(params); err != nil {
		s.logger.Warn().Err(err).Str("shop", shop).Msg("Rejected authorization callback")
		return nil, domain.NewAuthenticationError(shop, "invalid callback signature", err)
	}

	if s.nonceStore != nil {
		expected, err := s.nonceStore.ConsumeNonce(ctx)
		if err != nil {
			return nil, domain.NewAuthenticationError(shop, "install state unavailable", err)
		}
		if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(params.Get("state"))) != 1 {
			s.logger.Warn().Str("shop", shop).Msg("Rejected authorization callback with unknown state")
			return nil, domain.NewAuthenticationError(shop, "state mismatch", nil)
		}
	}

	code := params.Get("code")
	if code == "" {
		return nil, domain.NewAuthenticationError(shop, "missing authorization code", nil)
	}

	token, err := s.client.ExchangeToken(ctx, shopDomain, code)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Token exchange rejected")
		return nil, domain.NewAuthenticationError(shop, "token exchange rejected", err)
	}
	session.Token = token

	activation, activated := domain.GetActivationFromContext(ctx)
	if activated {
		activation.Activate(session)
	}

	// the token must never land under a session id that existed before login
	if s.renewer != nil {
		if err := s.renewer.Renew(ctx); err != nil {
			if activated {
				activation.Release()
			}
			s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to renew caller session")
			return nil, fmt.Errorf("failed to renew caller session: %w", err)
		}
	}

	if err := s.tokenStore.Put(ctx, shop, token); err != nil {
		if activated {
			activation.Release()
		}
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to store access token")
		return nil, fmt.Errorf("failed to store access token: %w", err)
	}

	s.logger.Info().Str("shop", shop).Str("api_version", s.apiVersion).Msg("Shop authorized")
	return &domain.ShopToken{Shop: shop, Token: token}, nil
}

// Logout forgets the caller's token and deactivates the request's session. Calling it
// again is harmless.
func (s *AuthService) Logout(ctx context.Context) error {
	err := s.tokenStore.Clear(ctx)
	domain.DeactivateAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear token store: %w", err)
	}
	return nil
}

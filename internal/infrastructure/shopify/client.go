package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"archie-shopify-session-layer/internal/domain"
	"archie-shopify-session-layer/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

const (
	// DefaultCallbackMaxAge bounds how old a signed callback may be
	DefaultCallbackMaxAge = 5 * time.Minute

	// callbackClockSkew tolerates platform clocks running slightly ahead of ours
	callbackClockSkew = time.Minute
)

var (
	ErrMissingSignature = errors.New("callback is not signed")
	ErrInvalidSignature = errors.New("callback signature mismatch")
	ErrMissingTimestamp = errors.New("callback timestamp missing or malformed")
	ErrStaleCallback    = errors.New("callback timestamp outside accepted window")
)

type client struct {
	apiKey         string
	app            goshopify.App
	callbackMaxAge time.Duration
	now            func() time.Time
	logger         zerolog.Logger
}

// NewClient creates a new Shopify client adapter
func NewClient(apiKey, apiSecret string) ports.ShopifyClient {
	return NewClientWithOptions(apiKey, apiSecret, DefaultCallbackMaxAge, zerolog.Nop())
}

// NewClientWithOptions creates a client with an explicit callback window and logger
func NewClientWithOptions(apiKey, apiSecret string, callbackMaxAge time.Duration, logger zerolog.Logger) ports.ShopifyClient {
	if callbackMaxAge <= 0 {
		callbackMaxAge = DefaultCallbackMaxAge
	}
	return &client{
		apiKey: apiKey,
		app: goshopify.App{
			ApiKey:    apiKey,
			ApiSecret: apiSecret,
		},
		callbackMaxAge: callbackMaxAge,
		now:            time.Now,
		logger:         logger,
	}
}

// Authentication methods

func (c *client) PermissionURL(req domain.PermissionRequest) (string, error) {
	// AuthorizeUrl reads scope and redirect URI from the App value, so work on a copy
	app := c.app
	app.Scope = strings.Join(req.Scopes, ",")
	app.RedirectUrl = req.RedirectURI

	authURL, err := app.AuthorizeUrl(req.Shop, req.State)
	if err != nil {
		return "", fmt.Errorf("failed to build permission url: %w", err)
	}

	c.logger.Debug().
		Str("shop", req.Shop).
		Strs("scopes", req.Scopes).
		Str("redirect_uri", req.RedirectURI).
		Msg("Generated OAuth authorization URL")

	return authURL, nil
}

// VerifyCallback checks the HMAC of the callback parameters against the shared secret
// (constant-time, inside go-shopify) and rejects callbacks outside the timestamp window.
func (c *client) VerifyCallback(params url.Values) error {
	if params.Get("hmac") == "" {
		return ErrMissingSignature
	}

	ok, err := c.app.VerifyAuthorizationURL(&url.URL{RawQuery: params.Encode()})
	if err != nil {
		return fmt.Errorf("failed to verify callback signature: %w", err)
	}
	if !ok {
		return ErrInvalidSignature
	}

	ts, err := strconv.ParseInt(params.Get("timestamp"), 10, 64)
	if err != nil {
		return ErrMissingTimestamp
	}
	issued := time.Unix(ts, 0)
	now := c.now()
	if now.Sub(issued) > c.callbackMaxAge || issued.Sub(now) > callbackClockSkew {
		return ErrStaleCallback
	}

	return nil
}

func (c *client) ExchangeToken(ctx context.Context, shop string, code string) (string, error) {
	token, err := c.app.GetAccessToken(ctx, shop, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange token: %w", err)
	}
	if token == "" {
		return "", fmt.Errorf("failed to exchange token: empty access token in response")
	}
	return token, nil
}

// Webhooks

func (c *client) VerifyWebhook(r *http.Request) bool {
	return c.app.VerifyWebhookRequest(r)
}

// Admin API

func (c *client) APIClient(session *domain.Session) (*goshopify.Client, error) {
	if session == nil {
		return nil, fmt.Errorf("failed to create client: no active session")
	}
	if !session.HasToken() {
		return nil, fmt.Errorf("failed to create client: session for %s has no token", session.Shop)
	}
	apiClient, err := goshopify.NewClient(c.app, session.Shop, session.Token, goshopify.WithVersion(session.APIVersion))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return apiClient, nil
}

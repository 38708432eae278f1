package ports

import (
	"context"
	"net/http"
	"net/url"

	"archie-shopify-session-layer/internal/domain"

	shopify "github.com/bold-commerce/go-shopify/v4"
)

// ShopifyClient defines the platform operations the session layer orchestrates
type ShopifyClient interface {
	// Authentication
	PermissionURL(req domain.PermissionRequest) (string, error)
	VerifyCallback(params url.Values) error
	ExchangeToken(ctx context.Context, shop string, code string) (string, error)

	// Webhooks
	VerifyWebhook(r *http.Request) bool

	// APIClient returns an Admin API client authorized by the session's token and pinned to its version
	APIClient(session *domain.Session) (*shopify.Client, error)
}

package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"archie-shopify-session-layer/internal/domain"
	"archie-shopify-session-layer/internal/ports"

	"github.com/rs/zerolog"
)

// AppUninstalledHandler revokes a shop's stored token when the merchant uninstalls the app
type AppUninstalledHandler struct {
	logger    zerolog.Logger
	tokenRepo ports.ShopTokenRepository
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler.
// tokenRepo may be nil when tokens only live in caller sessions.
func NewAppUninstalledHandler(logger zerolog.Logger, tokenRepo ports.ShopTokenRepository) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		logger:    logger,
		tokenRepo: tokenRepo,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == "app/uninstalled"
}

// Handle processes an app uninstalled webhook event
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shopDomain := event.Shop
	if shopDomain == "" {
		var shopData struct {
			Domain          string `json:"domain"`
			MyshopifyDomain string `json:"myshopify_domain"`
		}
		if err := json.Unmarshal(event.Payload, &shopData); err != nil {
			return fmt.Errorf("failed to parse app uninstalled webhook payload: %w", err)
		}
		shopDomain = shopData.MyshopifyDomain
		if shopDomain == "" {
			shopDomain = shopData.Domain
		}
	}
	if shopDomain == "" {
		return fmt.Errorf("app uninstalled webhook without shop domain")
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", shopDomain).
		Msg("Processing app uninstalled webhook event")

	if h.tokenRepo == nil {
		// session-held tokens die with the session; the platform has already revoked them
		return nil
	}

	if err := h.tokenRepo.Delete(ctx, domain.CanonicalShop(shopDomain)); err != nil {
		return fmt.Errorf("failed to revoke token for %s: %w", shopDomain, err)
	}

	h.logger.Info().Str("shop", shopDomain).Msg("App uninstalled - stored token removed")
	return nil
}

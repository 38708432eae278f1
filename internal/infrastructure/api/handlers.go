// Package api holds the HTTP handlers of the auth endpoints, the protected admin views
// and the webhook receiver.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"archie-shopify-session-layer/internal/application"
	"archie-shopify-session-layer/internal/domain"
	"archie-shopify-session-layer/internal/infrastructure/metrics"
	shopifyinfra "archie-shopify-session-layer/internal/infrastructure/shopify"
	"archie-shopify-session-layer/internal/ports"

	"github.com/rs/zerolog"
)

const (
	headerTopic      = "X-Shopify-Topic"
	headerShopDomain = "X-Shopify-Shop-Domain"

	topicAppUninstalled = "app/uninstalled"

	maxWebhookBody = 1 << 20
)

// Handlers serves the auth flow and the views built on it
type Handlers struct {
	auth       *application.AuthService
	client     ports.ShopifyClient
	dispatcher *application.WebhookDispatcher
	loginPath  string
	logger     zerolog.Logger
}

// NewHandlers creates the HTTP handlers
func NewHandlers(
	auth *application.AuthService,
	client ports.ShopifyClient,
	dispatcher *application.WebhookDispatcher,
	loginPath string,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		auth:       auth,
		client:     client,
		dispatcher: dispatcher,
		loginPath:  loginPath,
		logger:     logger,
	}
}

// Install redirects the merchant to the permission grant for ?shop=<subdomain>.
// An optional ?scope=a,b overrides the configured scopes.
func (h *Handlers) Install(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	shop := query.Get("shop")
	if shop == "" {
		http.Error(w, "shop parameter is required", http.StatusBadRequest)
		return
	}

	var scopes []string
	if query.Has("scope") {
		scopes = splitScopes(query.Get("scope"))
	}

	redirect, err := h.auth.Install(r.Context(), shop, scopes, "")
	if err != nil {
		metrics.RecordInstall("error")
		if errors.Is(err, domain.ErrInvalidShop) {
			http.Error(w, "invalid shop parameter", http.StatusBadRequest)
			return
		}
		h.logger.Error().Err(err).Str("shop", shop).Msg("Failed to start installation")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	metrics.RecordInstall("redirected")
	http.Redirect(w, r, redirect.URL, http.StatusFound)
}

// Callback completes the permission grant and lands the merchant on the admin view
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	shopToken, err := h.auth.Authenticate(r.Context(), r.URL.Query())
	if err != nil {
		if errors.Is(err, domain.ErrAuthentication) {
			metrics.RecordCallback("rejected")
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}
		metrics.RecordCallback("error")
		h.logger.Error().Err(err).Msg("Failed to complete installation")
		http.Error(w, "Failed to complete installation", http.StatusInternalServerError)
		return
	}

	metrics.RecordCallback("success")
	http.Redirect(w, r, "/admin?"+url.Values{"shop": {shopToken.Shop}}.Encode(), http.StatusFound)
}

// Logout forgets the caller's token
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Failed to log out")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	metrics.RecordLogout()

	if h.loginPath != "" {
		http.Redirect(w, r, h.loginPath, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Admin reports which shop and API version the request is bound to. It must sit behind the guards.
func (h *Handlers) Admin(w http.ResponseWriter, r *http.Request) {
	session, ok := domain.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "no active session", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"shop":        session.Shop,
		"api_version": session.APIVersion,
	})
}

// AdminShop fetches the shop resource with the active session's token
func (h *Handlers) AdminShop(w http.ResponseWriter, r *http.Request) {
	session, ok := domain.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "no active session", http.StatusUnauthorized)
		return
	}

	apiClient, err := h.client.APIClient(session)
	if err != nil {
		h.logger.Error().Err(err).Str("shop", session.Shop).Msg("Failed to create API client")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	shop, err := apiClient.Shop.Get(r.Context(), nil)
	if shopifyinfra.IsTokenRevoked(err) {
		h.logger.Warn().Str("shop", session.Shop).Msg("Access token revoked, logging caller out")
		if err := h.auth.Logout(r.Context()); err != nil {
			h.logger.Error().Err(err).Msg("Failed to log out")
		}
		metrics.RecordLogout()
		http.Error(w, "access token revoked", http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("shop", session.Shop).Msg("Failed to get shop")
		http.Error(w, "Failed to reach Shopify", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"name":             shop.Name,
		"domain":           shop.Domain,
		"myshopify_domain": shop.MyshopifyDomain,
		"plan":             shop.PlanName,
		"api_version":      session.APIVersion,
	})
}

// Webhook receives signed platform webhooks and dispatches them by topic
func (h *Handlers) Webhook(w http.ResponseWriter, r *http.Request) {
	topic := r.Header.Get(headerTopic)
	if topic == "" {
		h.logger.Warn().Msg("Missing X-Shopify-Topic header")
		http.Error(w, "Missing X-Shopify-Topic header", http.StatusBadRequest)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read webhook payload")
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(payload))

	if !h.client.VerifyWebhook(r) {
		h.logger.Warn().Str("topic", topic).Msg("Webhook signature verification failed")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	event := &domain.WebhookEvent{
		Topic:    topic,
		Shop:     r.Header.Get(headerShopDomain),
		Payload:  payload,
		Verified: true,
	}
	if err := h.dispatcher.Dispatch(r.Context(), event); err != nil {
		h.logger.Error().
			Err(err).
			Str("topic", topic).
			Str("shop", event.Shop).
			Msg("Failed to dispatch webhook event")
		// 500 makes the platform retry
		http.Error(w, "Failed to process webhook event", http.StatusInternalServerError)
		return
	}
	if topic == topicAppUninstalled {
		metrics.RecordUninstall()
	}

	writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
}

// Health reports that the process is serving
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func splitScopes(raw string) []string {
	scopes := []string{}
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}

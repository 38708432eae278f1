package application

import (
	"context"
	"fmt"

	"archie-shopify-session-layer/internal/domain"

	"github.com/rs/zerolog"
)

// WebhookHandler processes the topics it claims
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes verified webhook events to registered handlers
type WebhookDispatcher struct {
	handlers []WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates a new webhook dispatcher
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler
func (d *WebhookDispatcher) RegisterHandler(h WebhookHandler) {
	d.handlers = append(d.handlers, h)
}

// Dispatch runs every handler that claims the event's topic. Unclaimed topics are ignored.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	if !event.Verified {
		return fmt.Errorf("refusing to dispatch unverified webhook for topic %s", event.Topic)
	}

	handled := false
	for _, h := range d.handlers {
		if !h.CanHandle(event.Topic) {
			continue
		}
		handled = true
		if err := h.Handle(ctx, event); err != nil {
			return fmt.Errorf("failed to handle %s webhook: %w", event.Topic, err)
		}
	}

	if !handled {
		d.logger.Debug().Str("topic", event.Topic).Str("shop", event.Shop).Msg("No handler for webhook topic")
	}
	return nil
}

package application

import (
	"context"
	"errors"
	"testing"

	"archie-shopify-session-layer/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	topic  string
	events []*domain.WebhookEvent
	err    error
}

func (h *recordingHandler) CanHandle(topic string) bool { return topic == h.topic }

func (h *recordingHandler) Handle(_ context.Context, event *domain.WebhookEvent) error {
	h.events = append(h.events, event)
	return h.err
}

func TestDispatchRoutesByTopic(t *testing.T) {
	uninstall := &recordingHandler{topic: "app/uninstalled"}
	other := &recordingHandler{topic: "shop/update"}

	d := NewWebhookDispatcher(zerolog.Nop())
	d.RegisterHandler(uninstall)
	d.RegisterHandler(other)

	event := &domain.WebhookEvent{Topic: "app/uninstalled", Shop: "acme.myshopify.com", Verified: true}
	require.NoError(t, d.Dispatch(context.Background(), event))

	assert.Len(t, uninstall.events, 1)
	assert.Empty(t, other.events)
}

func TestDispatchIgnoresUnclaimedTopics(t *testing.T) {
	d := NewWebhookDispatcher(zerolog.Nop())
	d.RegisterHandler(&recordingHandler{topic: "app/uninstalled"})

	err := d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: "orders/create", Verified: true})
	assert.NoError(t, err)
}

func TestDispatchRefusesUnverifiedEvents(t *testing.T) {
	h := &recordingHandler{topic: "app/uninstalled"}
	d := NewWebhookDispatcher(zerolog.Nop())
	d.RegisterHandler(h)

	err := d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: "app/uninstalled"})
	assert.Error(t, err)
	assert.Empty(t, h.events)
}

func TestDispatchWrapsHandlerErrors(t *testing.T) {
	d := NewWebhookDispatcher(zerolog.Nop())
	d.RegisterHandler(&recordingHandler{topic: "app/uninstalled", err: errors.New("mongo unavailable")})

	err := d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: "app/uninstalled", Verified: true})
	assert.ErrorContains(t, err, "app/uninstalled")
	assert.ErrorContains(t, err, "mongo unavailable")
}

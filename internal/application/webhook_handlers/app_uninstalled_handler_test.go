package webhook_handlers

import (
	"context"
	"testing"

	"archie-shopify-session-layer/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenRepository struct {
	deleted []string
}

func (r *fakeTokenRepository) Save(context.Context, *domain.ShopTokenRecord) error { return nil }

func (r *fakeTokenRepository) GetByShop(context.Context, string) (*domain.ShopTokenRecord, error) {
	return nil, nil
}

func (r *fakeTokenRepository) Delete(_ context.Context, shop string) error {
	r.deleted = append(r.deleted, shop)
	return nil
}

func TestAppUninstalledHandlerCanHandle(t *testing.T) {
	h := NewAppUninstalledHandler(zerolog.Nop(), nil)
	assert.True(t, h.CanHandle("app/uninstalled"))
	assert.False(t, h.CanHandle("orders/create"))
}

func TestAppUninstalledHandlerDeletesToken(t *testing.T) {
	tests := []struct {
		name  string
		event *domain.WebhookEvent
	}{
		{
			name:  "shop header",
			event: &domain.WebhookEvent{Topic: "app/uninstalled", Shop: "acme.myshopify.com", Payload: []byte(`{}`)},
		},
		{
			name:  "payload myshopify_domain",
			event: &domain.WebhookEvent{Topic: "app/uninstalled", Payload: []byte(`{"domain":"shop.acme.com","myshopify_domain":"acme.myshopify.com"}`)},
		},
		{
			name:  "bare subdomain",
			event: &domain.WebhookEvent{Topic: "app/uninstalled", Shop: "acme"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeTokenRepository{}
			h := NewAppUninstalledHandler(zerolog.Nop(), repo)

			require.NoError(t, h.Handle(context.Background(), tt.event))
			assert.Equal(t, []string{"acme.myshopify.com"}, repo.deleted)
		})
	}
}

func TestAppUninstalledHandlerWithoutRepository(t *testing.T) {
	h := NewAppUninstalledHandler(zerolog.Nop(), nil)
	err := h.Handle(context.Background(), &domain.WebhookEvent{Topic: "app/uninstalled", Shop: "acme.myshopify.com"})
	assert.NoError(t, err)
}

func TestAppUninstalledHandlerRejectsMissingShop(t *testing.T) {
	h := NewAppUninstalledHandler(zerolog.Nop(), &fakeTokenRepository{})

	assert.Error(t, h.Handle(context.Background(), &domain.WebhookEvent{Topic: "app/uninstalled", Payload: []byte(`{}`)}))
	assert.Error(t, h.Handle(context.Background(), &domain.WebhookEvent{Topic: "app/uninstalled", Payload: []byte(`not json`)}))
}

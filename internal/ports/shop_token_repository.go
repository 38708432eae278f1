package ports

import (
	"context"

	"archie-shopify-session-layer/internal/domain"
)

// ShopTokenRepository defines the interface for durable shop token persistence
type ShopTokenRepository interface {
	// Save creates or replaces the record for record.Shop
	Save(ctx context.Context, record *domain.ShopTokenRecord) error

	// GetByShop retrieves the record for a shop domain, nil if the shop is not installed
	GetByShop(ctx context.Context, shop string) (*domain.ShopTokenRecord, error)

	// Delete removes the record for a shop domain
	Delete(ctx context.Context, shop string) error
}

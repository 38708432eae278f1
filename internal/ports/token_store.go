package ports

import (
	"context"

	"archie-shopify-session-layer/internal/domain"
)

// TokenStore persists the shop/token pair for the caller identified by ctx.
// Absence of a token is a normal state: Get returns nil, nil.
type TokenStore interface {
	Get(ctx context.Context) (*domain.ShopToken, error)
	Put(ctx context.Context, shop string, token string) error
	Clear(ctx context.Context) error
}

// NonceStore keeps the install state nonce for the caller between install and callback
type NonceStore interface {
	SaveNonce(ctx context.Context, nonce string) error
	// ConsumeNonce returns the stored nonce ("" if none) and forgets it
	ConsumeNonce(ctx context.Context) (string, error)
}

// SessionRenewer moves the caller's session to a fresh identifier.
// It runs on every login so a session id known before authentication stops working.
type SessionRenewer interface {
	Renew(ctx context.Context) error
}

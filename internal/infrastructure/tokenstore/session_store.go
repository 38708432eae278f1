// Package tokenstore holds the ports.TokenStore strategies selectable at startup.
package tokenstore

import (
	"context"

	"archie-shopify-session-layer/internal/domain"
	"archie-shopify-session-layer/internal/infrastructure/callersession"
	"archie-shopify-session-layer/internal/ports"
)

// Fixed caller session keys
const (
	ShopKey  = "shopify_shop"
	TokenKey = "shopify_token"
)

// SessionStore keeps the shop and token in the caller session. It is the default strategy.
type SessionStore struct{}

// NewSessionStore creates the default token store
func NewSessionStore() ports.TokenStore {
	return &SessionStore{}
}

func (s *SessionStore) Get(ctx context.Context) (*domain.ShopToken, error) {
	sess, err := callersession.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	shop, ok := sess.Get(ctx, ShopKey)
	if !ok {
		return nil, nil
	}
	token, ok := sess.Get(ctx, TokenKey)
	if !ok || token == "" {
		return nil, nil
	}
	return &domain.ShopToken{Shop: shop, Token: token}, nil
}

func (s *SessionStore) Put(ctx context.Context, shop string, token string) error {
	sess, err := callersession.FromContext(ctx)
	if err != nil {
		return err
	}
	sess.Set(ctx, map[string]string{
		ShopKey:  shop,
		TokenKey: token,
	})
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	sess, err := callersession.FromContext(ctx)
	if err != nil {
		return err
	}
	sess.Delete(ctx, ShopKey, TokenKey)
	return nil
}

package tokenstore

import (
	"context"
	"fmt"

	"archie-shopify-session-layer/internal/domain"
	"archie-shopify-session-layer/internal/infrastructure/callersession"
	"archie-shopify-session-layer/internal/ports"
)

// MongoStore keeps tokens in the shop token repository and binds the caller to a shop
// through the caller session. Clear only unbinds the caller; the installation record
// is removed by the uninstall webhook.
type MongoStore struct {
	repo ports.ShopTokenRepository
}

// NewMongoStore creates a repository-backed token store
func NewMongoStore(repo ports.ShopTokenRepository) ports.TokenStore {
	return &MongoStore{repo: repo}
}

func (s *MongoStore) Get(ctx context.Context) (*domain.ShopToken, error) {
	sess, err := callersession.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	shop, ok := sess.Get(ctx, ShopKey)
	if !ok {
		return nil, nil
	}

	record, err := s.repo.GetByShop(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop token: %w", err)
	}
	if record == nil || record.Token == "" {
		return nil, nil
	}
	return &domain.ShopToken{Shop: record.Shop, Token: record.Token}, nil
}

// Put saves the token under the canonical shop domain; the repository stamps install and update times
func (s *MongoStore) Put(ctx context.Context, shop string, token string) error {
	sess, err := callersession.FromContext(ctx)
	if err != nil {
		return err
	}

	shop = domain.CanonicalShop(shop)
	record := &domain.ShopTokenRecord{
		Shop:  shop,
		Token: token,
	}
	if err := s.repo.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to save shop token: %w", err)
	}
	sess.Set(ctx, map[string]string{ShopKey: shop})
	return nil
}

func (s *MongoStore) Clear(ctx context.Context) error {
	sess, err := callersession.FromContext(ctx)
	if err != nil {
		return err
	}
	sess.Delete(ctx, ShopKey)
	return nil
}

package callersession

import (
	"context"
)

const nonceKey = "shopify_state"

// NonceStore keeps the install state nonce in the caller session
type NonceStore struct{}

func NewNonceStore() *NonceStore {
	return &NonceStore{}
}

func (NonceStore) SaveNonce(ctx context.Context, nonce string) error {
	s, err := FromContext(ctx)
	if err != nil {
		return err
	}
	s.Set(ctx, map[string]string{nonceKey: nonce})
	return nil
}

func (NonceStore) ConsumeNonce(ctx context.Context) (string, error) {
	s, err := FromContext(ctx)
	if err != nil {
		return "", err
	}
	nonce, _ := s.Pop(ctx, nonceKey)
	return nonce, nil
}

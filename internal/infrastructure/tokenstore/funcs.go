package tokenstore

import (
	"context"

	"archie-shopify-session-layer/internal/domain"
	"archie-shopify-session-layer/internal/ports"
)

// GetterFunc returns the caller's shop token, nil when there is none
type GetterFunc func(ctx context.Context) (*domain.ShopToken, error)

// SetterFunc receives the shop and token after a successful authorization
type SetterFunc func(ctx context.Context, shop string, token string) error

// Funcs is a TokenStore whose getter and setter can be swapped independently
// while the remaining operations fall through to a base store.
type Funcs struct {
	base   ports.TokenStore
	getter GetterFunc
	setter SetterFunc
}

// NewFuncs wraps base
func NewFuncs(base ports.TokenStore) *Funcs {
	return &Funcs{
		base:   base,
		getter: base.Get,
		setter: base.Put,
	}
}

// TokenGetter replaces the getter
func (f *Funcs) TokenGetter(fn GetterFunc) *Funcs {
	f.getter = fn
	return f
}

// TokenSetter replaces the setter
func (f *Funcs) TokenSetter(fn SetterFunc) *Funcs {
	f.setter = fn
	return f
}

func (f *Funcs) Get(ctx context.Context) (*domain.ShopToken, error) {
	return f.getter(ctx)
}

func (f *Funcs) Put(ctx context.Context, shop string, token string) error {
	return f.setter(ctx, shop, token)
}

func (f *Funcs) Clear(ctx context.Context) error {
	return f.base.Clear(ctx)
}

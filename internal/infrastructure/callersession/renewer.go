package callersession

import (
	"context"
)

// Renewer rotates the caller's session token once the caller is authorized for a shop
type Renewer struct{}

func NewRenewer() *Renewer {
	return &Renewer{}
}

func (Renewer) Renew(ctx context.Context) error {
	s, err := FromContext(ctx)
	if err != nil {
		return err
	}
	return s.Renew(ctx)
}

package domain

import (
	"context"
	"sync"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const activationKey contextKey = "shopify_session"

// Activation is the request-scoped slot holding the active platform session.
// It replaces a process-wide "current session": every request gets its own Activation
// and nothing outside the request's context can see it.
type Activation struct {
	mu      sync.RWMutex
	session *Session
	parent  *Activation
}

// WithActivation attaches a new activation holding s (which may be nil) to ctx.
// An activation already in ctx is shadowed, not replaced, and becomes visible again
// to code holding the outer context.
func WithActivation(ctx context.Context, s *Session) (context.Context, *Activation) {
	a := &Activation{session: s}
	if parent, ok := GetActivationFromContext(ctx); ok {
		a.parent = parent
	}
	return context.WithValue(ctx, activationKey, a), a
}

// DeactivateAll releases the innermost activation in ctx and every activation it shadows
func DeactivateAll(ctx context.Context) {
	a, ok := GetActivationFromContext(ctx)
	for ok && a != nil {
		a.Release()
		a = a.parent
	}
}

// GetActivationFromContext returns the activation attached to ctx, if any
func GetActivationFromContext(ctx context.Context) (*Activation, bool) {
	a, ok := ctx.Value(activationKey).(*Activation)
	return a, ok && a != nil
}

// GetSessionFromContext returns the active session for the request, if one is active
func GetSessionFromContext(ctx context.Context) (*Session, bool) {
	a, ok := GetActivationFromContext(ctx)
	if !ok {
		return nil, false
	}
	return a.Session()
}

// Session returns the active session
func (a *Activation) Session() (*Session, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session, a.session != nil
}

// Activate replaces the active session
func (a *Activation) Activate(s *Session) {
	a.mu.Lock()
	a.session = s
	a.mu.Unlock()
}

// Release deactivates the session. Safe to call more than once.
func (a *Activation) Release() {
	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()
}

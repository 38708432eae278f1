// Package callersession provides the server-side session each browser caller is bound to.
// The cookie carries only the session token; values live in the scs store.
package callersession

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexedwards/scs/v2"
)

// ErrNoSession is returned when the LoadAndSave middleware did not run for the request
var ErrNoSession = errors.New("no caller session in context")

type contextKey string

const sessionKey contextKey = "caller_session"

// Session is the server-managed storage scoped to one caller. Values are loaded once per
// request and committed together when the response is written.
type Session struct {
	sessions *scs.SessionManager
}

// Get returns the value stored under key
func (s *Session) Get(ctx context.Context, key string) (string, bool) {
	if !s.sessions.Exists(ctx, key) {
		return "", false
	}
	return s.sessions.GetString(ctx, key), true
}

// Set stores every value
func (s *Session) Set(ctx context.Context, values map[string]string) {
	for k, v := range values {
		s.sessions.Put(ctx, k, v)
	}
}

// Delete removes keys; deleting missing keys is not an error
func (s *Session) Delete(ctx context.Context, keys ...string) {
	for _, k := range keys {
		s.sessions.Remove(ctx, k)
	}
}

// Pop returns the value stored under key and removes it
func (s *Session) Pop(ctx context.Context, key string) (string, bool) {
	if !s.sessions.Exists(ctx, key) {
		return "", false
	}
	return s.sessions.PopString(ctx, key), true
}

// Renew moves the session's values to a new token, invalidates the old one and reissues the cookie
func (s *Session) Renew(ctx context.Context) error {
	if err := s.sessions.RenewToken(ctx); err != nil {
		return fmt.Errorf("failed to renew session token: %w", err)
	}
	return nil
}

// WithSession attaches a caller session to ctx
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext returns the caller session attached by LoadAndSave
func FromContext(ctx context.Context) (*Session, error) {
	s, ok := ctx.Value(sessionKey).(*Session)
	if !ok || s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}

package callersession

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/rs/zerolog"
)

const (
	DefaultCookieName = "shopify_app_session"
	DefaultTTL        = 24 * time.Hour
)

// Options configures the session cookie
type Options struct {
	CookieName string
	Secure     bool
	// SameSite defaults to Lax. Apps rendered inside the admin iframe need None (with Secure).
	SameSite http.SameSite
	TTL      time.Duration
}

// Manager binds each request to a caller session held in an scs store
type Manager struct {
	sessions *scs.SessionManager
	logger   zerolog.Logger
}

// NewManager creates a caller session manager. A nil store keeps sessions in process memory.
func NewManager(store scs.Store, opts Options, logger zerolog.Logger) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.SameSite == 0 {
		opts.SameSite = http.SameSiteLaxMode
	}

	sessions := scs.New()
	if store != nil {
		sessions.Store = store
	}
	sessions.Lifetime = opts.TTL
	sessions.Cookie.Name = opts.CookieName
	sessions.Cookie.Path = "/"
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.Persist = true
	sessions.Cookie.Secure = opts.Secure
	sessions.Cookie.SameSite = opts.SameSite

	m := &Manager{
		sessions: sessions,
		logger:   logger,
	}
	sessions.ErrorFunc = m.serverError
	return m
}

// LoadAndSave attaches the caller's session to the request context and commits it before the
// response is written. Tokens the store does not know are never adopted: the caller gets a
// fresh session and a fresh token on the first write.
func (m *Manager) LoadAndSave(next http.Handler) http.Handler {
	return m.sessions.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), &Session{sessions: m.sessions})))
	}))
}

// Load attaches the session identified by token to ctx outside of an HTTP request.
// An empty or unknown token yields a new, empty session.
func (m *Manager) Load(ctx context.Context, token string) (context.Context, error) {
	ctx, err := m.sessions.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	return WithSession(ctx, &Session{sessions: m.sessions}), nil
}

func (m *Manager) serverError(w http.ResponseWriter, r *http.Request, err error) {
	m.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Caller session store failed")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"archie-shopify-session-layer/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenStore struct {
	token  *domain.ShopToken
	getErr error
	clears int
}

func (s *fakeTokenStore) Get(context.Context) (*domain.ShopToken, error) {
	return s.token, s.getErr
}

func (s *fakeTokenStore) Put(_ context.Context, shop, token string) error {
	s.token = &domain.ShopToken{Shop: shop, Token: token}
	return nil
}

func (s *fakeTokenStore) Clear(context.Context) error {
	s.clears++
	s.token = nil
	return nil
}

// storeTerminator logs out the way the auth service does
type storeTerminator struct {
	store *fakeTokenStore
}

func (t storeTerminator) Logout(ctx context.Context) error {
	err := t.store.Clear(ctx)
	domain.DeactivateAll(ctx)
	return err
}

func loggedIn(shop string) *fakeTokenStore {
	return &fakeTokenStore{token: &domain.ShopToken{Shop: shop, Token: "shpat_" + shop}}
}

func newGuards(store *fakeTokenStore, loginPath string) *Guards {
	return NewGuards(store, storeTerminator{store: store}, loginPath, "2024-10", zerolog.Nop())
}

func TestActivatorBindsSessionForRequest(t *testing.T) {
	store := loggedIn("acme")
	activator := NewActivator(store, "2024-10", zerolog.Nop())

	var seen *domain.Activation
	handler := activator.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := domain.GetSessionFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "acme", session.Shop)
		assert.Equal(t, "2024-10", session.APIVersion)
		assert.Equal(t, "shpat_acme", session.Token)
		seen, _ = domain.GetActivationFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	_, active := seen.Session()
	assert.False(t, active, "released once the request finished")
}

func TestActivatorWithoutToken(t *testing.T) {
	tests := []struct {
		name  string
		store *fakeTokenStore
	}{
		{name: "no token", store: &fakeTokenStore{}},
		{name: "store error", store: &fakeTokenStore{getErr: errors.New("redis down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			activator := NewActivator(tt.store, "2024-10", zerolog.Nop())
			called := false
			handler := activator.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				_, hasActivation := domain.GetActivationFromContext(r.Context())
				assert.True(t, hasActivation)
				_, ok := domain.GetSessionFromContext(r.Context())
				assert.False(t, ok)
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.True(t, called, "the activator never blocks a request")
		})
	}
}

func TestActivatorReleasesOnPanic(t *testing.T) {
	activator := NewActivator(loggedIn("acme"), "2024-10", zerolog.Nop())

	var seen *domain.Activation
	handler := activator.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = domain.GetActivationFromContext(r.Context())
		panic("boom")
	}))

	assert.Panics(t, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
	require.NotNil(t, seen)
	_, active := seen.Session()
	assert.False(t, active)
}

func TestRequireLoginRedirectsToLogin(t *testing.T) {
	guards := newGuards(&fakeTokenStore{}, "/login")
	handler := guards.RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("protected handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/orders?shop=acme&page=2", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login", location.Path)
	assert.Equal(t, "acme", location.Query().Get("shop"))
	assert.Equal(t, "/admin/orders?shop=acme&page=2", location.Query().Get("next"))
}

func TestRequireLoginWithoutShopParameter(t *testing.T) {
	guards := newGuards(&fakeTokenStore{}, "/login")
	handler := guards.RequireLogin(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fadmin", rec.Header().Get("Location"))
}

func TestRequireLoginWithoutLoginPath(t *testing.T) {
	guards := newGuards(&fakeTokenStore{}, "")
	handler := guards.RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("protected handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin?shop=acme", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireLoginActivatesTemporarySession(t *testing.T) {
	store := loggedIn("acme")
	guards := newGuards(store, "/login")

	var temp *domain.Activation
	handler := guards.RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := domain.GetSessionFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "acme", session.Shop)
		assert.Equal(t, "shpat_acme", session.Token)
		temp, _ = domain.GetActivationFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin?shop=acme", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, temp)
	_, active := temp.Session()
	assert.False(t, active)
}

func TestRequireLoginReleasesOnPanic(t *testing.T) {
	guards := newGuards(loggedIn("acme"), "/login")

	var temp *domain.Activation
	handler := guards.RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		temp, _ = domain.GetActivationFromContext(r.Context())
		panic("boom")
	}))

	assert.Panics(t, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin", nil))
	})
	require.NotNil(t, temp)
	_, active := temp.Session()
	assert.False(t, active)
}

func TestRequireMatchingShopAllows(t *testing.T) {
	tests := []struct {
		name      string
		stored    string
		requested string
	}{
		{name: "same subdomain", stored: "acme", requested: "acme"},
		{name: "subdomain against domain", stored: "acme", requested: "acme.myshopify.com"},
		{name: "domain against subdomain", stored: "acme.myshopify.com", requested: "acme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := loggedIn(tt.stored)
			guards := newGuards(store, "/login")
			called := false
			handler := guards.RequireLogin(guards.RequireMatchingShop(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin?shop="+tt.requested, nil))

			assert.True(t, called)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Zero(t, store.clears)
		})
	}
}

func TestRequireMatchingShopMismatchLogsOut(t *testing.T) {
	store := loggedIn("acme")
	guards := newGuards(store, "/login")
	activator := NewActivator(store, "2024-10", zerolog.Nop())

	handler := activator.Handler(guards.RequireMatchingShop(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("protected handler must not run")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin?shop=globex", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?shop=globex", rec.Header().Get("Location"))
	assert.Equal(t, 1, store.clears)
	assert.Nil(t, store.token)
}

func TestRequireMatchingShopMismatchReleasesSessions(t *testing.T) {
	store := loggedIn("acme")
	guards := newGuards(store, "")

	ctx, requestActivation := domain.WithActivation(context.Background(), domain.NewSession("acme", "2024-10", "shpat_acme"))
	handler := guards.RequireMatchingShop(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("protected handler must not run")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin?shop=globex", nil).WithContext(ctx)
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "forbidden")
	_, active := requestActivation.Session()
	assert.False(t, active)
}

func TestRequireMatchingShopWithoutSession(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
	}{
		{name: "no activation", ctx: context.Background()},
		{name: "empty activation", ctx: func() context.Context {
			ctx, _ := domain.WithActivation(context.Background(), nil)
			return ctx
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeTokenStore{}
			guards := newGuards(store, "/login")
			handler := guards.RequireMatchingShop(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("protected handler must not run")
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin?shop=acme", nil).WithContext(tt.ctx))

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/login?shop=acme", rec.Header().Get("Location"))
		})
	}
}

func TestRequireMatchingShopEmptyShopParameter(t *testing.T) {
	store := loggedIn("acme")
	guards := newGuards(store, "")

	handler := guards.RequireLogin(guards.RequireMatchingShop(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("protected handler must not run")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 1, store.clears)
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeadersMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin?shop=acme", nil))
	assert.Equal(t, "frame-ancestors https://acme.myshopify.com https://admin.shopify.com;", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin?shop=evil.example.com", nil))
	assert.Equal(t, "frame-ancestors https://admin.shopify.com;", rec.Header().Get("Content-Security-Policy"))
}

package middleware

import (
	"net/http"

	"archie-shopify-session-layer/internal/domain"
)

const adminOrigin = "https://admin.shopify.com"

// SecurityHeadersMiddleware sets the headers an embedded admin app needs. Framing is limited
// to the Shopify admin and, when the request names a valid shop, that shop's domain.
// Inside the admin iframe the session cookie is only sent with SESSION_COOKIE_SAME_SITE=none.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ancestors := adminOrigin
			if shop, err := domain.ShopDomain(r.URL.Query().Get("shop")); err == nil {
				ancestors = "https://" + shop + " " + adminOrigin
			}

			h := w.Header()
			h.Set("Content-Security-Policy", "frame-ancestors "+ancestors+";")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

package domain

import (
	"fmt"
	"time"
)

// DefaultAPIVersion is the Admin API version used when SHOPIFY_API_VERSION is not set
const DefaultAPIVersion = "2024-10"

// ShopToken is the shop/token pair persisted by a TokenStore
type ShopToken struct {
	Shop  string
	Token string
}

// ShopTokenRecord is the durable form of a ShopToken kept by the token repository.
// InstalledAt and UpdatedAt are set by the repository.
type ShopTokenRecord struct {
	ID          string
	Shop        string
	Token       string
	InstalledAt time.Time
	UpdatedAt   time.Time
}

// Session binds a shop, an API version and an access token for outbound platform calls.
// A Session without a token is only used to compute authorization URLs.
type Session struct {
	Shop       string
	APIVersion string
	Token      string
}

// NewSession creates a platform session
func NewSession(shop, apiVersion, token string) *Session {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return &Session{
		Shop:       shop,
		APIVersion: apiVersion,
		Token:      token,
	}
}

// HasToken reports whether the session can authorize API calls
func (s *Session) HasToken() bool {
	return s != nil && s.Token != ""
}

// String never prints the token
func (s *Session) String() string {
	if s == nil {
		return "<nil session>"
	}
	return fmt.Sprintf("Session{shop=%s, api_version=%s, token=[REDACTED]}", s.Shop, s.APIVersion)
}

// PermissionRequest describes the authorization URL to build during installation. It is never persisted.
type PermissionRequest struct {
	Shop        string
	Scopes      []string
	RedirectURI string
	State       string
}

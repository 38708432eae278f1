package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication matches every AuthenticationError
	ErrAuthentication = errors.New("shopify authentication failed")

	// ErrConfiguration matches every ConfigurationError
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInvalidShop is returned for shop identifiers that are not *.myshopify.com hosts
	ErrInvalidShop = errors.New("invalid shop domain")
)

// AuthenticationError is returned when an authorization callback cannot be turned into a token.
// No session or stored token exists when this error is returned.
type AuthenticationError struct {
	Shop   string
	Reason string
	Err    error
}

// NewAuthenticationError creates an authentication error
func NewAuthenticationError(shop, reason string, err error) *AuthenticationError {
	return &AuthenticationError{Shop: shop, Reason: reason, Err: err}
}

func (e *AuthenticationError) Error() string {
	msg := "shopify authentication failed"
	if e.Shop != "" {
		msg += " for " + e.Shop
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// ConfigurationError reports required configuration that is missing or invalid at startup
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// ShopDomainSuffix is appended to a shop subdomain to build its canonical domain
const ShopDomainSuffix = ".myshopify.com"

var shopDomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]*\.myshopify\.com$`)

// CanonicalShop lower-cases a shop identifier, strips a scheme and trailing separators, and
// appends the platform suffix when missing. "acme" and "https://ACME.myshopify.com/" both
// become "acme.myshopify.com". The result is not validated; use ShopDomain for that.
func CanonicalShop(shop string) string {
	shop = strings.ToLower(strings.TrimSpace(shop))
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimPrefix(shop, "http://")
	shop = strings.TrimRight(shop, "/")
	shop = strings.Trim(shop, ".")
	if shop == "" {
		return ""
	}
	if strings.HasSuffix(shop, ShopDomainSuffix) {
		return shop
	}
	return shop + ShopDomainSuffix
}

// ShopDomain returns the canonical domain for a subdomain, rejecting anything that is not a shop host
func ShopDomain(subdomain string) (string, error) {
	shop := CanonicalShop(subdomain)
	if !shopDomainPattern.MatchString(shop) {
		return "", fmt.Errorf("%w: %q", ErrInvalidShop, subdomain)
	}
	return shop, nil
}

// SameShop reports whether two identifiers name the same valid shop. Empty or invalid
// identifiers never match.
func SameShop(a, b string) bool {
	ca, err := ShopDomain(a)
	if err != nil {
		return false
	}
	cb, err := ShopDomain(b)
	if err != nil {
		return false
	}
	return ca == cb
}

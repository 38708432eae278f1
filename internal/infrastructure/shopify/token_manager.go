package shopify

import (
	"errors"
	"net/http"
	"strings"

	goshopify "github.com/bold-commerce/go-shopify/v4"
)

// IsTokenRevoked reports whether err is the Admin API refusing the access token.
// Shopify tokens don't expire, so a 401 means the merchant uninstalled the app or the
// token was rotated; the caller has to go through the permission grant again.
func IsTokenRevoked(err error) bool {
	if err == nil {
		return false
	}

	var respErr goshopify.ResponseError
	if errors.As(err, &respErr) {
		return respErr.Status == http.StatusUnauthorized
	}

	// the library does not always surface a typed error
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "invalid api key or access token") ||
		strings.Contains(errStr, "401 unauthorized")
}

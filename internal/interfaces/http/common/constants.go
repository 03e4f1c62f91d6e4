package common

import "time"

const (
	// MaxRequestBody limits JSON request bodies when no limit is configured.
	MaxRequestBody = 1 << 20
	// RequestTimeout bounds the service work of a single request.
	RequestTimeout = 5 * time.Second
	// RefreshedTokenHeader carries a replacement token near expiry.
	RefreshedTokenHeader = "X-Refreshed-Token"
)

// Package ecommerce implements the channel sources: marketplace API clients,
// the Cafe24 admin page scraper, cached files and deterministic fixtures.
package ecommerce

import "errors"

// maxResponseSize is the maximum allowed response size from marketplace APIs (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Errors shared by all sources
var (
	ErrSourceNotConfigured   = errors.New("ecommerce: source not configured")
	ErrSourceUnavailable     = errors.New("ecommerce: source unavailable")
	ErrSourceRequestFailed   = errors.New("ecommerce: request failed")
	ErrSourceInvalidResponse = errors.New("ecommerce: invalid response")
	ErrSourceAuthFailed      = errors.New("ecommerce: authentication failed")
)

package ecommerce

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// apiClient is the HTTP plumbing shared by the marketplace clients: a
// client-side rate limit, a bounded response body and uniform error wrapping.
type apiClient struct {
	name       string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func newAPIClient(name string, timeout time.Duration, requestsPerSecond float64) *apiClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &apiClient{
		name:       name,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// do sends the request and returns the response body of a 2xx response
func (c *apiClient) do(req *http.Request) ([]byte, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("%s: rate limit wait: %w", c.name, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", c.name, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s: HTTP %d", ErrSourceAuthFailed, c.name, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: %s: HTTP %d", ErrSourceRequestFailed, c.name, resp.StatusCode)
	}
	return body, nil
}

package ecommerce

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopdash/backend/internal/domain/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
)

// NaverConfig holds configuration for the Naver Commerce API
type NaverConfig struct {
	ClientID     string
	ClientSecret string
	// APIBaseURL is the API root, e.g. https://api.commerce.naver.com/external
	APIBaseURL        string
	PageSize          int
	RequestsPerSecond float64
	Timeout           time.Duration
}

// NaverProductionAPIURL is the production API root
const NaverProductionAPIURL = "https://api.commerce.naver.com/external"

// Errors for Naver configuration
var (
	ErrNaverConfigMissingClientID     = errors.New("naver: client id is required")
	ErrNaverConfigMissingClientSecret = errors.New("naver: client secret is required")
)

// Validate validates the configuration and fills defaults
func (c *NaverConfig) Validate() error {
	if c.ClientID == "" {
		return ErrNaverConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrNaverConfigMissingClientSecret
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = NaverProductionAPIURL
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.PageSize <= 0 {
		c.PageSize = 100
	}
	return nil
}

// Sign returns the base64 HMAC-SHA256 of message keyed by the client secret
func (c *NaverConfig) Sign(message string) string {
	h := hmac.New(sha256.New, []byte(c.ClientSecret))
	h.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// naverToken is an issued OAuth access token
type naverToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// NaverClient lists SmartStore orders through the Naver Commerce API.
// Access tokens are obtained with the client-credentials grant and reused
// until shortly before they expire.
type NaverClient struct {
	config *NaverConfig
	api    *apiClient
	loc    *time.Location
	now    func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewNaverClient creates a Naver client
func NewNaverClient(config *NaverConfig, loc *time.Location) (*NaverClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}
	return &NaverClient{
		config: config,
		api:    newAPIClient("naver", config.Timeout, config.RequestsPerSecond),
		loc:    loc,
		now:    time.Now,
	}, nil
}

func (c *NaverClient) Channel() sales.Channel { return sales.ChannelNaver }

func (c *NaverClient) Name() string { return "api" }

// accessToken returns a cached token or requests a new one
func (c *NaverClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token, nil
	}

	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	form := url.Values{}
	form.Set("client_id", c.config.ClientID)
	form.Set("timestamp", timestamp)
	form.Set("client_secret_sign", c.config.Sign(c.config.ClientID+"_"+timestamp))
	form.Set("grant_type", "client_credentials")
	form.Set("type", "SELF")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIBaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("naver: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.api.do(req)
	if err != nil {
		return "", fmt.Errorf("naver: token request: %w", err)
	}

	var tok naverToken
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("%w: naver token: %v", ErrSourceInvalidResponse, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: naver: empty access token", ErrSourceAuthFailed)
	}

	ttl := time.Duration(tok.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	c.token = tok.AccessToken
	// renewed one minute before expiry
	c.expiresAt = c.now().Add(ttl - time.Minute)
	return c.token, nil
}

func (c *NaverClient) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// Fetch searches the orders of the last seven days. An expired token is
// renewed once.
func (c *NaverClient) Fetch(ctx context.Context) (dashboard.ChannelSnapshot, error) {
	body, err := c.searchOrders(ctx)
	if errors.Is(err, ErrSourceAuthFailed) {
		c.invalidateToken()
		body, err = c.searchOrders(ctx)
	}
	if err != nil {
		return dashboard.EmptySnapshot(sales.ChannelNaver), err
	}

	orders, _, err := decodeRecords(body, "data.contents")
	if err != nil {
		return dashboard.EmptySnapshot(sales.ChannelNaver), fmt.Errorf("naver: %w", err)
	}

	snap := dashboard.EmptySnapshot(sales.ChannelNaver)
	snap.Orders = orders
	snap.CollectedAt = c.now().In(c.loc).Format(time.RFC3339)
	return snap, nil
}

func (c *NaverClient) searchOrders(ctx context.Context) ([]byte, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	start, end := window(c.now().In(c.loc))
	payload, err := json.Marshal(map[string]any{
		"pageSize":  c.config.PageSize,
		"startDate": start.Format("2006-01-02T15:04:05"),
		"endDate":   end.Format("2006-01-02T15:04:05"),
	})
	if err != nil {
		return nil, fmt.Errorf("naver: failed to encode search: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.APIBaseURL+"/v1/pay-order/seller/orders/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("naver: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Naver-Client-Id", c.config.ClientID)
	req.Header.Set("X-Naver-Timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))

	return c.api.do(req)
}

package ecommerce

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopdash/backend/internal/domain/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
)

// CoupangConfig holds configuration for the Coupang Wing Open API
type CoupangConfig struct {
	VendorID  string
	AccessKey string
	SecretKey string
	// APIBaseURL is the gateway root, e.g. https://api-gateway.coupang.com
	APIBaseURL        string
	PageSize          int
	RequestsPerSecond float64
	Timeout           time.Duration
	// Statuses lists the ordersheet states to query
	Statuses []string
}

const (
	// CoupangProductionAPIURL is the production gateway
	CoupangProductionAPIURL = "https://api-gateway.coupang.com"
	// coupangSignedDateLayout is the signed-date format, always UTC
	coupangSignedDateLayout = "060102T150405Z"
	// coupangMaxPages bounds nextToken paging per status
	coupangMaxPages = 10
)

// DefaultCoupangStatuses covers every ordersheet state shown on the dashboard
var DefaultCoupangStatuses = []string{"ACCEPT", "INSTRUCT", "DEPARTURE", "DELIVERING", "FINAL_DELIVERY"}

// Errors for Coupang configuration
var (
	ErrCoupangConfigMissingVendorID  = errors.New("coupang: vendor id is required")
	ErrCoupangConfigMissingAccessKey = errors.New("coupang: access key is required")
	ErrCoupangConfigMissingSecretKey = errors.New("coupang: secret key is required")
)

// Validate validates the configuration and fills defaults
func (c *CoupangConfig) Validate() error {
	if c.VendorID == "" {
		return ErrCoupangConfigMissingVendorID
	}
	if c.AccessKey == "" {
		return ErrCoupangConfigMissingAccessKey
	}
	if c.SecretKey == "" {
		return ErrCoupangConfigMissingSecretKey
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = CoupangProductionAPIURL
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if len(c.Statuses) == 0 {
		c.Statuses = DefaultCoupangStatuses
	}
	return nil
}

// Authorization builds the CEA authorization header value. The signature is
// the hex HMAC-SHA256 of signed-date + method + path + query.
func (c *CoupangConfig) Authorization(method, path, query string, at time.Time) string {
	signedDate := at.UTC().Format(coupangSignedDateLayout)
	h := hmac.New(sha256.New, []byte(c.SecretKey))
	h.Write([]byte(signedDate + method + path + query))
	signature := hex.EncodeToString(h.Sum(nil))

	return fmt.Sprintf("CEA algorithm=HmacSHA256, access-key=%s, signed-date=%s, signature=%s",
		c.AccessKey, signedDate, signature)
}

// CoupangClient lists Wing ordersheets
type CoupangClient struct {
	config *CoupangConfig
	api    *apiClient
	loc    *time.Location
	now    func() time.Time
}

// NewCoupangClient creates a Coupang client
func NewCoupangClient(config *CoupangConfig, loc *time.Location) (*CoupangClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}
	return &CoupangClient{
		config: config,
		api:    newAPIClient("coupang", config.Timeout, config.RequestsPerSecond),
		loc:    loc,
		now:    time.Now,
	}, nil
}

func (c *CoupangClient) Channel() sales.Channel { return sales.ChannelCoupang }

func (c *CoupangClient) Name() string { return "api" }

// Fetch lists the ordersheets of the last seven days for every configured
// status, following nextToken pages.
func (c *CoupangClient) Fetch(ctx context.Context) (dashboard.ChannelSnapshot, error) {
	now := c.now().In(c.loc)
	start, end := window(now)

	snap := dashboard.EmptySnapshot(sales.ChannelCoupang)
	for _, status := range c.config.Statuses {
		nextToken := ""
		for range coupangMaxPages {
			orders, next, err := c.listOrdersheets(ctx, status, start, end, nextToken)
			if err != nil {
				return dashboard.EmptySnapshot(sales.ChannelCoupang), err
			}
			snap.Orders = append(snap.Orders, orders...)
			if next == "" {
				break
			}
			nextToken = next
		}
	}
	snap.CollectedAt = now.Format(time.RFC3339)
	return snap, nil
}

func (c *CoupangClient) listOrdersheets(ctx context.Context, status string, start, end time.Time, nextToken string) ([]sales.RawRecord, string, error) {
	path := fmt.Sprintf("/v2/providers/openapi/apis/api/v4/vendors/%s/ordersheets", url.PathEscape(c.config.VendorID))

	params := url.Values{}
	params.Set("createdAtFrom", start.Format("2006-01-02"))
	params.Set("createdAtTo", end.Format("2006-01-02"))
	params.Set("status", status)
	params.Set("maxPerPage", strconv.Itoa(c.config.PageSize))
	if nextToken != "" {
		params.Set("nextToken", nextToken)
	}
	query := params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.APIBaseURL+path+"?"+query, nil)
	if err != nil {
		return nil, "", fmt.Errorf("coupang: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.config.Authorization(http.MethodGet, path, query, c.now()))
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("X-Coupang-Vendor-Id", c.config.VendorID)

	body, err := c.api.do(req)
	if err != nil {
		return nil, "", err
	}

	orders, env, err := decodeRecords(body, "data")
	if err != nil {
		return nil, "", fmt.Errorf("coupang: %w", err)
	}
	next := ""
	if env != nil {
		next, _ = env.String("nextToken")
	}
	return orders, next, nil
}

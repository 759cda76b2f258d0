package ecommerce

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/shopdash/backend/internal/domain/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
)

// ScraperConfig holds settings for the Cafe24 admin page scraper
type ScraperConfig struct {
	// RemoteURL is the DevTools endpoint of an already running browser
	RemoteURL string
	// TabURLPattern selects the admin tab by URL substring
	TabURLPattern string
	Timeout       time.Duration
}

// pendingPageMarker identifies the pending-shipment order list page
const pendingPageMarker = "shipped_begin"

// scrapePendingScript reads the pending-shipment table. Rows need at least
// five cells and an order ID with eight consecutive digits.
const scrapePendingScript = `(() => {
  const orders = [];
  document.querySelectorAll('table tbody tr').forEach((row, idx) => {
    if (idx > 30) return;
    if (row.querySelectorAll('td').length < 5) return;
    const text = (el) => el ? el.textContent.trim() : '';
    const idLink = row.querySelector('a[href*="order_id"], td a');
    const product = row.querySelector('[class*="product"], td:nth-child(9) a, td:nth-child(10) a');
    const customer = row.querySelector('td:nth-child(4) a');
    const date = row.querySelector('td:nth-child(2)');
    const amount = row.querySelector('[class*="price"], td:nth-child(14)');
    const order = {
      order_id: text(idLink),
      product_name: text(product).substring(0, 50),
      customer_name: text(customer),
      ordered_at: text(date).split('(')[0].trim(),
      total_amount: amount ? (parseInt(amount.textContent.replace(/[^0-9]/g, ''), 10) || 0) : 0,
      quantity: 1,
      channel: 'cafe24',
      status: 'processing'
    };
    if (/\d{8}/.test(order.order_id)) orders.push(order);
  });
  return orders;
})()`

// scrapeDashboardScript reads the summary counters of the admin home page
const scrapeDashboardScript = `(() => {
  const num = (sel) => {
    const el = document.querySelector(sel);
    return el ? (parseInt(el.textContent.replace(/[^0-9]/g, ''), 10) || 0) : 0;
  };
  return {
    total_orders: num('.today-order-count, [class*="order"] [class*="count"]'),
    pending_shipments: num('[class*="shipping"] [class*="count"], .shipped_begin_count, a[href*="shipped_begin"] strong'),
    total_revenue: num('.today-sales, [class*="revenue"], [class*="sales"]')
  };
})()`

// Cafe24AdminScraper reads orders from a Cafe24 admin tab opened in a
// browser that exposes the DevTools protocol. On the pending-shipment page it
// returns the table rows; on any other admin page only the summary counters.
type Cafe24AdminScraper struct {
	config *ScraperConfig
	now    func() time.Time
}

// NewCafe24AdminScraper creates the scraper
func NewCafe24AdminScraper(config *ScraperConfig) (*Cafe24AdminScraper, error) {
	if config.RemoteURL == "" {
		return nil, fmt.Errorf("%w: scraper remote url is required", ErrSourceNotConfigured)
	}
	if config.TabURLPattern == "" {
		config.TabURLPattern = "cafe24.com/admin"
	}
	if config.Timeout <= 0 {
		config.Timeout = 20 * time.Second
	}
	return &Cafe24AdminScraper{config: config, now: time.Now}, nil
}

func (s *Cafe24AdminScraper) Channel() sales.Channel { return sales.ChannelCafe24 }

func (s *Cafe24AdminScraper) Name() string { return "scraper" }

// Fetch attaches to the admin tab and evaluates the matching script
func (s *Cafe24AdminScraper) Fetch(ctx context.Context) (dashboard.ChannelSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, s.config.RemoteURL)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	targets, err := chromedp.Targets(browserCtx)
	if err != nil {
		return dashboard.EmptySnapshot(sales.ChannelCafe24), fmt.Errorf("%w: cafe24 scraper: %v", ErrSourceUnavailable, err)
	}
	tab := selectTab(targets, s.config.TabURLPattern)
	if tab == nil {
		return dashboard.EmptySnapshot(sales.ChannelCafe24), fmt.Errorf("%w: no tab matching %q", ErrSourceUnavailable, s.config.TabURLPattern)
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx, chromedp.WithTargetID(tab.TargetID))
	defer cancelTab()

	pendingPage := strings.Contains(tab.URL, pendingPageMarker)
	script := scrapeDashboardScript
	if pendingPage {
		script = scrapePendingScript
	}

	var raw []byte
	err = chromedp.Run(tabCtx, chromedp.Evaluate(script, &raw, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	if err != nil {
		return dashboard.EmptySnapshot(sales.ChannelCafe24), fmt.Errorf("%w: cafe24 scraper: %v", ErrSourceRequestFailed, err)
	}

	snap, err := parseScrapeResult(raw, pendingPage)
	if err != nil {
		return dashboard.EmptySnapshot(sales.ChannelCafe24), err
	}
	snap.CollectedAt = s.now().Format(time.RFC3339)
	return snap, nil
}

// selectTab returns the first page target whose URL contains pattern
func selectTab(targets []*target.Info, pattern string) *target.Info {
	for _, t := range targets {
		if t.Type == "page" && strings.Contains(t.URL, pattern) {
			return t
		}
	}
	return nil
}

// parseScrapeResult turns a script result into a snapshot. The pending page
// yields orders and a pending count; the dashboard page a summary only.
func parseScrapeResult(raw []byte, pendingPage bool) (dashboard.ChannelSnapshot, error) {
	snap := dashboard.EmptySnapshot(sales.ChannelCafe24)
	if len(raw) == 0 || string(raw) == "null" {
		return snap, nil
	}

	if pendingPage {
		orders, _, err := decodeRecords(raw, "")
		if err != nil {
			return snap, fmt.Errorf("cafe24 scraper: %w", err)
		}
		snap.Orders = orders
		snap.Summary.PendingShipments = len(orders)
		return snap, nil
	}

	parsed, err := dashboard.ParseChannelSnapshot(sales.ChannelCafe24, []byte(`{"summary":`+string(raw)+`}`))
	if err != nil {
		return snap, fmt.Errorf("cafe24 scraper: %w", err)
	}
	snap.Summary = parsed.Summary
	return snap, nil
}

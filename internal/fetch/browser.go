package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/fortuna/livescore/internal/logging"
)

// BrowserFetcher renders pages in headless Chrome for sources that build
// their scoreboard client-side. It shares a Guard with the HTTP fetcher.
type BrowserFetcher struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	guard    *Guard
	timeout  time.Duration
	settle   time.Duration
	logger   *slog.Logger
}

// NewBrowser starts a Chrome allocator. Close releases it.
func NewBrowser(guard *Guard, userAgent string, timeout time.Duration, logger *slog.Logger) *BrowserFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserFetcher{
		allocCtx: allocCtx,
		cancel:   cancel,
		guard:    guard,
		timeout:  timeout,
		settle:   time.Second,
		logger:   logging.OrDiscard(logger),
	}
}

// Close shuts the browser down.
func (b *BrowserFetcher) Close() {
	if b.cancel != nil {
		b.cancel()
	}
}

// Get navigates to rawURL and returns the rendered document.
func (b *BrowserFetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: parse url: %w", err)
	}
	if b.guard != nil {
		if err := b.guard.Admit(ctx, u); err != nil {
			return nil, err
		}
	}

	browserCtx, cancel := chromedp.NewContext(b.allocCtx)
	defer cancel()
	browserCtx, cancel = context.WithTimeout(browserCtx, b.timeout)
	defer cancel()

	// Stop the tab if the caller gives up first.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	start := time.Now()
	err = chromedp.Run(browserCtx,
		chromedp.Navigate(u.String()),
		chromedp.WaitVisible(`body`, chromedp.ByQuery),
		chromedp.Sleep(b.settle),
		chromedp.OuterHTML(`html`, &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp %s: %w", u.Host, err)
	}
	if html == "" {
		return nil, fmt.Errorf("chromedp %s: empty document", u.Host)
	}

	b.logger.Debug("rendered",
		logging.FieldURL, u.String(),
		"bytes", len(html),
		logging.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return []byte(html), nil
}

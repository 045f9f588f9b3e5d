package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"h2hfetcher/pkg/config"
	"h2hfetcher/pkg/logger"
)

// settleDelay gives the page's scripts time to authenticate against the
// stats backend and write the token into local storage after load.
const settleDelay = 3 * time.Second

// BrowserProvider acquires a token by driving a headless Chromium instance
// to the H2HGGL website and reading the configured local-storage key. Each
// Acquire launches a fresh browser and tears it down before returning.
type BrowserProvider struct {
	targetURL string
	tokenKey  string
	headless  bool
	timeout   time.Duration
	logger    logger.Logger
}

// NewBrowserProvider creates a browser-based token provider
func NewBrowserProvider(cfg *config.BrowserConfig, log logger.Logger) *BrowserProvider {
	if log == nil {
		log = logger.GetLogger()
	}

	return &BrowserProvider{
		targetURL: cfg.TargetURL,
		tokenKey:  cfg.TokenKey,
		headless:  cfg.Headless,
		timeout:   cfg.Timeout,
		logger:    log,
	}
}

// Acquire navigates to the target page and extracts the token from local
// storage. Launch failures, load timeouts, and a missing key all surface as
// errors; callers treat any of them as "no token available".
func (p *BrowserProvider) Acquire(ctx context.Context) (*Token, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", p.headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	p.logger.InfoWithFields("navigating to target page", map[string]interface{}{
		"url":      p.targetURL,
		"headless": p.headless,
	})

	var value string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(p.targetURL),
		chromedp.Sleep(settleDelay),
		chromedp.Evaluate(fmt.Sprintf(`window.localStorage.getItem(%q) || ""`, p.tokenKey), &value),
	)
	if err != nil {
		p.logger.ErrorWithFields("browser token extraction failed", map[string]interface{}{
			"url":   p.targetURL,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("browser token extraction failed: %w", err)
	}

	if value == "" {
		p.logger.WarnWithFields("token key not found in local storage", map[string]interface{}{
			"key": p.tokenKey,
		})
		return nil, fmt.Errorf("no token found in local storage under key %q", p.tokenKey)
	}

	p.logger.InfoWithFields("token extracted from local storage", map[string]interface{}{
		"key": p.tokenKey,
	})

	return &Token{
		Token:       value,
		ExtractedAt: time.Now(),
		Source:      p.targetURL,
		Key:         p.tokenKey,
	}, nil
}

// internal/browser/chromedp.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/device"

	"github.com/valpere/FAQScrapexter/internal/dom"
)

// clickScript clicks the index-th match of a selector in document order and
// reports whether the element existed.
const clickScript = `(function(sel, i) {
	const els = document.querySelectorAll(sel);
	if (i < 0 || i >= els.length) { return false; }
	const el = els[i];
	if (el.scrollIntoView) { el.scrollIntoView({block: "center"}); }
	el.click();
	return true;
})(%s, %d)`

// ChromeClient is a live dom.Document backed by a chromedp tab.
type ChromeClient struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	config      *BrowserConfig

	mu    sync.Mutex
	url   string
	stats BrowserStats
}

var _ dom.Document = (*ChromeClient)(nil)

// NewChromeClient starts a browser process and opens a tab.
func NewChromeClient(config *BrowserConfig) (*ChromeClient, error) {
	if config == nil {
		config = DefaultBrowserConfig()
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox, // Required for Docker environments
		chromedp.Flag("headless", config.Headless),
	)
	if config.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(config.UserDataDir))
	}
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}
	if config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(config.ExecPath))
	}
	if config.DisableImages {
		opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}

	// the allocator must outlive the constructor; Close releases it
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	client := &ChromeClient{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		config:      config,
	}

	if err := client.initialize(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	return client, nil
}

// initialize sets up the browser with initial configuration
func (c *ChromeClient) initialize() error {
	tasks := []chromedp.Action{
		chromedp.EmulateViewport(int64(c.config.ViewportWidth), int64(c.config.ViewportHeight)),
	}

	if c.config.ViewportWidth > 0 && c.config.ViewportWidth < 768 {
		tasks = append(tasks, chromedp.Emulate(device.IPhone8))
	}

	return chromedp.Run(c.ctx, tasks...)
}

// run executes actions on the tab, bounded by the caller's context as well
// as the browser's own lifetime.
func (c *ChromeClient) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Open navigates to url and waits for the page to settle.
func (c *ChromeClient) Open(ctx context.Context, url string) error {
	start := time.Now()

	tasks := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	}
	if c.config.WaitForElement != "" {
		tasks = append(tasks, chromedp.WaitVisible(c.config.WaitForElement))
	}
	if c.config.WaitDelay > 0 {
		tasks = append(tasks, chromedp.Sleep(c.config.WaitDelay))
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	err := c.run(ctx, tasks...)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.stats.Errors++
		return fmt.Errorf("navigation failed: %w", err)
	}
	c.url = url
	c.stats.PagesLoaded++
	c.stats.LoadTime = time.Since(start)
	return nil
}

// URL implements dom.Document.
func (c *ChromeClient) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.url
}

// Snapshot implements dom.Document by serializing the live DOM.
func (c *ChromeClient) Snapshot(ctx context.Context) (*dom.Snapshot, error) {
	if c.URL() == "" {
		return nil, fmt.Errorf("cannot snapshot: navigation has not completed successfully")
	}

	var html string
	if err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		c.mu.Lock()
		c.stats.Errors++
		c.mu.Unlock()
		return nil, fmt.Errorf("failed to get HTML: %w", err)
	}

	c.mu.Lock()
	c.stats.Snapshots++
	c.mu.Unlock()
	return dom.NewSnapshot(html)
}

// Click implements dom.Document with a script-driven click, which also
// reaches elements that are covered or off-screen.
func (c *ChromeClient) Click(ctx context.Context, selector string, index int) error {
	literal, err := json.Marshal(selector)
	if err != nil {
		return fmt.Errorf("failed to encode selector: %w", err)
	}

	var found bool
	if err := c.run(ctx, chromedp.Evaluate(fmt.Sprintf(clickScript, literal, index), &found)); err != nil {
		c.mu.Lock()
		c.stats.JavaScriptErrors++
		c.mu.Unlock()
		return fmt.Errorf("click failed: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: %s[%d]", dom.ErrNoSuchElement, selector, index)
	}

	c.mu.Lock()
	c.stats.Clicks++
	c.mu.Unlock()
	return nil
}

// Screenshot takes a screenshot of the page
func (c *ChromeClient) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := c.run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

// GetStats returns browser statistics
func (c *ChromeClient) GetStats() BrowserStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Close closes the tab and the browser process
func (c *ChromeClient) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
	return nil
}

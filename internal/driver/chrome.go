package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// DefaultActionTimeout bounds every browser call that has no explicit timeout.
const DefaultActionTimeout = 10 * time.Second

// ChromeOptions configures the headless browser.
type ChromeOptions struct {
	Headless      bool
	ActionTimeout time.Duration
	// ExecPath overrides the Chrome binary. Empty uses the chromedp lookup.
	ExecPath string
}

// DefaultChromeOptions returns headless defaults.
func DefaultChromeOptions() ChromeOptions {
	return ChromeOptions{
		Headless:      true,
		ActionTimeout: DefaultActionTimeout,
	}
}

// Chrome drives a single headless Chrome tab through chromedp.
// Requires Chrome/Chromium to be installed on the system.
type Chrome struct {
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	logger      *zap.Logger
}

// NewChrome launches the browser and opens one tab. The browser lives until Close.
func NewChrome(ctx context.Context, opts ChromeOptions, logger *zap.Logger) (*Chrome, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = DefaultActionTimeout
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tab, cancelTab := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser so launch failures surface here.
	if err := chromedp.Run(tab); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, &Error{Op: "launch", Target: "chrome", Message: "failed to start browser", Cause: err}
	}

	logger.Named("driver").Info("headless browser started", zap.Bool("headless", opts.Headless))
	return &Chrome{
		tab:         tab,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		timeout:     opts.ActionTimeout,
		logger:      logger.Named("driver"),
	}, nil
}

// run executes actions in the tab, bounded by timeout and by the caller's ctx.
func (c *Chrome) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.tab, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func node(el Element) (*cdp.Node, error) {
	n, ok := el.(*cdp.Node)
	if !ok || n == nil {
		return nil, fmt.Errorf("element %T was not returned by the chrome driver", el)
	}
	return n, nil
}

// Navigate loads url in the tab.
func (c *Chrome) Navigate(ctx context.Context, url string) error {
	c.logger.Debug("navigate", zap.String("url", url))
	if err := c.run(ctx, c.timeout, chromedp.Navigate(url)); err != nil {
		return &Error{Op: "navigate", Target: url, Message: "navigation failed", Cause: err}
	}
	return nil
}

// CurrentURL returns the document location.
func (c *Chrome) CurrentURL(ctx context.Context) (string, error) {
	var location string
	if err := c.run(ctx, c.timeout, chromedp.Location(&location)); err != nil {
		return "", &Error{Op: "location", Message: "failed to read URL", Cause: err}
	}
	return location, nil
}

// WaitForElement waits up to timeout for selector to match and returns the first match.
func (c *Chrome) WaitForElement(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	var nodes []*cdp.Node
	err := c.run(ctx, timeout, chromedp.Nodes(selector, &nodes, chromedp.ByQuery))
	if err != nil {
		return nil, &Error{Op: "wait", Target: selector, Message: "element not present", Cause: err}
	}
	if len(nodes) == 0 {
		return nil, &Error{Op: "wait", Target: selector, Message: "element not present", Cause: ErrTimeout}
	}
	return nodes[0], nil
}

// FindElements returns every current match without waiting.
func (c *Chrome) FindElements(ctx context.Context, scope Element, selector string) ([]Element, error) {
	opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if scope != nil {
		parent, err := node(scope)
		if err != nil {
			return nil, &Error{Op: "find", Target: selector, Message: "invalid scope", Cause: err}
		}
		opts = append(opts, chromedp.FromNode(parent))
	}

	var nodes []*cdp.Node
	if err := c.run(ctx, c.timeout, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, &Error{Op: "find", Target: selector, Message: "query failed", Cause: err}
	}
	out := make([]Element, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out, nil
}

// ReadText returns the trimmed visible text of el.
func (c *Chrome) ReadText(ctx context.Context, el Element) (string, error) {
	n, err := node(el)
	if err != nil {
		return "", &Error{Op: "text", Message: "invalid element", Cause: err}
	}
	var text string
	if err := c.run(ctx, c.timeout, chromedp.Text([]cdp.NodeID{n.NodeID}, &text, chromedp.ByNodeID)); err != nil {
		return "", &Error{Op: "text", Target: n.LocalName, Message: "failed to read text", Cause: err}
	}
	return strings.TrimSpace(text), nil
}

// Attribute returns the named attribute of el, or "" when it is absent.
func (c *Chrome) Attribute(ctx context.Context, el Element, name string) (string, error) {
	n, err := node(el)
	if err != nil {
		return "", &Error{Op: "attribute", Target: name, Message: "invalid element", Cause: err}
	}
	var (
		value string
		ok    bool
	)
	if err := c.run(ctx, c.timeout, chromedp.AttributeValue([]cdp.NodeID{n.NodeID}, name, &value, &ok, chromedp.ByNodeID)); err != nil {
		return "", &Error{Op: "attribute", Target: name, Message: "failed to read attribute", Cause: err}
	}
	return value, nil
}

// Click clicks el. Clicking an option selects it in its parent select.
func (c *Chrome) Click(ctx context.Context, el Element) error {
	n, err := node(el)
	if err != nil {
		return &Error{Op: "click", Message: "invalid element", Cause: err}
	}

	var action chromedp.Action = chromedp.MouseClickNode(n)
	if strings.EqualFold(n.NodeName, "option") && n.Parent != nil && strings.EqualFold(n.Parent.NodeName, "select") {
		value, ok := n.Attribute("value")
		if !ok {
			var text string
			if err := c.run(ctx, c.timeout, chromedp.Text([]cdp.NodeID{n.NodeID}, &text, chromedp.ByNodeID)); err != nil {
				return &Error{Op: "click", Target: "option", Message: "failed to read option", Cause: err}
			}
			value = strings.TrimSpace(text)
		}
		action = chromedp.SetValue([]cdp.NodeID{n.Parent.NodeID}, value, chromedp.ByNodeID)
	}

	if err := c.run(ctx, c.timeout, action); err != nil {
		return &Error{Op: "click", Target: n.LocalName, Message: "click failed", Cause: err}
	}
	return nil
}

// SubmitForm submits the form containing el.
func (c *Chrome) SubmitForm(ctx context.Context, el Element) error {
	n, err := node(el)
	if err != nil {
		return &Error{Op: "submit", Message: "invalid element", Cause: err}
	}
	if err := c.run(ctx, c.timeout, chromedp.Submit([]cdp.NodeID{n.NodeID}, chromedp.ByNodeID)); err != nil {
		return &Error{Op: "submit", Target: n.LocalName, Message: "submit failed", Cause: err}
	}
	return nil
}

// SendKeys types text into el.
func (c *Chrome) SendKeys(ctx context.Context, el Element, text string) error {
	n, err := node(el)
	if err != nil {
		return &Error{Op: "keys", Message: "invalid element", Cause: err}
	}
	if err := c.run(ctx, c.timeout, chromedp.SendKeys([]cdp.NodeID{n.NodeID}, text, chromedp.ByNodeID)); err != nil {
		return &Error{Op: "keys", Target: n.LocalName, Message: "typing failed", Cause: err}
	}
	return nil
}

// HTML returns the rendered document.
func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var html string
	if err := c.run(ctx, c.timeout, chromedp.OuterHTML("html", &html)); err != nil {
		return "", &Error{Op: "html", Message: "failed to extract HTML", Cause: err}
	}
	return html, nil
}

// Close shuts the tab and the browser.
func (c *Chrome) Close() error {
	c.cancelTab()
	c.cancelAlloc()
	c.logger.Info("headless browser closed")
	return nil
}

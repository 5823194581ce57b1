package injector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"prompt-feeder/internal/model"
)

const (
	DefaultInputSelector = "textarea"
	defaultBrowserStep   = 30 * time.Second
)

type BrowserOptions struct {
	// DebuggerURL attaches to a running Chrome (ws://...). Empty launches one.
	DebuggerURL string
	// PageURL is a JS regex selecting the target tab among open pages.
	PageURL string
	// StartURL is opened when the browser was launched by us and no tab matches.
	StartURL  string
	Selector  string
	Headless  bool
	Timeout   time.Duration
	Clipboard Clipboard
	Logger    *zap.Logger
}

// Browser types prompts into a page over the DevTools protocol.
type Browser struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	selector string
	timeout  time.Duration
	clip     Clipboard
	logger   *zap.Logger
}

// ConnectBrowser attaches to (or launches) Chrome and resolves the target tab.
func ConnectBrowser(ctx context.Context, opts BrowserOptions) (*Browser, error) {
	b := &Browser{
		selector: firstNonEmpty(strings.TrimSpace(opts.Selector), DefaultInputSelector),
		timeout:  opts.Timeout,
		clip:     opts.Clipboard,
		logger:   opts.Logger,
	}
	if b.timeout <= 0 {
		b.timeout = defaultBrowserStep
	}
	if b.clip == nil {
		b.clip = SystemClipboard{}
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}

	controlURL := strings.TrimSpace(opts.DebuggerURL)
	if controlURL == "" {
		l := launcher.New().Headless(opts.Headless)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		b.launcher = l
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		b.cleanupLauncher()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	// Later calls carry their own context.
	b.browser = browser.Context(context.Background())

	page, err := b.pickPage(opts)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.page = page
	b.logger.Info("browser target resolved",
		zap.String("control_url", controlURL),
		zap.String("selector", b.selector),
	)
	return b, nil
}

func (b *Browser) pickPage(opts BrowserOptions) (*rod.Page, error) {
	pages, err := b.browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	if pattern := strings.TrimSpace(opts.PageURL); pattern != "" {
		page, err := pages.FindByURL(pattern)
		if err == nil {
			return page, nil
		}
		if b.launcher == nil || strings.TrimSpace(opts.StartURL) == "" {
			return nil, fmt.Errorf("no open tab matches %q: %w", pattern, err)
		}
	}
	if strings.TrimSpace(opts.StartURL) != "" && b.launcher != nil {
		page, err := b.browser.Page(proto.TargetCreateTarget{URL: opts.StartURL})
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", opts.StartURL, err)
		}
		return page, nil
	}
	if page := pages.First(); page != nil {
		return page, nil
	}
	return nil, errors.New("no open tabs in the attached browser")
}

// Deliver copies text, replaces the input's content with it and presses Enter.
func (b *Browser) Deliver(ctx context.Context, text string) error {
	if err := b.clip.WriteAll(text); err != nil {
		return &model.ClipboardError{Err: err}
	}

	stepCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
	defer cancel()
	page := b.page.Context(stepCtx)

	el, err := page.Element(b.selector)
	if err != nil {
		return &model.DeliveryError{Step: "locate " + b.selector, Err: err}
	}
	if err := el.SelectAllText(); err != nil {
		return &model.DeliveryError{Step: string(ChordSelectAll), Err: err}
	}
	if err := el.Input(text); err != nil {
		return &model.DeliveryError{Step: string(ChordPaste), Err: err}
	}
	if err := el.Type(input.Enter); err != nil {
		return &model.DeliveryError{Step: string(ChordSubmit), Err: err}
	}
	return nil
}

func (b *Browser) Refresh(ctx context.Context) error {
	stepCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	if err := b.page.Context(stepCtx).Reload(); err != nil {
		return fmt.Errorf("reload page: %w", err)
	}
	return nil
}

// Close shuts down a browser we launched; an attached browser is left running.
func (b *Browser) Close() error {
	if b.launcher == nil {
		return nil
	}
	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	b.cleanupLauncher()
	return err
}

func (b *Browser) cleanupLauncher() {
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
		b.launcher = nil
	}
}

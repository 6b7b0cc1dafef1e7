// Package render owns the headless Chrome process used to hydrate class
// pages. The skill table is produced by a client-side framework, so a plain
// GET returns markup without the table; a real browser is required.
//
// One Session serves one orchestration run: the browser launches lazily on
// first use, every Render call gets its own tab (always closed on exit), and
// Close releases the browser exactly once at the end of the run.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// structuralSelector matches either table shape the extractor understands.
// Waiting on it lets hydration finish before the DOM is captured; a miss
// degrades to "continue anyway" rather than failing the page.
const structuralSelector = `[role="table"], [role="rowgroup"], table`

// Config configures a render Session.
type Config struct {
	// UserAgent is applied to every page. Default: a desktop Chrome UA.
	UserAgent string

	// NavTimeout bounds page navigation. Default: 30s.
	NavTimeout time.Duration

	// SelectorTimeout bounds the structural-selector wait. Default: 10s.
	SelectorTimeout time.Duration

	// Headless launches Chrome without a display. Default: true (set
	// Headful to opt out).
	Headful bool

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.SelectorTimeout <= 0 {
		c.SelectorTimeout = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Session is a lazily-launched shared browser. Safe for concurrent Render
// calls; each call owns its own tab.
type Session struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewSession creates a Session. The browser is not launched until the first
// Render call.
func NewSession(cfg Config) *Session {
	cfg.defaults()
	return &Session{cfg: cfg}
}

// acquire returns the shared browser, launching it on first use. Concurrent
// callers serialize on the mutex, so a launch already in flight is simply
// awaited — never duplicated.
func (s *Session) acquire() (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("render: session is closed")
	}
	if s.browser != nil {
		return s.browser, nil
	}

	l := launcher.New().Headless(!s.cfg.Headful)
	l = l.Set("disable-blink-features", "AutomationControlled")

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("render: launch: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("render: connect: %w", err)
	}

	s.lnch = l
	s.browser = b
	s.cfg.Logger.Info("render: browser launched", "control_url", u)
	return b, nil
}

// Render opens a tab, navigates to url, waits for the page to hydrate, and
// returns the full DOM as HTML. The tab is closed on every exit path.
func (s *Session) Render(ctx context.Context, pageURL string) (string, error) {
	log := s.cfg.Logger.With("url", pageURL)

	b, err := s.acquire()
	if err != nil {
		return "", err
	}

	page, err := stealth.Page(b)
	if err != nil {
		return "", fmt.Errorf("render: create tab: %w", err)
	}
	defer page.Close()

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.cfg.UserAgent}); err != nil {
		log.Warn("render: set user agent failed", "error", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		return "", fmt.Errorf("render: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		log.Warn("render: wait load timeout", "error", err)
	}

	// Give hydration a bounded chance to produce the table; continue on miss.
	selCtx, selCancel := context.WithTimeout(ctx, s.cfg.SelectorTimeout)
	if _, err := page.Context(selCtx).Element(structuralSelector); err != nil {
		log.Debug("render: structural selector not found, continuing", "error", err)
	}
	selCancel()

	html, err := page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("render: capture DOM %s: %w", pageURL, err)
	}

	log.Debug("render: page captured", "size", len(html))
	return html, nil
}

// Close releases the browser. Idempotent; called once at the end of the
// orchestration, never mid-run.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.browser != nil {
		s.browser.Close()
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
	s.cfg.Logger.Debug("render: browser closed")
	return nil
}

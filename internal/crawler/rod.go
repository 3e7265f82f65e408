package crawler

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"sjsage522/productscout/helpers"
	"sjsage522/productscout/logger"
	scouterrors "sjsage522/productscout/pkg/errors"
)

// systemChromium is used when present (container images)
const systemChromium = "/usr/bin/chromium-browser"

// readyWait bounds the wait for a page's ready selector
const readyWait = 15 * time.Second

// RodFetcher renders pages in a local Chromium driven by rod. The browser is
// launched on first use and shared by concurrent fetches, one tab each.
type RodFetcher struct {
	headless bool

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewRodFetcher creates a fetcher; headless=false opens a visible window
func NewRodFetcher(headless bool) *RodFetcher {
	return &RodFetcher{headless: headless}
}

func (f *RodFetcher) connect() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser != nil {
		return f.browser, nil
	}

	l := launcher.New().
		Headless(f.headless).
		NoSandbox(true).
		Leakless(false)
	if _, err := os.Stat(systemChromium); err == nil {
		l = l.Bin(systemChromium)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, scouterrors.NewNetwork("rod", "failed to launch browser", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, scouterrors.NewNetwork("rod", "failed to connect to browser", err)
	}

	logger.ForFetcher("rod").Info().Bool("headless", f.headless).Str("control_url", controlURL).Msg("Browser launched")
	f.launcher = l
	f.browser = browser
	return browser, nil
}

// Fetch implements Fetcher
func (f *RodFetcher) Fetch(ctx context.Context, req FetchRequest) (io.Reader, error) {
	browser, err := f.connect()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, scouterrors.NewNetwork(req.URL, "failed to open tab", err)
	}
	defer page.Close()

	p := page.Context(ctx)
	if err := p.SetUserAgent(userAgentOverride()); err != nil {
		return nil, scouterrors.NewNetwork(req.URL, "failed to set user agent", err)
	}
	if err := p.Navigate(req.URL); err != nil {
		return nil, scouterrors.NewNetwork(req.URL, "navigation failed", err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, scouterrors.NewNetwork(req.URL, "page load failed", err)
	}
	if req.ReadySelector != "" {
		// Missing ready elements still leave a page worth extracting from
		rp := p.Timeout(readyWait)
		_, err := rp.Element(req.ReadySelector)
		rp.CancelTimeout()
		if err != nil {
			logger.ForFetcher("rod").Debug().Str("url", req.URL).Str("selector", req.ReadySelector).Msg("Ready selector not found")
		}
	}

	html, err := p.HTML()
	if err != nil {
		return nil, scouterrors.NewNetwork(req.URL, "failed to read page html", err)
	}
	return strings.NewReader(html), nil
}

// userAgentOverride rotates the same desktop agents the HTTP fetcher sends
func userAgentOverride() *proto.NetworkSetUserAgentOverride {
	return &proto.NetworkSetUserAgentOverride{
		UserAgent:      helpers.RandomUserAgent(),
		AcceptLanguage: "en-IN,en;q=0.9,hi;q=0.8",
	}
}

// Close shuts the browser down if it was launched
func (f *RodFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser == nil {
		return nil
	}
	err := f.browser.Close()
	f.launcher.Kill()
	f.launcher.Cleanup()
	f.browser = nil
	f.launcher = nil
	return err
}

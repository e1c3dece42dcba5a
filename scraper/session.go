package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/use-agent/reviewscope/config"
	"github.com/use-agent/reviewscope/models"
)

// ErrElementNotFound is returned by Session.Locate when no element for a
// role appeared before the timeout.
var ErrElementNotFound = errors.New("element not found")

// Launcher opens isolated browser sessions.
type Launcher interface {
	// Open launches a browser presenting fp. The caller must Close the
	// returned session exactly once.
	Open(ctx context.Context, fp Fingerprint) (Session, error)
}

// Session is one browser tab owned by a single scrape attempt.
type Session interface {
	// Load navigates to url and waits for the network to settle.
	Load(ctx context.Context, url string) error

	// WaitIdle waits for the page to settle after an interaction.
	WaitIdle(ctx context.Context) error

	// Locate waits up to timeout for the element of role to appear.
	Locate(ctx context.Context, role Role, timeout time.Duration) (Element, error)

	// ScrollFeed scrolls the feed container toward its bottom in small steps.
	ScrollFeed(ctx context.Context) error

	// Snapshot returns the current rendered HTML of the page.
	Snapshot(ctx context.Context) (string, error)

	// Close terminates the browser. It is safe to call more than once.
	Close() error
}

// Element is a located element handle.
type Element interface {
	// Click performs a human-like mouse click on the element.
	Click(ctx context.Context) error
}

// RodLauncher launches one Chromium process per session through go-rod.
type RodLauncher struct {
	browserCfg config.BrowserConfig
	navCfg     config.NavigationConfig
	scrollCfg  config.ScrollConfig
	selectors  SelectorSet
}

// NewRodLauncher creates a launcher for the given browser profile.
func NewRodLauncher(browserCfg config.BrowserConfig, navCfg config.NavigationConfig, scrollCfg config.ScrollConfig, selectors SelectorSet) *RodLauncher {
	return &RodLauncher{
		browserCfg: browserCfg,
		navCfg:     navCfg,
		scrollCfg:  scrollCfg,
		selectors:  selectors,
	}
}

// newLauncher builds the launch command line for the configured profile.
func (r *RodLauncher) newLauncher(ctx context.Context, fp Fingerprint) *launcher.Launcher {
	l := launcher.New().Context(ctx)

	switch r.browserCfg.Profile {
	case config.ProfileServerless:
		l = l.Bin(r.browserCfg.BrowserBin).
			Headless(true).
			NoSandbox(true).
			Leakless(false)
		l.Set(flags.Flag("incognito"))
		l.Set(flags.Flag("single-process"))
		l.Set(flags.Flag("no-zygote"))
		l.Set(flags.Flag("disable-gpu"))
	default:
		l = l.Headless(r.browserCfg.Headless).
			NoSandbox(r.browserCfg.NoSandbox)
		if r.browserCfg.BrowserBin != "" {
			l = l.Bin(r.browserCfg.BrowserBin)
		}
	}

	if r.browserCfg.DefaultProxy != "" {
		l = l.Proxy(r.browserCfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("window-size"), strconv.Itoa(fp.Width)+","+strconv.Itoa(fp.Height))
	l.Set(flags.Flag("lang"), fp.AcceptLanguage)

	return l
}

// Open implements Launcher.
//
// Setup order matters: stealth JS, identity overrides and the hijack router
// must all be installed before the first navigation to take effect.
func (r *RodLauncher) Open(ctx context.Context, fp Fingerprint) (Session, error) {
	l := r.newLauncher(ctx, fp)

	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		l.Cleanup()
		return nil, models.NewScrapeError(models.ErrCodeLaunchFailure, "failed to launch browser", err)
	}
	slog.Debug("browser launched", "controlURL", controlURL, "profile", r.browserCfg.Profile)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, models.NewScrapeError(models.ErrCodeLaunchFailure, "failed to connect to browser", err)
	}

	s := &rodSession{
		launcher:  l,
		browser:   browser,
		navCfg:    r.navCfg,
		scrollCfg: r.scrollCfg,
		selectors: r.selectors,
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = s.Close()
		return nil, models.NewScrapeError(models.ErrCodeLaunchFailure, "failed to open page", err)
	}
	s.page = page

	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      fp.UserAgent,
		AcceptLanguage: fp.AcceptLanguage,
	}); err != nil {
		_ = s.Close()
		return nil, models.NewScrapeError(models.ErrCodeLaunchFailure, "failed to apply user agent", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  fp.Width,
		Height: fp.Height,
	}); err != nil {
		_ = s.Close()
		return nil, models.NewScrapeError(models.ErrCodeLaunchFailure, "failed to apply viewport", err)
	}

	s.router = setupHijack(page, r.browserCfg.BlockedResourceTypes)

	return s, nil
}

// rodSession is a Session backed by a dedicated Chromium process.
type rodSession struct {
	launcher  *launcher.Launcher
	browser   *rod.Browser
	page      *rod.Page
	router    *rod.HijackRouter
	navCfg    config.NavigationConfig
	scrollCfg config.ScrollConfig
	selectors SelectorSet

	closeOnce sync.Once
	closeErr  error
}

func (s *rodSession) Load(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, s.navCfg.NavigationTimeout)
	defer cancel()

	p := s.page.Context(ctx)

	// WaitRequestIdle must be registered before Navigate or in-flight
	// requests are missed. It relies on the Fetch domain, which the hijack
	// router already owns, so fall back to DOM stability when blocking.
	var waitIdle func()
	if s.router == nil {
		waitIdle = p.WaitRequestIdle(s.navCfg.IdleWindow, nil, nil, nil)
	}

	if err := p.Navigate(url); err != nil {
		return categorizeError(err, "navigation to target URL failed")
	}

	if waitIdle != nil {
		waitIdle()
	} else if err := p.WaitDOMStable(s.navCfg.IdleWindow, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}

	if err := ctx.Err(); err != nil {
		return categorizeError(err, "page did not settle before the navigation timeout")
	}
	return nil
}

func (s *rodSession) WaitIdle(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.navCfg.NavigationTimeout)
	defer cancel()
	return s.page.Context(ctx).WaitDOMStable(s.navCfg.IdleWindow, 0.1)
}

func (s *rodSession) Locate(ctx context.Context, role Role, timeout time.Duration) (Element, error) {
	sel := s.selectors[role]
	if sel.CSS == "" {
		return nil, fmt.Errorf("%w: role %q has no selector", ErrElementNotFound, role)
	}

	lctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := s.page.Context(lctx).Element(sel.CSS)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s after %s: %v", ErrElementNotFound, role, timeout, err)
	}
	return &rodElement{page: s.page, el: el}, nil
}

// scrollStepJS scrolls the container a fraction of its remaining height.
// It returns false when the container is gone.
const scrollStepJS = `(sel, stepsLeft) => {
	const el = document.querySelector(sel);
	if (!el) return false;
	const remaining = el.scrollHeight - el.scrollTop - el.clientHeight;
	el.scrollBy(0, Math.max(Math.ceil(remaining / stepsLeft), 1));
	return true;
}`

func (s *rodSession) ScrollFeed(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout())
	defer cancel()

	css := s.selectors[RoleFeedContainer].CSS
	p := s.page.Context(ctx)

	steps := s.scrollCfg.Steps
	if steps <= 0 {
		steps = 1
	}
	for i := 0; i < steps; i++ {
		res, err := p.Eval(scrollStepJS, css, steps-i)
		if err != nil {
			return fmt.Errorf("scroll step %d: %w", i, err)
		}
		if !res.Value.Bool() {
			return fmt.Errorf("scroll step %d: feed container is gone", i)
		}
		if err := randomDelay(ctx, s.scrollCfg.StepDelayMin, s.scrollCfg.StepDelayMax); err != nil {
			return err
		}
	}
	return nil
}

func (s *rodSession) Snapshot(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout())
	defer cancel()
	return s.page.Context(ctx).HTML()
}

func (s *rodSession) stepTimeout() time.Duration {
	if s.scrollCfg.StepTimeout > 0 {
		return s.scrollCfg.StepTimeout
	}
	return config.DefaultStepTimeout
}

func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		if s.router != nil {
			_ = s.router.Stop()
		}
		s.closeErr = s.browser.Close()
		s.launcher.Kill()
		s.launcher.Cleanup()
	})
	return s.closeErr
}

// rodElement binds a located element to the page that owns its mouse.
type rodElement struct {
	page *rod.Page
	el   *rod.Element
}

func (e *rodElement) Click(ctx context.Context) error {
	return humanClick(ctx, e.page, e.el)
}

// categorizeError wraps a navigation-phase failure. The error kinds form a
// closed set with no separate transport kind, so DNS and connection
// failures are reported as NavigationTimeout alongside real deadlines.
func categorizeError(err error, msg string) *models.ScrapeError {
	if errors.Is(err, context.Canceled) {
		msg = "request canceled"
	}
	return models.NewScrapeError(models.ErrCodeNavigationTimeout, msg, err)
}

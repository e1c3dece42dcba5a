package scraper

import (
	"context"
	"errors"
	"log/slog"

	"github.com/use-agent/reviewscope/config"
	"github.com/use-agent/reviewscope/models"
)

// NavState is a state of the navigation state machine.
type NavState string

const (
	StateLoading        NavState = "loading"
	StateConsentCheck   NavState = "consent_check"
	StateFeedEntryWait  NavState = "feed_entry_wait"
	StateFeedEntryClick NavState = "feed_entry_click"
	StateContainerWait  NavState = "container_wait"
	StateReady          NavState = "ready"
	StateNoFeed         NavState = "no_feed"
	StateFailed         NavState = "failed"
)

// Terminal reports whether s ends the machine.
func (s NavState) Terminal() bool {
	return s == StateReady || s == StateNoFeed || s == StateFailed
}

// NavigationResult is the outcome of Navigate.
type NavigationResult struct {
	// State is the terminal state reached.
	State NavState

	// Trace lists every state entered, in order, terminal state included.
	Trace []NavState
}

// navRun carries the per-call data the step functions share.
type navRun struct {
	sess  Session
	url   string
	entry Element
	err   error
}

// navStep performs the work of one state and returns the next one.
type navStep func(ctx context.Context, n *Navigator, run *navRun) NavState

// Navigator drives a session from a blank page to an open review feed.
type Navigator struct {
	cfg         config.NavigationConfig
	transitions map[NavState]navStep
}

// NewNavigator creates a Navigator bounded by cfg's timeouts.
func NewNavigator(cfg config.NavigationConfig) *Navigator {
	return &Navigator{
		cfg: cfg,
		transitions: map[NavState]navStep{
			StateLoading:        stepLoad,
			StateConsentCheck:   stepConsent,
			StateFeedEntryWait:  stepFeedEntryWait,
			StateFeedEntryClick: stepFeedEntryClick,
			StateContainerWait:  stepContainerWait,
		},
	}
}

// Navigate opens url in sess and brings up the review feed.
//
// Reaching StateReady returns a nil error. StateNoFeed returns a
// NoFeedFound error and StateFailed the error of the failing step; both
// are ScrapeErrors.
func (n *Navigator) Navigate(ctx context.Context, sess Session, url string) (NavigationResult, error) {
	run := &navRun{sess: sess, url: url}
	state := StateLoading
	res := NavigationResult{Trace: []NavState{state}}

	for !state.Terminal() {
		step, ok := n.transitions[state]
		if !ok {
			run.err = models.NewScrapeError(models.ErrCodeInternal, "navigation reached a state with no transition: "+string(state), nil)
			state = StateFailed
		} else {
			state = step(ctx, n, run)
		}
		res.Trace = append(res.Trace, state)
	}
	res.State = state

	slog.Debug("navigation finished", "url", url, "state", state, "trace", res.Trace)

	if state == StateReady {
		return res, nil
	}
	return res, run.err
}

func stepLoad(ctx context.Context, n *Navigator, run *navRun) NavState {
	if err := run.sess.Load(ctx, run.url); err != nil {
		run.err = asScrapeError(ctx, err, models.ErrCodeNavigationTimeout, "page load failed")
		return StateFailed
	}
	return StateConsentCheck
}

// stepConsent dismisses a consent interstitial when one shows up. Nothing
// here can fail the navigation; regions without the interstitial skip it.
func stepConsent(ctx context.Context, n *Navigator, run *navRun) NavState {
	if n.cfg.ConsentTimeout <= 0 {
		return StateFeedEntryWait
	}
	el, err := run.sess.Locate(ctx, RoleConsent, n.cfg.ConsentTimeout)
	if err != nil {
		if ctx.Err() != nil {
			run.err = categorizeError(ctx.Err(), "navigation cancelled during consent check")
			return StateFailed
		}
		slog.Debug("no consent interstitial", "url", run.url)
		return StateFeedEntryWait
	}
	if err := el.Click(ctx); err != nil {
		slog.Debug("consent click failed, continuing", "url", run.url, "error", err)
		return StateFeedEntryWait
	}
	if err := run.sess.WaitIdle(ctx); err != nil {
		slog.Debug("page did not settle after consent, continuing", "url", run.url, "error", err)
	}
	return StateFeedEntryWait
}

func stepFeedEntryWait(ctx context.Context, n *Navigator, run *navRun) NavState {
	el, err := run.sess.Locate(ctx, RoleFeedEntry, n.cfg.SelectorTimeout)
	if err != nil {
		if ctx.Err() != nil {
			run.err = categorizeError(ctx.Err(), "navigation cancelled waiting for the review feed entry point")
			return StateFailed
		}
		run.err = models.NewScrapeError(models.ErrCodeNoFeedFound, "no review feed entry point on the page", err)
		return StateNoFeed
	}
	run.entry = el
	return StateFeedEntryClick
}

func stepFeedEntryClick(ctx context.Context, n *Navigator, run *navRun) NavState {
	if err := run.entry.Click(ctx); err != nil {
		run.err = asScrapeError(ctx, err, models.ErrCodeFeedContainerMissing, "failed to open the review feed")
		return StateFailed
	}
	return StateContainerWait
}

func stepContainerWait(ctx context.Context, n *Navigator, run *navRun) NavState {
	if _, err := run.sess.Locate(ctx, RoleFeedContainer, n.cfg.SelectorTimeout); err != nil {
		run.err = asScrapeError(ctx, err, models.ErrCodeFeedContainerMissing, "review feed container did not appear")
		return StateFailed
	}
	return StateReady
}

// asScrapeError keeps an existing ScrapeError, maps context errors to a
// timeout, and wraps anything else with code.
func asScrapeError(ctx context.Context, err error, code, msg string) error {
	if _, ok := models.AsScrapeError(err); ok {
		return err
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return categorizeError(err, msg)
	}
	return models.NewScrapeError(code, msg, err)
}

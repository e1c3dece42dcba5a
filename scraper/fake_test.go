package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/reviewscope/config"
)

// feedPage renders a Google Maps-like place page using the default
// selectors.
type feedPage struct {
	name   string
	rating string
	count  string

	// counts[i] is the number of reviews rendered after i scrolls; the last
	// entry repeats.
	counts []int

	// growBy, when positive, makes the feed grow forever by this many
	// reviews per scroll, starting at counts[0].
	growBy int
}

func (f feedPage) rendered(scrolls int) int {
	if len(f.counts) == 0 {
		return 0
	}
	if f.growBy > 0 {
		return f.counts[0] + scrolls*f.growBy
	}
	if scrolls >= len(f.counts) {
		return f.counts[len(f.counts)-1]
	}
	return f.counts[scrolls]
}

func (f feedPage) html(scrolls int, withContainer bool) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	if f.name != "" {
		fmt.Fprintf(&b, `<h1 class="DUwDvf">%s</h1>`, f.name)
	}
	b.WriteString(`<div class="F7nice">`)
	if f.rating != "" {
		fmt.Fprintf(&b, `<span aria-hidden="true">%s</span>`, f.rating)
	}
	if f.count != "" {
		fmt.Fprintf(&b, `<span aria-label="%s">(%s)</span>`, f.count, f.count)
	}
	b.WriteString(`</div>`)
	if withContainer {
		b.WriteString(`<div class="m6QErb DxyBCb kA9KIf dS8AEf">`)
		for i := 0; i < f.rendered(scrolls); i++ {
			fmt.Fprintf(&b,
				`<div class="jftiEf" data-review-id="r%d"><div class="d4r55"> Reviewer %d </div>`+
					`<span class="kvMYJc" aria-label="%d stars"></span><span class="rsqaWe">%d days ago</span>`+
					`<div class="MyEned"><span class="wiI7pd">Review %d</span></div></div>`,
				i, i, 1+i%5, i+1, i)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// fakeSession is a scripted Session.
type fakeSession struct {
	page feedPage

	loadErr     error
	scrollErr   error
	snapshotErr error
	missing     map[Role]bool
	clickErr    map[Role]error

	// hangScroll and hangSnapshot make those calls block until ctx ends.
	hangScroll   bool
	hangSnapshot bool

	mu       sync.Mutex
	loaded   string
	scrolls  int
	clicks   []Role
	idles    int
	closes   int
	snapshot int
}

func (s *fakeSession) Load(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = url
	return s.loadErr
}

func (s *fakeSession) WaitIdle(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idles++
	return nil
}

func (s *fakeSession) Locate(ctx context.Context, role Role, timeout time.Duration) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.missing[role] {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, role)
	}
	return &fakeElement{sess: s, role: role}, nil
}

func (s *fakeSession) ScrollFeed(ctx context.Context) error {
	if s.hangScroll {
		<-ctx.Done()
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scrollErr != nil {
		return s.scrollErr
	}
	s.scrolls++
	return nil
}

func (s *fakeSession) Snapshot(ctx context.Context) (string, error) {
	if s.hangSnapshot {
		<-ctx.Done()
		return "", ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot++
	if s.snapshotErr != nil {
		return "", s.snapshotErr
	}
	return s.page.html(s.scrolls, !s.missing[RoleFeedContainer]), nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *fakeSession) scrollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrolls
}

type fakeElement struct {
	sess *fakeSession
	role Role
}

func (e *fakeElement) Click(ctx context.Context) error {
	e.sess.mu.Lock()
	defer e.sess.mu.Unlock()
	e.sess.clicks = append(e.sess.clicks, e.role)
	return e.sess.clickErr[e.role]
}

// fakeLauncher hands out fresh sessions built by newSession.
type fakeLauncher struct {
	openErr    error
	newSession func() *fakeSession

	mu       sync.Mutex
	opens    int
	sessions []*fakeSession
}

func (l *fakeLauncher) Open(ctx context.Context, fp Fingerprint) (Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opens++
	if l.openErr != nil {
		return nil, l.openErr
	}
	s := l.newSession()
	l.sessions = append(l.sessions, s)
	return s, nil
}

func (l *fakeLauncher) openCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opens
}

// leaked returns the number of sessions not closed exactly once.
func (l *fakeLauncher) leaked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, s := range l.sessions {
		s.mu.Lock()
		if s.closes != 1 {
			n++
		}
		s.mu.Unlock()
	}
	return n
}

func testConfig() *config.Config {
	return &config.Config{
		Browser: config.BrowserConfig{
			MaxSessions: 2,
		},
		Navigation: config.NavigationConfig{
			NavigationTimeout: time.Second,
			SelectorTimeout:   100 * time.Millisecond,
			ConsentTimeout:    50 * time.Millisecond,
			IdleWindow:        10 * time.Millisecond,
		},
		Scroll: config.ScrollConfig{
			MaxResults:  100,
			MaxAttempts: 10,
			Steps:       1,
		},
		Retry: config.RetryConfig{
			MaxRetries: 3,
			BaseDelay:  time.Millisecond,
			MaxDelay:   5 * time.Millisecond,
		},
		Target: config.TargetConfig{
			SearchURLTemplate: "https://maps.example.com/search/%s",
		},
	}
}

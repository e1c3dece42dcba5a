package scraper

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// humanClick moves the mouse along a short path to a random point inside
// the element's box, hesitates, then clicks.
func humanClick(ctx context.Context, page *rod.Page, el *rod.Element) error {
	el = el.Context(ctx)
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("scroll into view: %w", err)
	}

	shape, err := el.Shape()
	if err != nil {
		return fmt.Errorf("element shape: %w", err)
	}
	box := shape.Box()
	if box == nil || box.Width <= 0 || box.Height <= 0 {
		return fmt.Errorf("element has no visible box")
	}

	target := proto.Point{
		X: box.X + box.Width*(0.2+0.6*rand.Float64()),
		Y: box.Y + box.Height*(0.2+0.6*rand.Float64()),
	}

	p := page.Context(ctx)
	if err := p.Mouse.MoveLinear(target, 5+rand.IntN(10)); err != nil {
		return fmt.Errorf("move mouse: %w", err)
	}
	if err := randomDelay(ctx, 80*time.Millisecond, 250*time.Millisecond); err != nil {
		return err
	}
	return p.Mouse.Click(proto.InputMouseButtonLeft, 1)
}

// randomDelay sleeps for a uniformly random duration in [min, max] or until
// ctx is done.
func randomDelay(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d += rand.N(max - min + 1)
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

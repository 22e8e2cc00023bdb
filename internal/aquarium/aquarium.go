// Package aquarium simulates the feedback bubbles: dragging within a bounded
// container, soft repulsion of nearby bubbles and velocity decay.
//
// An Aquarium is owned by one client. All mutation is serialised behind a
// mutex so pointer events and the decay ticker never interleave.
package aquarium

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/folio-site/folio-backend/types"
)

// ErrAlreadyAttached is returned by Attach when the ticker is running.
var ErrAlreadyAttached = errors.New("aquarium already attached")

// Bubble is the view state of one feedback record.
type Bubble struct {
	Item types.Feedback
	// Position is the container-local centre.
	Position Vec
	// Offset is the displacement produced by repulsion.
	Offset   Vec
	Velocity Vec
	Dragging bool
	// Highlight is the transient intensity in [0, 0.8] set by repulsion.
	Highlight float64
	// Ambient is true while the floating animation runs.
	Ambient bool

	resumeAt         time.Time
	highlightClearAt time.Time
}

// Centre returns the displayed centre, Position plus Offset.
func (b Bubble) Centre() Vec {
	return b.Position.Add(b.Offset)
}

// Option configures an Aquarium.
type Option func(*Aquarium)

// WithClock replaces time.Now for resume and highlight deadlines.
func WithClock(now func() time.Time) Option {
	return func(a *Aquarium) {
		a.now = now
	}
}

// Aquarium is the bubble controller.
type Aquarium struct {
	mu      sync.Mutex
	cfg     Config
	size    Vec
	bubbles []*Bubble
	drag    int
	grab    Vec
	now     func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates an empty aquarium of the given container size.
func New(cfg Config, width, height float64, opts ...Option) *Aquarium {
	a := &Aquarium{
		cfg:  cfg,
		size: Vec{width, height},
		drag: -1,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns the tuning in use.
func (a *Aquarium) Config() Config {
	return a.cfg
}

// Size returns the container width and height.
func (a *Aquarium) Size() (float64, float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.size.X, a.size.Y
}

// Attach starts the decay ticker. The ticker stops on Detach or when ctx is
// done; after either the aquarium may be attached again.
func (a *Aquarium) Attach(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stop != nil {
		return ErrAlreadyAttached
	}
	stop := make(chan struct{})
	a.stop = stop

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(a.cfg.Tick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				a.mu.Lock()
				if a.stop == stop {
					a.stop = nil
				}
				a.mu.Unlock()
				return
			case <-stop:
				return
			case <-ticker.C:
				a.Tick()
			}
		}
	}()
	return nil
}

// Detach stops the ticker, waits for it and destroys every bubble. Calling it
// more than once is a no-op.
func (a *Aquarium) Detach() {
	a.mu.Lock()
	stop := a.stop
	a.stop = nil
	a.bubbles = nil
	a.drag = -1
	a.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	a.wg.Wait()
}

// Load replaces all bubbles with one per item, laid out in wrapped rows.
func (a *Aquarium) Load(items []types.Feedback) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.bubbles = make([]*Bubble, 0, len(items))
	a.drag = -1
	for _, item := range items {
		a.bubbles = append(a.bubbles, a.newBubble(item, len(a.bubbles)))
	}
}

// Add places one more bubble in the next layout slot.
func (a *Aquarium) Add(item types.Feedback) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.bubbles = append(a.bubbles, a.newBubble(item, len(a.bubbles)))
}

// Remove drops the bubble for the given feedback id. It reports whether one
// was found.
func (a *Aquarium) Remove(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, b := range a.bubbles {
		if b.Item.ID != id {
			continue
		}
		a.bubbles = append(a.bubbles[:i], a.bubbles[i+1:]...)
		switch {
		case a.drag == i:
			a.drag = -1
		case a.drag > i:
			a.drag--
		}
		return true
	}
	return false
}

func (a *Aquarium) newBubble(item types.Feedback, slot int) *Bubble {
	return &Bubble{
		Item:     item,
		Position: a.slot(slot),
		Ambient:  true,
	}
}

// slot returns the clamped layout position of the n-th bubble.
func (a *Aquarium) slot(n int) Vec {
	r := a.cfg.Radius
	step := 2*r + a.cfg.LayoutGap
	cols := int(math.Floor((a.size.X - 2*r) / step))
	if cols < 0 {
		cols = 0
	}
	cols++

	return a.clampCentre(Vec{
		X: r + float64(n%cols)*step,
		Y: r + float64(n/cols)*step,
	})
}

// Resize changes the container size and clamps every bubble back inside it.
// Bubbles loaded while the container had no area are laid out afresh.
func (a *Aquarium) Resize(width, height float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	empty := a.size.X <= 0 || a.size.Y <= 0
	a.size = Vec{width, height}
	if empty {
		for i, b := range a.bubbles {
			if b.Dragging {
				continue
			}
			b.Position = a.slot(i)
			b.Offset = Vec{}
		}
		return
	}
	for _, b := range a.bubbles {
		b.Position = a.clampCentre(b.Position)
		b.Offset = a.clampCentre(b.Centre()).Sub(b.Position)
	}
}

// Snapshot returns a copy of every bubble in draw order.
func (a *Aquarium) Snapshot() []Bubble {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Bubble, len(a.bubbles))
	for i, b := range a.bubbles {
		out[i] = *b
	}
	return out
}

// Dragging returns the item being dragged, if any.
func (a *Aquarium) Dragging() (types.Feedback, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.drag < 0 {
		return types.Feedback{}, false
	}
	return a.bubbles[a.drag].Item, true
}

// PointerDown starts dragging the topmost bubble under p. It returns false
// when the pointer is over empty space.
func (a *Aquarium) PointerDown(p Vec) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	// A press without a release in between ends the earlier drag.
	if a.drag >= 0 {
		a.release()
	}

	for i := len(a.bubbles) - 1; i >= 0; i-- {
		b := a.bubbles[i]
		centre := b.Centre()
		if p.Sub(centre).Len() > a.cfg.Radius {
			continue
		}

		a.grab = p.Sub(centre)
		b.Position = centre
		b.Offset = Vec{}
		b.Dragging = true
		b.Ambient = false
		b.Velocity = Vec{}
		b.resumeAt = time.Time{}
		a.drag = i
		return true
	}
	return false
}

// PointerMove moves the dragged bubble so the grab point follows p, then
// repels its neighbours. It returns false when nothing is dragging.
func (a *Aquarium) PointerMove(p Vec) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.drag < 0 {
		return false
	}

	b := a.bubbles[a.drag]
	next := a.clampCentre(p.Sub(a.grab))
	b.Velocity = next.Sub(b.Position)
	b.Position = next

	a.repel(b)
	return true
}

// PointerUp ends the current drag. Ambient motion resumes after ResumeDelay.
func (a *Aquarium) PointerUp() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.drag < 0 {
		return false
	}
	a.release()
	return true
}

func (a *Aquarium) release() {
	b := a.bubbles[a.drag]
	b.Dragging = false
	b.resumeAt = a.now().Add(a.cfg.ResumeDelay)
	a.drag = -1
}

// repel pushes every other bubble within InfluenceRadius of dragged away from it.
func (a *Aquarium) repel(dragged *Bubble) {
	now := a.now()

	for _, o := range a.bubbles {
		if o == dragged {
			continue
		}

		delta := o.Centre().Sub(dragged.Position)
		d := delta.Len()
		if d == 0 || d >= a.cfg.InfluenceRadius {
			o.Highlight = 0
			o.highlightClearAt = time.Time{}
			continue
		}

		ratio := 1 - d/a.cfg.InfluenceRadius
		force := ratio * ratio * a.cfg.ForceConstant
		push := delta.Scale(force / d)

		o.Velocity = o.Velocity.Add(push.Scale(a.cfg.VelocityScale))
		o.Offset = a.clampCentre(o.Centre().Add(push)).Sub(o.Position)

		o.Highlight = ratio * a.cfg.HighlightScale
		if d > a.cfg.HighlightThreshold*a.cfg.InfluenceRadius {
			o.highlightClearAt = now.Add(a.cfg.HighlightDelay)
		} else {
			o.highlightClearAt = time.Time{}
		}
	}
}

// Tick runs one decay step: damps the velocity of every bubble that is not
// dragging, resumes ambient motion and clears expired highlights. It never
// moves a bubble.
func (a *Aquarium) Tick() {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	for _, b := range a.bubbles {
		if b.Dragging {
			continue
		}

		if !b.Velocity.IsZero() {
			b.Velocity = Vec{a.decay(b.Velocity.X), a.decay(b.Velocity.Y)}
		}
		if !b.resumeAt.IsZero() && !now.Before(b.resumeAt) {
			b.Ambient = true
			b.resumeAt = time.Time{}
		}
		if !b.highlightClearAt.IsZero() && !now.Before(b.highlightClearAt) {
			b.Highlight = 0
			b.highlightClearAt = time.Time{}
		}
	}
}

func (a *Aquarium) decay(v float64) float64 {
	v *= a.cfg.Damping
	if math.Abs(v) < a.cfg.Epsilon {
		return 0
	}
	return v
}

// clampCentre keeps a bubble centre at least Radius from every container edge.
func (a *Aquarium) clampCentre(c Vec) Vec {
	r := a.cfg.Radius
	return clampVec(c, Vec{r, r}, Vec{a.size.X - r, a.size.Y - r})
}

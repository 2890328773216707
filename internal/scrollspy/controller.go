package scrollspy

import (
	"sync"
	"time"
)

const (
	DefaultHeaderOffset = 90
	DefaultSpyOffset    = 100
	DefaultRetryDelay   = 500 * time.Millisecond
)

// Options tune navigation. Zero values take the defaults.
type Options struct {
	// HeaderOffset is kept between the viewport top and a scroll target.
	HeaderOffset float64
	// SpyOffset is added to the scroll position before matching sections.
	SpyOffset  float64
	RetryDelay time.Duration
	// Instant disables smooth scrolling.
	Instant bool
}

// WithDefaults fills zero fields with the defaults.
func (o Options) WithDefaults() Options {
	if o.HeaderOffset == 0 {
		o.HeaderOffset = DefaultHeaderOffset
	}
	if o.SpyOffset == 0 {
		o.SpyOffset = DefaultSpyOffset
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	return o
}

// Controller owns the active section and the mobile menu state.
type Controller struct {
	doc   Document
	sched Scheduler
	opts  Options

	mu           sync.Mutex
	anchors      []string
	active       string
	lastY        float64
	framePending bool
	cancelFrame  func()
	cancelRetry  func()
	menuOpen     bool
	subs         map[int]func(string)
	nextSub      int
	closed       bool
}

// New returns a controller tracking anchors in order.
func New(doc Document, sched Scheduler, opts Options, anchors ...string) *Controller {
	if sched == nil {
		sched = TimerScheduler{}
	}
	c := &Controller{doc: doc, sched: sched, opts: opts.WithDefaults(), subs: make(map[int]func(string))}
	c.SetSections(anchors...)
	return c
}

// Options returns the effective options.
func (c *Controller) Options() Options { return c.opts }

// SetSections replaces the tracked anchors. Earlier anchors win on overlap.
func (c *Controller) SetSections(anchors ...string) {
	ids := make([]string, 0, len(anchors))
	for _, a := range anchors {
		if id := Anchor(a); id != "" {
			ids = append(ids, id)
		}
	}
	c.mu.Lock()
	c.anchors = ids
	c.mu.Unlock()
}

// ActiveSection returns the current active anchor, or "" before the first match.
func (c *Controller) ActiveSection() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Subscribe registers fn for active section changes. It returns an unsubscribe func.
func (c *Controller) Subscribe(fn func(active string)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// OnScroll records the scroll position. At most one evaluation is pending per frame.
func (c *Controller) OnScroll(y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.lastY = y
	if c.framePending {
		return
	}
	c.framePending = true
	c.cancelFrame = c.sched.RequestFrame(c.evaluate)
}

func (c *Controller) evaluate() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.framePending = false
	c.cancelFrame = nil
	line := c.lastY + c.opts.SpyOffset
	anchors := c.anchors
	c.mu.Unlock()

	match := ""
	for _, id := range anchors {
		if r, ok := c.doc.Element(id); ok && r.Contains(line) {
			match = id
			break
		}
	}
	if match == "" {
		return
	}

	c.mu.Lock()
	if match == c.active {
		c.mu.Unlock()
		return
	}
	c.active = match
	subs := make([]func(string), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(match)
	}
}

// ScrollToSection scrolls to anchor, retrying once if it is not mounted yet and
// falling back to the end of the document. The menu closes once navigation completes.
// An empty anchor only closes the menu.
func (c *Controller) ScrollToSection(anchor string) {
	id := Anchor(anchor)
	if id == "" {
		c.CloseMenu()
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.cancelRetry != nil {
		c.cancelRetry()
		c.cancelRetry = nil
	}
	c.mu.Unlock()

	if c.scrollIfMounted(id) {
		c.CloseMenu()
		return
	}

	cancel := c.sched.AfterFunc(c.opts.RetryDelay, func() {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.cancelRetry = nil
		c.mu.Unlock()

		if !c.scrollIfMounted(id) {
			c.doc.ScrollTo(c.doc.ScrollHeight(), !c.opts.Instant)
		}
		c.CloseMenu()
	})
	c.mu.Lock()
	c.cancelRetry = cancel
	c.mu.Unlock()
}

func (c *Controller) scrollIfMounted(id string) bool {
	r, ok := c.doc.Element(id)
	if !ok {
		return false
	}
	c.doc.ScrollTo(r.Top-c.opts.HeaderOffset, !c.opts.Instant)
	return true
}

// ToggleMenu flips the mobile menu and returns the new state.
func (c *Controller) ToggleMenu() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.menuOpen = !c.menuOpen
	return c.menuOpen
}

func (c *Controller) CloseMenu() {
	c.mu.Lock()
	c.menuOpen = false
	c.mu.Unlock()
}

func (c *Controller) MenuOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.menuOpen
}

// Close cancels pending frame and retry callbacks. Later calls are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.cancelFrame != nil {
		c.cancelFrame()
		c.cancelFrame = nil
	}
	if c.cancelRetry != nil {
		c.cancelRetry()
		c.cancelRetry = nil
	}
	c.subs = map[int]func(string){}
}

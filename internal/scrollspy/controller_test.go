package scrollspy

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type manualScheduler struct {
	mu     sync.Mutex
	frames []*task
	timers []*task
}

type task struct {
	fn        func()
	delay     time.Duration
	cancelled bool
}

func (s *manualScheduler) RequestFrame(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &task{fn: fn}
	s.frames = append(s.frames, t)
	return func() { s.mu.Lock(); t.cancelled = true; s.mu.Unlock() }
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &task{fn: fn, delay: d}
	s.timers = append(s.timers, t)
	return func() { s.mu.Lock(); t.cancelled = true; s.mu.Unlock() }
}

func (s *manualScheduler) pendingFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *manualScheduler) flushFrames() {
	s.mu.Lock()
	frames := s.frames
	s.frames = nil
	s.mu.Unlock()
	for _, t := range frames {
		if !t.cancelled {
			t.fn()
		}
	}
}

func (s *manualScheduler) fireTimers() []time.Duration {
	s.mu.Lock()
	timers := s.timers
	s.timers = nil
	s.mu.Unlock()
	var fired []time.Duration
	for _, t := range timers {
		if !t.cancelled {
			fired = append(fired, t.delay)
			t.fn()
		}
	}
	return fired
}

func pageLayout() *Layout {
	l := NewLayout(3000)
	l.Mount("hero", Rect{Top: 0, Height: 600})
	l.Mount("about", Rect{Top: 600, Height: 800})
	l.Mount("companies", Rect{Top: 1400, Height: 900})
	return l
}

func TestScrollToSectionAppliesHeaderOffset(t *testing.T) {
	t.Parallel()

	doc := pageLayout()
	sched := &manualScheduler{}
	c := New(doc, sched, Options{})
	c.ToggleMenu()

	c.ScrollToSection("#about")

	require.Equal(t, []Scroll{{Top: 510, Smooth: true}}, doc.Scrolls())
	require.False(t, c.MenuOpen())
	require.Empty(t, sched.timers)
}

func TestScrollToSectionRetriesOnce(t *testing.T) {
	t.Parallel()

	doc := pageLayout()
	sched := &manualScheduler{}
	c := New(doc, sched, Options{HeaderOffset: 64})
	c.ToggleMenu()

	c.ScrollToSection("board")
	require.Empty(t, doc.Scrolls())
	require.True(t, c.MenuOpen())

	doc.Mount("board", Rect{Top: 2300, Height: 500})
	require.Equal(t, []time.Duration{DefaultRetryDelay}, sched.fireTimers())
	require.Equal(t, []Scroll{{Top: 2236, Smooth: true}}, doc.Scrolls())
	require.False(t, c.MenuOpen())
}

func TestScrollToMissingSectionFallsBackToDocumentEnd(t *testing.T) {
	t.Parallel()

	doc := pageLayout()
	sched := &manualScheduler{}
	c := New(doc, sched, Options{Instant: true})

	c.ScrollToSection("#does-not-exist")
	sched.fireTimers()

	require.Equal(t, []Scroll{{Top: 3000, Smooth: false}}, doc.Scrolls())
	require.Empty(t, sched.fireTimers())
}

func TestScrollToEmptyAnchorOnlyClosesMenu(t *testing.T) {
	t.Parallel()

	doc := pageLayout()
	c := New(doc, &manualScheduler{}, Options{})
	require.True(t, c.ToggleMenu())

	c.ScrollToSection("#")
	require.False(t, c.MenuOpen())
	require.Empty(t, doc.Scrolls())
}

func TestOnScrollIsFrameThrottled(t *testing.T) {
	t.Parallel()

	sched := &manualScheduler{}
	c := New(pageLayout(), sched, Options{}, "hero", "about", "companies")

	var changes []string
	c.Subscribe(func(active string) { changes = append(changes, active) })

	c.OnScroll(10)
	c.OnScroll(200)
	c.OnScroll(600)
	require.Equal(t, 1, sched.pendingFrames())
	require.Equal(t, "", c.ActiveSection())

	sched.flushFrames()
	require.Equal(t, "about", c.ActiveSection())
	require.Equal(t, []string{"about"}, changes)

	c.OnScroll(650)
	sched.flushFrames()
	require.Equal(t, []string{"about"}, changes)
}

func TestOnScrollKeepsPreviousSectionWithoutMatch(t *testing.T) {
	t.Parallel()

	sched := &manualScheduler{}
	c := New(pageLayout(), sched, Options{}, "hero", "about", "companies")

	c.OnScroll(1500)
	sched.flushFrames()
	require.Equal(t, "companies", c.ActiveSection())

	c.OnScroll(2500)
	sched.flushFrames()
	require.Equal(t, "companies", c.ActiveSection())
}

func TestOnScrollFirstRegisteredAnchorWins(t *testing.T) {
	t.Parallel()

	doc := NewLayout(2000)
	doc.Mount("overview", Rect{Top: 0, Height: 1000})
	doc.Mount("highlights", Rect{Top: 200, Height: 300})
	sched := &manualScheduler{}
	c := New(doc, sched, Options{}, "highlights", "overview")

	c.OnScroll(150)
	sched.flushFrames()
	require.Equal(t, "highlights", c.ActiveSection())
}

func TestUnsubscribeAndClose(t *testing.T) {
	t.Parallel()

	doc := pageLayout()
	sched := &manualScheduler{}
	c := New(doc, sched, Options{}, "hero", "about")

	calls := 0
	unsubscribe := c.Subscribe(func(string) { calls++ })
	unsubscribe()
	c.OnScroll(700)
	sched.flushFrames()
	require.Equal(t, 0, calls)
	require.Equal(t, "about", c.ActiveSection())

	c.OnScroll(0)
	c.ScrollToSection("later")
	c.Close()
	sched.flushFrames()
	require.Empty(t, sched.fireTimers())
	require.Equal(t, "about", c.ActiveSection())
	require.Empty(t, doc.Scrolls())

	c.OnScroll(10)
	require.Equal(t, 0, sched.pendingFrames())
}

func TestAnchors(t *testing.T) {
	t.Parallel()

	got := Anchors([]string{"#home", "/blog", " #about ", "#home", "#", "https://example.com/#x"})
	require.Equal(t, []string{"home", "about"}, got)
}

func TestTimerSchedulerRunsAndCancels(t *testing.T) {
	t.Parallel()

	sched := TimerScheduler{Frame: time.Millisecond}
	ran := make(chan struct{})
	sched.RequestFrame(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("frame callback did not run")
	}

	fired := make(chan struct{}, 1)
	cancel := sched.AfterFunc(50*time.Millisecond, func() { fired <- struct{}{} })
	cancel()
	select {
	case <-fired:
		t.Fatal("cancelled callback ran")
	case <-time.After(100 * time.Millisecond):
	}
}

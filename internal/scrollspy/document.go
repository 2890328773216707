// Package scrollspy tracks the active page section and drives section navigation.
package scrollspy

import (
	"strings"
	"sync"
	"time"
)

// Rect is the vertical span of a section in document coordinates.
type Rect struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Contains reports whether y falls inside [Top, Top+Height).
func (r Rect) Contains(y float64) bool {
	return y >= r.Top && y < r.Top+r.Height
}

// Document is the page the controller scrolls.
type Document interface {
	// Element returns the span of the section with anchor id, if mounted.
	Element(anchor string) (Rect, bool)
	ScrollHeight() float64
	ScrollTo(top float64, smooth bool)
}

// Scheduler defers work. Callbacks never run before the call returns.
// Both methods return a cancel func.
type Scheduler interface {
	RequestFrame(fn func()) (cancel func())
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

// TimerScheduler runs frames on a fixed interval using the runtime timer.
type TimerScheduler struct {
	Frame time.Duration
}

const defaultFrame = 16 * time.Millisecond

func (s TimerScheduler) RequestFrame(fn func()) func() {
	frame := s.Frame
	if frame <= 0 {
		frame = defaultFrame
	}
	return s.AfterFunc(frame, fn)
}

func (TimerScheduler) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Anchor strips the leading '#' and surrounding space from an anchor reference.
func Anchor(ref string) string {
	return strings.TrimPrefix(strings.TrimSpace(ref), "#")
}

// Anchors returns the in-page anchors among hrefs, in order and without duplicates.
func Anchors(hrefs []string) []string {
	seen := make(map[string]struct{}, len(hrefs))
	out := make([]string, 0, len(hrefs))
	for _, h := range hrefs {
		h = strings.TrimSpace(h)
		if !strings.HasPrefix(h, "#") {
			continue
		}
		id := Anchor(h)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Layout is an in-memory Document.
type Layout struct {
	mu       sync.Mutex
	sections map[string]Rect
	height   float64
	scrolls  []Scroll
}

// Scroll records one ScrollTo call.
type Scroll struct {
	Top    float64
	Smooth bool
}

// NewLayout returns an empty layout of the given height.
func NewLayout(height float64) *Layout {
	return &Layout{sections: make(map[string]Rect), height: height}
}

// Mount places a section. Mounting past the current height grows the document.
func (l *Layout) Mount(anchor string, r Rect) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sections[Anchor(anchor)] = r
	if end := r.Top + r.Height; end > l.height {
		l.height = end
	}
}

// Unmount removes a section.
func (l *Layout) Unmount(anchor string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sections, Anchor(anchor))
}

func (l *Layout) Element(anchor string) (Rect, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.sections[Anchor(anchor)]
	return r, ok
}

func (l *Layout) ScrollHeight() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.height
}

func (l *Layout) ScrollTo(top float64, smooth bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scrolls = append(l.scrolls, Scroll{Top: top, Smooth: smooth})
}

// Scrolls returns the ScrollTo calls so far.
func (l *Layout) Scrolls() []Scroll {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Scroll, len(l.scrolls))
	copy(out, l.scrolls)
	return out
}

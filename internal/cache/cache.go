// Package cache memoizes CMS collections per resource and language with
// request deduplication and stale-while-revalidate semantics.
package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultRevalidateTimeout = 30 * time.Second
	defaultMaxDetailEntries  = 256
	metricNamespace          = "holding-web/cache"
)

// Lookup outcomes recorded on the lookups counter.
const (
	LookupFresh = "fresh"
	LookupStale = "stale"
	LookupError = "error"
	LookupMiss  = "miss"
)

// Loader produces the value for one key.
type Loader func(ctx context.Context) (any, error)

type entry struct {
	state       State
	attemptedAt time.Time
	inflight    bool
	loader      Loader
	policy      Policy
}

// Store holds cache entries for the lifetime of the process.
type Store struct {
	mu                sync.RWMutex
	entries           map[Key]*entry
	group             singleflight.Group
	now               func() time.Time
	revalidateTimeout time.Duration
	logger            *zap.Logger
	background        sync.WaitGroup
	maxDetails        int

	meter          metric.Meter
	lookups        metric.Int64Counter
	lookupsEnabled bool
	latency        metric.Float64Histogram
	latencyEnabled bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRevalidateTimeout bounds loads that outlive the request that started them.
func WithRevalidateTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.revalidateTimeout = d
		}
	}
}

// WithLogger sets the logger used for background revalidation failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxDetailEntries caps the number of ID-keyed entries. The least recently
// attempted idle one is evicted when a new detail key would exceed the cap.
func WithMaxDetailEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxDetails = n
		}
	}
}

// WithMeter injects a custom OpenTelemetry meter.
func WithMeter(m metric.Meter) Option {
	return func(s *Store) {
		if m != nil {
			s.meter = m
		}
	}
}

// New constructs an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		entries:           make(map[Key]*entry),
		now:               time.Now,
		revalidateTimeout: defaultRevalidateTimeout,
		logger:            zap.NewNop(),
		maxDetails:        defaultMaxDetailEntries,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.meter == nil {
		s.meter = otel.GetMeterProvider().Meter(metricNamespace)
	}

	lookups, err := s.meter.Int64Counter(
		"cache.lookups",
		metric.WithDescription("Cache lookups by outcome"),
	)
	if err != nil {
		s.logger.Warn("cache: unable to register lookup metric", zap.Error(err))
	}
	s.lookups, s.lookupsEnabled = lookups, err == nil

	latency, err := s.meter.Float64Histogram(
		"cache.load.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency in milliseconds of cache loads"),
	)
	if err != nil {
		s.logger.Warn("cache: unable to register latency metric", zap.Error(err))
	}
	s.latency, s.latencyEnabled = latency, err == nil
	return s
}

// GetOrFetch returns the entry for key, loading it when absent and revalidating it in the
// background when older than the policy's dedupe window. Concurrent callers share one load.
// When ctx ends before a blocking load resolves, the result reports IsLoading.
func GetOrFetch[T any](ctx context.Context, s *Store, key Key, policy Policy, load func(context.Context) (T, error)) Result[T] {
	loader := func(ctx context.Context) (any, error) { return load(ctx) }

	state, fresh, inflight := s.inspect(key, policy, loader)
	switch {
	case state.HasData() && fresh:
		s.recordLookup(ctx, key, LookupFresh)
		return resultOf[T](state, inflight)
	case state.HasData():
		s.recordLookup(ctx, key, LookupStale)
		s.revalidate(ctx, key)
		return resultOf[T](state, true)
	case state.Status == StatusError && fresh:
		s.recordLookup(ctx, key, LookupError)
		return resultOf[T](state, inflight)
	}

	s.recordLookup(ctx, key, LookupMiss)
	ch := s.start(ctx, key)
	select {
	case <-ch:
		return resultOf[T](s.Peek(key), false)
	case <-ctx.Done():
		return resultOf[T](s.Peek(key), true)
	}
}

// Prefetch starts a load for key unless the last attempt is within the window or one is running.
// It never blocks.
func Prefetch[T any](ctx context.Context, s *Store, key Key, policy Policy, load func(context.Context) (T, error)) {
	loader := func(ctx context.Context) (any, error) { return load(ctx) }
	_, fresh, inflight := s.inspect(key, policy, loader)
	if inflight || fresh {
		return
	}
	s.revalidate(ctx, key)
}

// Peek returns the current state for key without triggering a load.
func (s *Store) Peek(key Key) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return State{Status: StatusIdle}
	}
	return e.state
}

// PeekAs is Peek with the data converted to T.
func PeekAs[T any](s *Store, key Key) Result[T] {
	s.mu.RLock()
	e, ok := s.entries[key]
	var state State
	inflight := false
	if ok {
		state, inflight = e.state, e.inflight
	}
	s.mu.RUnlock()
	if !ok {
		return Result[T]{}
	}
	return resultOf[T](state, inflight)
}

// EntryInfo summarises one entry for readiness reporting.
type EntryInfo struct {
	Key       Key
	Status    Status
	UpdatedAt time.Time
	Err       error
}

// Entries lists every known entry ordered by key.
func (s *Store) Entries() []EntryInfo {
	s.mu.RLock()
	out := make([]EntryInfo, 0, len(s.entries))
	for k, e := range s.entries {
		out = append(out, EntryInfo{Key: k, Status: e.state.Status, UpdatedAt: e.state.UpdatedAt, Err: e.state.Err})
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}

// NotifyReconnect revalidates every entry whose policy asks for it, ignoring the dedupe window.
// It does not wait for the loads and returns the number scheduled.
func (s *Store) NotifyReconnect(ctx context.Context) int {
	return s.revalidateWhere(ctx, func(p Policy) bool { return p.RevalidateOnReconnect })
}

// NotifyFocus revalidates entries with focus revalidation enabled. It returns the number scheduled.
func (s *Store) NotifyFocus(ctx context.Context) int {
	return s.revalidateWhere(ctx, func(p Policy) bool { return p.RevalidateOnFocus })
}

// Invalidate drops key so the next read loads it again.
func (s *Store) Invalidate(key Key) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Wait blocks until background revalidations started so far have finished.
func (s *Store) Wait() {
	s.background.Wait()
}

func (s *Store) revalidateWhere(ctx context.Context, match func(Policy) bool) int {
	s.mu.RLock()
	keys := make([]Key, 0, len(s.entries))
	for k, e := range s.entries {
		if e.loader != nil && match(e.policy) {
			keys = append(keys, k)
		}
	}
	s.mu.RUnlock()
	for _, k := range keys {
		s.revalidate(ctx, k)
	}
	return len(keys)
}

// inspect registers the loader and policy for key and reports whether the last attempt is within the window.
func (s *Store) inspect(key Key, policy Policy, loader Loader) (State, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		if key.IsDetail() {
			s.evictDetailsLocked()
		}
		e = &entry{state: State{Status: StatusIdle}}
		s.entries[key] = e
	}
	e.loader = loader
	e.policy = policy
	fresh := !e.attemptedAt.IsZero() && s.now().Sub(e.attemptedAt) < policy.DedupeWindow
	return e.state, fresh, e.inflight
}

// evictDetailsLocked drops the oldest idle detail entries until one more fits under the cap.
func (s *Store) evictDetailsLocked() {
	for {
		var (
			count  int
			oldest Key
			found  bool
			at     time.Time
		)
		for k, e := range s.entries {
			if !k.IsDetail() {
				continue
			}
			count++
			if e.inflight {
				continue
			}
			if !found || e.attemptedAt.Before(at) {
				oldest, at, found = k, e.attemptedAt, true
			}
		}
		if count < s.maxDetails || !found {
			return
		}
		delete(s.entries, oldest)
	}
}

// revalidate starts a background load for key if none is running.
func (s *Store) revalidate(ctx context.Context, key Key) {
	s.mu.RLock()
	e, ok := s.entries[key]
	busy := ok && e.inflight
	s.mu.RUnlock()
	if !ok || busy {
		return
	}
	s.start(ctx, key)
}

// start joins or begins the shared load for key. The load outlives ctx's cancellation but keeps its values.
func (s *Store) start(ctx context.Context, key Key) <-chan singleflight.Result {
	base := context.WithoutCancel(ctx)
	s.background.Add(1)
	ch := s.group.DoChan(key.String(), func() (any, error) {
		return s.load(base, key)
	})
	out := make(chan singleflight.Result, 1)
	go func() {
		defer s.background.Done()
		out <- <-ch
	}()
	return out
}

func (s *Store) load(base context.Context, key Key) (any, error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || e.loader == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("cache: no loader registered for %s", key)
	}
	loader := e.loader
	e.inflight = true
	e.attemptedAt = s.now()
	e.state.Status = StatusLoading
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(base, s.revalidateTimeout)
	defer cancel()
	started := time.Now()
	data, err := loader(ctx)
	s.recordLatency(ctx, key, time.Since(started), err)

	s.mu.Lock()
	defer s.mu.Unlock()
	e.inflight = false
	e.attemptedAt = s.now()
	if err != nil {
		e.state.Status = StatusError
		e.state.Err = err
		s.logger.Warn("cache load failed", zap.String("key", key.String()), zap.Error(err))
		return nil, err
	}
	e.state = State{Status: StatusSuccess, Data: data, UpdatedAt: s.now()}
	return data, nil
}

func (s *Store) recordLookup(ctx context.Context, key Key, outcome string) {
	if !s.lookupsEnabled {
		return
	}
	s.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", string(key.Resource)),
		attribute.String("outcome", outcome),
	))
}

func (s *Store) recordLatency(ctx context.Context, key Key, d time.Duration, err error) {
	if !s.latencyEnabled {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("resource", string(key.Resource)),
		attribute.Bool("error", err != nil),
	}
	s.latency.Record(ctx, float64(d)/float64(time.Millisecond), metric.WithAttributes(attrs...))
}

func resultOf[T any](state State, inflight bool) Result[T] {
	var out Result[T]
	if v, ok := state.Data.(T); ok {
		out.Data = v
	}
	out.Err = state.Err
	// An idle entry has a load scheduled that has not started yet.
	out.IsValidating = inflight || state.Status == StatusLoading || state.Status == StatusIdle
	out.IsLoading = out.IsValidating && !state.HasData()
	return out
}

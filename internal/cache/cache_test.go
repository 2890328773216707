package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finitefield.org/holding-web/internal/cms"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var newsKey = Key{Resource: cms.ResourceNews, Lang: "en"}

func countingLoader(calls *atomic.Int32, values ...string) func(context.Context) ([]string, error) {
	return func(context.Context) ([]string, error) {
		n := int(calls.Add(1))
		if n > len(values) {
			n = len(values)
		}
		return []string{values[n-1]}, nil
	}
}

func TestGetOrFetchDedupesConcurrentCallers(t *testing.T) {
	t.Parallel()

	store := New()
	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) ([]string, error) {
		calls.Add(1)
		<-release
		return []string{"a"}, nil
	}

	var wg sync.WaitGroup
	results := make([]Result[[]string], 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = GetOrFetch(context.Background(), store, newsKey, Volatile(time.Minute), load)
		}(i)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
	for _, res := range results {
		require.Equal(t, []string{"a"}, res.Data)
		require.False(t, res.IsLoading)
		require.NoError(t, res.Err)
	}
}

func TestGetOrFetchServesFreshWithinWindow(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	store := New(WithClock(clock.Now))
	var calls atomic.Int32
	load := countingLoader(&calls, "v1", "v2")

	first := GetOrFetch(context.Background(), store, newsKey, Volatile(time.Minute), load)
	clock.Advance(59 * time.Second)
	second := GetOrFetch(context.Background(), store, newsKey, Volatile(time.Minute), load)

	require.Equal(t, []string{"v1"}, first.Data)
	require.Equal(t, []string{"v1"}, second.Data)
	require.False(t, second.IsValidating)
	require.EqualValues(t, 1, calls.Load())
}

func TestGetOrFetchStaleWhileRevalidate(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	store := New(WithClock(clock.Now))
	var calls atomic.Int32
	load := countingLoader(&calls, "v1", "v2")

	GetOrFetch(context.Background(), store, newsKey, Volatile(time.Minute), load)
	clock.Advance(2 * time.Minute)

	stale := GetOrFetch(context.Background(), store, newsKey, Volatile(time.Minute), load)
	require.Equal(t, []string{"v1"}, stale.Data)
	require.False(t, stale.IsLoading)
	require.True(t, stale.IsValidating)

	store.Wait()
	require.EqualValues(t, 2, calls.Load())
	fresh := GetOrFetch(context.Background(), store, newsKey, Volatile(time.Minute), load)
	require.Equal(t, []string{"v2"}, fresh.Data)
}

func TestGetOrFetchKeepsErrorUntilNextSuccess(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	store := New(WithClock(clock.Now))
	boom := errors.New("boom")
	var fail atomic.Bool
	fail.Store(true)
	var calls atomic.Int32
	load := func(context.Context) ([]string, error) {
		calls.Add(1)
		if fail.Load() {
			return nil, boom
		}
		return []string{"ok"}, nil
	}

	res := GetOrFetch(context.Background(), store, newsKey, Static(5*time.Minute), load)
	require.ErrorIs(t, res.Err, boom)
	require.Nil(t, res.Data)
	require.Equal(t, StatusError, store.Peek(newsKey).Status)

	// Within the window the error is served without another request.
	res = GetOrFetch(context.Background(), store, newsKey, Static(5*time.Minute), load)
	require.ErrorIs(t, res.Err, boom)
	require.EqualValues(t, 1, calls.Load())

	fail.Store(false)
	clock.Advance(6 * time.Minute)
	res = GetOrFetch(context.Background(), store, newsKey, Static(5*time.Minute), load)
	require.NoError(t, res.Err)
	require.Equal(t, []string{"ok"}, res.Data)
	require.Equal(t, StatusSuccess, store.Peek(newsKey).Status)
}

func TestFailedRevalidationKeepsStaleData(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	store := New(WithClock(clock.Now))
	boom := errors.New("boom")
	var calls atomic.Int32
	load := func(context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			return []string{"v1"}, nil
		}
		return nil, boom
	}

	GetOrFetch(context.Background(), store, newsKey, Volatile(time.Minute), load)
	clock.Advance(2 * time.Minute)
	GetOrFetch(context.Background(), store, newsKey, Volatile(time.Minute), load)
	store.Wait()

	state := store.Peek(newsKey)
	require.Equal(t, StatusError, state.Status)
	require.Equal(t, []string{"v1"}, state.Data)
	require.ErrorIs(t, state.Err, boom)
}

func TestGetOrFetchCallerCancelReportsLoading(t *testing.T) {
	t.Parallel()

	store := New()
	release := make(chan struct{})
	load := func(context.Context) ([]string, error) {
		<-release
		return []string{"late"}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := GetOrFetch(ctx, store, newsKey, Volatile(time.Minute), load)
	require.True(t, res.IsLoading)

	close(release)
	store.Wait()
	require.Equal(t, []string{"late"}, store.Peek(newsKey).Data)
}

func TestPrefetchDoesNotBlock(t *testing.T) {
	t.Parallel()

	store := New()
	release := make(chan struct{})
	var calls atomic.Int32
	load := func(context.Context) ([]string, error) {
		calls.Add(1)
		<-release
		return []string{"x"}, nil
	}

	Prefetch(context.Background(), store, newsKey, Volatile(time.Minute), load)
	Prefetch(context.Background(), store, newsKey, Volatile(time.Minute), load)
	peek := PeekAs[[]string](store, newsKey)
	require.True(t, peek.IsLoading)

	close(release)
	store.Wait()
	require.EqualValues(t, 1, calls.Load())
	require.Equal(t, []string{"x"}, PeekAs[[]string](store, newsKey).Data)
}

func TestNotifyHonoursPolicies(t *testing.T) {
	t.Parallel()

	store := New()
	var newsCalls, boardCalls atomic.Int32
	boardKey := Key{Resource: cms.ResourceBoard, Lang: "en"}

	GetOrFetch(context.Background(), store, newsKey, Volatile(time.Minute), countingLoader(&newsCalls, "n"))
	GetOrFetch(context.Background(), store, boardKey, Static(5*time.Minute), countingLoader(&boardCalls, "b"))

	require.Equal(t, 1, store.NotifyFocus(context.Background()))
	store.Wait()
	require.EqualValues(t, 2, newsCalls.Load())
	require.EqualValues(t, 1, boardCalls.Load())

	require.Equal(t, 2, store.NotifyReconnect(context.Background()))
	store.Wait()
	require.EqualValues(t, 3, newsCalls.Load())
	require.EqualValues(t, 2, boardCalls.Load())
}

func TestKeysAreLanguageScoped(t *testing.T) {
	t.Parallel()

	store := New()
	GetOrFetch(context.Background(), store, Key{Resource: cms.ResourceHero, Lang: "en"}, Static(time.Minute),
		func(context.Context) (string, error) { return "Welcome", nil })
	GetOrFetch(context.Background(), store, Key{Resource: cms.ResourceHero, Lang: "ar"}, Static(time.Minute),
		func(context.Context) (string, error) { return "مرحبا", nil })

	require.Equal(t, "Welcome", store.Peek(Key{Resource: cms.ResourceHero, Lang: "en"}).Data)
	require.Equal(t, "مرحبا", store.Peek(Key{Resource: cms.ResourceHero, Lang: "ar"}).Data)
	require.Len(t, store.Entries(), 2)
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	store := New()
	var calls atomic.Int32
	GetOrFetch(context.Background(), store, newsKey, Volatile(time.Minute), countingLoader(&calls, "a", "b"))
	store.Invalidate(newsKey)
	require.Equal(t, StatusIdle, store.Peek(newsKey).Status)

	res := GetOrFetch(context.Background(), store, newsKey, Volatile(time.Minute), countingLoader(&calls, "a", "b"))
	require.Equal(t, []string{"b"}, res.Data)
}

func TestKeyString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "news|en", newsKey.String())
	require.Equal(t, "blogs/hello|ar", Key{Resource: cms.ResourcePosts, Lang: "ar", ID: "hello"}.String())
}

func TestDetailEntriesAreBounded(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	store := New(WithClock(clock.Now), WithMaxDetailEntries(2))
	load := func(context.Context) (string, error) { return "post", nil }
	detail := func(id string) Key { return Key{Resource: cms.ResourcePosts, Lang: "en", ID: id} }

	GetOrFetch(context.Background(), store, newsKey, Volatile(time.Minute), load)
	for _, id := range []string{"a", "b", "c"} {
		GetOrFetch(context.Background(), store, detail(id), Volatile(time.Minute), load)
		clock.Advance(time.Second)
	}

	require.Equal(t, StatusIdle, store.Peek(detail("a")).Status)
	require.Equal(t, StatusSuccess, store.Peek(detail("b")).Status)
	require.Equal(t, StatusSuccess, store.Peek(detail("c")).Status)
	require.Equal(t, StatusSuccess, store.Peek(newsKey).Status)
	require.Len(t, store.Entries(), 3)
}

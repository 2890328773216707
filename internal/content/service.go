// Package content aggregates CMS collections into page view models.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"finitefield.org/holding-web/internal/cache"
	"finitefield.org/holding-web/internal/cms"
	"finitefield.org/holding-web/internal/nav"
)

const (
	defaultStaticWindow   = 5 * time.Minute
	defaultVolatileWindow = time.Minute
	defaultSearchWindow   = 30 * time.Second
)

// Source is the CMS surface the service reads from. *cms.Client satisfies it.
type Source interface {
	Fetch(ctx context.Context, resource cms.Resource, lang string, params url.Values) (cms.Envelope, error)
	FetchOne(ctx context.Context, resource cms.Resource, id, lang string) ([]byte, error)
	SubmitContact(ctx context.Context, req cms.ContactRequest, lang string) (cms.ContactResponse, error)
	Search(ctx context.Context, query, lang string) ([]cms.SearchHit, error)
}

// reconnectNotifier is implemented by sources that can report connectivity recovery.
type reconnectNotifier interface {
	SetReconnectHook(fn func())
}

// Translator resolves localized strings.
type Translator interface {
	T(lang, key string) string
}

type passthroughTranslator struct{}

func (passthroughTranslator) T(_, key string) string { return key }

// Service owns the content cache for the lifetime of the process.
type Service struct {
	src         Source
	store       *cache.Store
	static      cache.Policy
	volatile    cache.Policy
	search      cache.Policy
	fallback    []nav.Fallback
	translator  Translator
	defaultLang string
	logger      *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithWindows sets the dedupe windows for static and volatile collections.
func WithWindows(static, volatile time.Duration) Option {
	return func(s *Service) {
		if static > 0 {
			s.static = cache.Static(static)
		}
		if volatile > 0 {
			s.volatile = cache.Volatile(volatile)
		}
	}
}

// WithSearchWindow sets how long identical search queries are answered from the cache.
func WithSearchWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.search.DedupeWindow = d
		}
	}
}

// WithFallbackMenu replaces the built-in fallback menu entries.
func WithFallbackMenu(items []nav.Fallback) Option {
	return func(s *Service) {
		if items != nil {
			s.fallback = items
		}
	}
}

// WithTranslator sets the translator used for notifications.
func WithTranslator(t Translator) Option {
	return func(s *Service) {
		if t != nil {
			s.translator = t
		}
	}
}

// WithDefaultLang sets the language used when callers pass none.
func WithDefaultLang(lang string) Option {
	return func(s *Service) { s.defaultLang = cms.NormalizeLang(lang, cms.LangArabic) }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService wires src and store. When src reports reconnects, the store revalidates.
func NewService(src Source, store *cache.Store, opts ...Option) *Service {
	if store == nil {
		store = cache.New()
	}
	s := &Service{
		src:         src,
		store:       store,
		static:      cache.Static(defaultStaticWindow),
		volatile:    cache.Volatile(defaultVolatileWindow),
		search:      cache.Policy{DedupeWindow: defaultSearchWindow, RevalidateOnReconnect: true},
		fallback:    nav.DefaultFallback(),
		translator:  passthroughTranslator{},
		defaultLang: cms.LangArabic,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if rn, ok := src.(reconnectNotifier); ok {
		rn.SetReconnectHook(func() {
			n := store.NotifyReconnect(context.Background())
			s.logger.Info("cms reachable again, revalidating", zap.Int("entries", n))
		})
	}
	return s
}

// Store exposes the underlying cache for readiness reporting.
func (s *Service) Store() *cache.Store { return s.store }

// Lang normalizes lang against the service default.
func (s *Service) Lang(lang string) string {
	return cms.NormalizeLang(lang, s.defaultLang)
}

// Policy returns the cache policy for resource.
func (s *Service) Policy(resource cms.Resource) cache.Policy {
	if resource.Volatile() {
		return s.volatile
	}
	return s.static
}

// Event is a client lifecycle signal that may trigger revalidation.
type Event string

const (
	EventFocus     Event = "focus"
	EventReconnect Event = "reconnect"
)

// Revalidate applies the per-resource policy for event and returns the number of entries scheduled.
func (s *Service) Revalidate(ctx context.Context, event Event) (int, error) {
	switch event {
	case EventFocus:
		return s.store.NotifyFocus(ctx), nil
	case EventReconnect:
		return s.store.NotifyReconnect(ctx), nil
	default:
		return 0, fmt.Errorf("content: unknown event %q", event)
	}
}

// Settings returns the site settings as a key/value map.
func (s *Service) Settings(ctx context.Context, lang string) (map[string]any, error) {
	lang = s.Lang(lang)
	res := cache.GetOrFetch(ctx, s.store, cache.Key{Resource: cms.ResourceSettings, Lang: lang}, s.static, s.settingsLoader(lang))
	if res.Data == nil {
		if res.Err != nil {
			return nil, res.Err
		}
		if res.IsLoading {
			return nil, ctx.Err()
		}
	}
	return res.Data, res.Err
}

// Post returns one blog post by slug.
func (s *Service) Post(ctx context.Context, slug, lang string) (cms.Post, error) {
	lang = s.Lang(lang)
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return cms.Post{}, cms.ErrNotFound
	}
	key := cache.Key{Resource: cms.ResourcePosts, Lang: lang, ID: slug}
	res := cache.GetOrFetch(ctx, s.store, key, s.volatile, func(ctx context.Context) (cms.Post, error) {
		raw, err := s.src.FetchOne(ctx, cms.ResourcePosts, slug, lang)
		if err != nil {
			return cms.Post{}, err
		}
		var post cms.Post
		if err := json.Unmarshal(raw, &post); err != nil {
			return cms.Post{}, fmt.Errorf("content: decode post %s: %w", slug, cms.ErrMalformedResponse)
		}
		return post, nil
	})
	if res.IsLoading {
		return cms.Post{}, ctx.Err()
	}
	if errors.Is(res.Err, cms.ErrNotFound) {
		s.store.Invalidate(key)
		return cms.Post{}, res.Err
	}
	if res.Err != nil && res.Data.Slug == "" && res.Data.Title == "" {
		return cms.Post{}, res.Err
	}
	return res.Data, nil
}

// Menu returns the merged navigation menu.
func (s *Service) Menu(ctx context.Context, lang string) ([]nav.MenuItem, error) {
	lang = s.Lang(lang)
	res := cache.GetOrFetch(ctx, s.store, cache.Key{Resource: cms.ResourceMenu, Lang: lang}, s.static, s.menuLoader(lang))
	if res.Data == nil && res.Err == nil && res.IsLoading {
		return nil, ctx.Err()
	}
	if res.Data == nil && res.Err != nil {
		return nil, res.Err
	}
	return res.Data, nil
}

// Posts returns the blog post list, newest first.
func (s *Service) Posts(ctx context.Context, lang string) ([]cms.Post, error) {
	return collection(ctx, s, cms.ResourcePosts, s.Lang(lang), postsNewestFirst)
}

// Sections returns the homepage section blocks in display order.
func (s *Service) Sections(ctx context.Context, lang string) ([]cms.Section, error) {
	return collection(ctx, s, cms.ResourceSections, s.Lang(lang), byOrder[cms.Section])
}

// Legal returns the legal documents in display order.
func (s *Service) Legal(ctx context.Context, lang string) ([]cms.LegalPage, error) {
	return collection(ctx, s, cms.ResourceLegal, s.Lang(lang), byOrder[cms.LegalPage])
}

// ContactInfo returns the first published contact block, zero when the CMS has none.
func (s *Service) ContactInfo(ctx context.Context, lang string) (cms.ContactInfo, error) {
	items, err := collection[cms.ContactInfo](ctx, s, cms.ResourceContact, s.Lang(lang), nil)
	if err != nil || len(items) == 0 {
		return cms.ContactInfo{}, err
	}
	return items[0], nil
}

// CachedPosts returns the post list held in the cache for lang without loading it.
func (s *Service) CachedPosts(lang string) []cms.Post {
	return cache.PeekAs[[]cms.Post](s.store, cache.Key{Resource: cms.ResourcePosts, Lang: s.Lang(lang)}).Data
}

// Search proxies the CMS search endpoint. Identical queries within the search
// window share one cached result.
func (s *Service) Search(ctx context.Context, query, lang string) ([]cms.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []cms.SearchHit{}, nil
	}
	lang = s.Lang(lang)
	key := cache.Key{Resource: cms.ResourceSearch, Lang: lang, ID: query}
	res := cache.GetOrFetch(ctx, s.store, key, s.search, func(ctx context.Context) ([]cms.SearchHit, error) {
		return s.src.Search(ctx, query, lang)
	})
	return settle(ctx, res)
}

// Aggregator returns a page-view scoped aggregator in lang.
func (s *Service) Aggregator(lang string) *Aggregator {
	return &Aggregator{svc: s, lang: s.Lang(lang)}
}

func (s *Service) settingsLoader(lang string) func(context.Context) (map[string]any, error) {
	return func(ctx context.Context) (map[string]any, error) {
		env, err := s.src.Fetch(ctx, cms.ResourceSettings, lang, nil)
		if err != nil {
			return nil, err
		}
		return cms.SettingsMap(cms.Decode[cms.Setting](env)), nil
	}
}

func (s *Service) menuLoader(lang string) func(context.Context) ([]nav.MenuItem, error) {
	return func(ctx context.Context) ([]nav.MenuItem, error) {
		env, err := s.src.Fetch(ctx, cms.ResourceMenu, lang, nil)
		if err != nil {
			return nil, err
		}
		entries := cms.Decode[cms.MenuEntry](env)
		server := make([]nav.MenuItem, 0, len(entries))
		for _, e := range entries {
			server = append(server, nav.MenuItem{
				Label: e.DisplayLabel(),
				Href:  e.Link(),
				Sort:  e.SortKey(),
				Group: e.Group,
			})
		}
		return nav.Merge(server, nav.Localize(s.fallback, lang)), nil
	}
}

// collection reads one list resource through the cache under its policy.
func collection[T any](ctx context.Context, s *Service, resource cms.Resource, lang string, order func([]T)) ([]T, error) {
	key := cache.Key{Resource: resource, Lang: lang}
	res := cache.GetOrFetch(ctx, s.store, key, s.Policy(resource), listLoader(s, resource, lang, order))
	return settle(ctx, res)
}

// settle turns a cache result into a non-nil slice or the error that prevented one.
func settle[T any](ctx context.Context, res cache.Result[[]T]) ([]T, error) {
	switch {
	case res.Data != nil:
		return res.Data, nil
	case res.Err != nil:
		return nil, res.Err
	case res.IsLoading:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, context.DeadlineExceeded
	}
	return []T{}, nil
}

// listLoader fetches resource, decodes it and applies order before the value is shared.
func listLoader[T any](s *Service, resource cms.Resource, lang string, order func([]T)) func(context.Context) ([]T, error) {
	return func(ctx context.Context) ([]T, error) {
		env, err := s.src.Fetch(ctx, resource, lang, nil)
		if err != nil {
			return nil, err
		}
		items := cms.Decode[T](env)
		if order != nil {
			order(items)
		}
		return items, nil
	}
}

package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"finitefield.org/holding-web/internal/cache"
	"finitefield.org/holding-web/internal/cms"
	"finitefield.org/holding-web/internal/content"
	"finitefield.org/holding-web/internal/handlers"
	"finitefield.org/holding-web/internal/i18n"
	"finitefield.org/holding-web/internal/platform/config"
	"finitefield.org/holding-web/internal/retry"
)

// CMS is a fake CMS answering canned bodies by path. Every collection starts empty.
type CMS struct {
	*httptest.Server

	mu       sync.Mutex
	bodies   map[string]string
	statuses map[string]int
	hits     map[string]int
	contacts []map[string]any
	reply    string
}

var collections = []cms.Resource{
	cms.ResourceSettings, cms.ResourceMenu, cms.ResourceHero, cms.ResourceAbout,
	cms.ResourceStrategyBlocks, cms.ResourceCompanies, cms.ResourceBoard, cms.ResourceSpeeches,
	cms.ResourceGovernance, cms.ResourceESG, cms.ResourceNews, cms.ResourcePosts,
	cms.ResourcePages, cms.ResourceSearch, cms.ResourceSections, cms.ResourceLegal,
	cms.ResourceContact,
}

// NewCMS starts a fake CMS closed on test cleanup.
func NewCMS(t testing.TB) *CMS {
	t.Helper()

	c := &CMS{
		bodies:   make(map[string]string),
		statuses: make(map[string]int),
		hits:     make(map[string]int),
		reply:    `{"success":true}`,
	}
	for _, res := range collections {
		c.bodies["/"+string(res)+"/"] = "[]"
	}
	c.Server = httptest.NewServer(http.HandlerFunc(c.serve))
	t.Cleanup(c.Close)
	return c
}

// Set answers path with body. A "|lang" suffix scopes the body to one language.
func (c *CMS) Set(path, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bodies[path] = body
}

// Fail answers path with status.
func (c *CMS) Fail(path string, status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[path] = status
}

// ReplyContact sets the body returned for contact submissions.
func (c *CMS) ReplyContact(body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reply = body
}

// Hits reports how many requests reached path.
func (c *CMS) Hits(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[path]
}

// Contacts returns the decoded contact submissions received so far.
func (c *CMS) Contacts() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]map[string]any(nil), c.contacts...)
}

func (c *CMS) serve(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := r.URL.Path
	c.hits[path]++
	if status, ok := c.statuses[path]; ok {
		w.WriteHeader(status)
		return
	}
	if r.Method == http.MethodPost && path == "/"+string(cms.ResourceContact)+"/" {
		var body map[string]any
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		c.contacts = append(c.contacts, body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, c.reply)
		return
	}
	body, ok := c.bodies[path+"|"+r.URL.Query().Get("lang")]
	if !ok {
		body, ok = c.bodies[path]
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

// ServerOption customises the handler configuration for tests.
type ServerOption func(*handlers.Config)

// WithSite overrides the site configuration.
func WithSite(site config.SiteConfig) ServerOption {
	return func(cfg *handlers.Config) {
		cfg.Site = site
	}
}

// WithAnalytics enables analytics tags.
func WithAnalytics(a config.AnalyticsConfig) ServerOption {
	return func(cfg *handlers.Config) {
		cfg.Analytics = a
	}
}

// WithNow pins the server clock.
func WithNow(now func() time.Time) ServerOption {
	return func(cfg *handlers.Config) {
		cfg.Now = now
	}
}

// NewServer constructs an httptest server running the site HTTP stack against upstream.
func NewServer(t testing.TB, upstream string, opts ...ServerOption) *httptest.Server {
	t.Helper()

	bundle, err := i18n.Default("ar")
	if err != nil {
		t.Fatalf("load bundle: %v", err)
	}
	client := cms.NewClient(strings.TrimRight(upstream, "/"),
		cms.WithTimeout(2*time.Second),
		cms.WithRetryPolicy(retry.Policy{MaxRetries: 0}),
	)
	store := cache.New()
	svc := content.NewService(client, store, content.WithTranslator(bundle), content.WithDefaultLang("ar"))

	cfg := handlers.Config{
		Content: svc,
		Bundle:  bundle,
		Site: config.SiteConfig{
			BaseURL:      "https://holding.example.com",
			DefaultLang:  "ar",
			DefaultTheme: "dark",
			Languages:    []string{"en", "ar"},
		},
		Scroll: config.ScrollConfig{HeaderOffset: 90, SpyOffset: 100, RetryDelay: 500 * time.Millisecond},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	srv, err := handlers.New(cfg)
	if err != nil {
		t.Fatalf("handlers.New: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		store.Wait()
	})
	return ts
}

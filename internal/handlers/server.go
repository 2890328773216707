// Package handlers exposes the content layer over HTTP.
package handlers

import (
    "html/template"
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    chimw "github.com/go-chi/chi/v5/middleware"
    "github.com/microcosm-cc/bluemonday"
    "github.com/yuin/goldmark"
    "github.com/yuin/goldmark/extension"
    "go.uber.org/zap"

    "finitefield.org/holding-web/internal/content"
    "finitefield.org/holding-web/internal/i18n"
    mw "finitefield.org/holding-web/internal/middleware"
    "finitefield.org/holding-web/internal/platform/config"
    "finitefield.org/holding-web/internal/platform/observability"
    "finitefield.org/holding-web/internal/seo"
)

const requestTimeout = 60 * time.Second

// Config wires the server dependencies.
type Config struct {
    Content       *content.Service
    Bundle        *i18n.Bundle
    Site          config.SiteConfig
    Scroll        config.ScrollConfig
    Analytics     config.AnalyticsConfig
    SecureCookies bool
    Logger        *zap.Logger
    // Now defaults to time.Now.
    Now func() time.Time
}

// Server holds the HTTP handlers.
type Server struct {
    cfg        Config
    content    *content.Service
    bundle     *i18n.Bundle
    submitters *content.Submitters
    templates  map[string]*template.Template
    markdown   goldmark.Markdown
    policy     *bluemonday.Policy
    pages      []seo.Page
    logger     *zap.Logger
    now        func() time.Time
}

// New validates cfg and parses templates.
func New(cfg Config) (*Server, error) {
    if cfg.Logger == nil {
        cfg.Logger = zap.NewNop()
    }
    if cfg.Now == nil {
        cfg.Now = time.Now
    }
    if cfg.Bundle == nil {
        b, err := i18n.Default(cfg.Site.DefaultLang)
        if err != nil {
            return nil, err
        }
        cfg.Bundle = b
    }
    if len(cfg.Site.Languages) == 0 {
        cfg.Site.Languages = []string{"en", "ar"}
    }
    tmpl, err := parseTemplates(cfg.Bundle.T)
    if err != nil {
        return nil, err
    }
    pages, err := seo.StaticPages()
    if err != nil {
        return nil, err
    }
    return &Server{
        cfg:        cfg,
        content:    cfg.Content,
        bundle:     cfg.Bundle,
        submitters: content.NewSubmitters(cfg.Content),
        templates:  tmpl,
        markdown:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
        policy:     newPostHTMLPolicy(),
        pages:      pages,
        logger:     cfg.Logger,
        now:        cfg.Now,
    }, nil
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() http.Handler {
    r := chi.NewRouter()
    r.Use(chimw.RequestID)
    // If deployed behind a trusted reverse proxy/load balancer, RealIP will use
    // X-Forwarded-For to determine the client IP.
    r.Use(chimw.RealIP)
    r.Use(observability.TraceMiddleware())
    r.Use(observability.RequestLoggerMiddleware(s.logger))
    r.Use(observability.RecoveryMiddleware(s.logger))
    r.Use(chimw.Compress(5))
    r.Use(chimw.Timeout(requestTimeout))

    r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "text/plain; charset=utf-8")
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte("ok"))
    })
    r.Get("/readyz", s.handleReady)
    r.Get("/sitemap.xml", s.handleSitemap)

    secure := s.cfg.SecureCookies
    r.Group(func(r chi.Router) {
        r.Use(mw.ClientIdentity(secure))
        r.Use(mw.Locale(s.bundle, secure))
        r.Use(mw.Theme(s.cfg.Site.DefaultTheme))
        r.Use(mw.VaryLocale)

        r.Get("/blog/{slug}", s.handleBlogPage)
        r.Get("/{lang:ar|en}/blog/{slug}", s.handleBlogPage)

        r.Route("/api", func(r chi.Router) {
            r.Use(mw.CSRF(secure))
            r.Get("/home", s.handleHome)
            r.Get("/settings", s.handleSettings)
            r.Get("/navigation", s.handleNavigation)
            r.Get("/search", s.handleSearch)
            r.Get("/sections", s.handleSections)
            r.Get("/legal", s.handleLegal)
            r.Get("/contact", s.handleContactInfo)
            r.Get("/blog/{slug}", s.handleBlogJSON)
            r.Get("/sitemap", s.handleSitemap)
            r.Get("/preferences", s.handleGetPreferences)
            r.Post("/preferences", s.handleSetPreferences)
            r.Post("/contact", s.handleContact)
            r.Post("/revalidate", s.handleRevalidate)
        })
    })
    return r
}

func (s *Server) log(r *http.Request) *zap.Logger {
    return observability.FromContext(r.Context())
}

func newPostHTMLPolicy() *bluemonday.Policy {
    policy := bluemonday.UGCPolicy()
    policy.AllowElements("figure", "figcaption")
    policy.AllowAttrs("class").OnElements("figure", "figcaption", "p", "span")
    policy.AllowAttrs("loading").OnElements("img")
    policy.RequireNoFollowOnLinks(true)
    return policy
}

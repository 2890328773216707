package handlers

import (
    "net/http"
    "strings"

    "go.uber.org/zap"

    "finitefield.org/holding-web/internal/cms"
    "finitefield.org/holding-web/internal/platform/httpx"
    "finitefield.org/holding-web/internal/seo"
)

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
    body, err := s.Sitemap()
    if err != nil {
        s.log(r).Error("sitemap render failed", zap.Error(err))
        httpx.WriteError(r.Context(), w, httpx.NewError("sitemap_failed", "failed to render sitemap", http.StatusInternalServerError))
        return
    }
    w.Header().Set("Content-Type", seo.SitemapContentType)
    w.Header().Set("Cache-Control", seo.SitemapCacheControl)
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(body)
}

// Sitemap renders the static pages plus any blog posts already cached.
func (s *Server) Sitemap() ([]byte, error) {
    pages := make([]seo.Page, 0, len(s.pages))
    pages = append(pages, s.pages...)
    for _, post := range s.content.CachedPosts(cms.LangEnglish) {
        slug := strings.TrimSpace(post.Slug)
        if slug == "" {
            continue
        }
        pages = append(pages, seo.Page{Path: "/blog/" + slug, ChangeFreq: "weekly", Priority: "0.6", LastMod: post.Updated()})
    }

    return seo.Build(s.cfg.Site.BaseURL, pages, s.cfg.Site.Languages, s.now()).Marshal()
}

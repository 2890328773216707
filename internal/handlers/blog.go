package handlers

import (
    "bytes"
    "crypto/sha256"
    "errors"
    "fmt"
    "html/template"
    "net/http"
    "strings"

    "github.com/go-chi/chi/v5"
    "go.uber.org/zap"

    "finitefield.org/holding-web/internal/cms"
    "finitefield.org/holding-web/internal/format"
    "finitefield.org/holding-web/internal/i18n"
    mw "finitefield.org/holding-web/internal/middleware"
    "finitefield.org/holding-web/internal/nav"
    "finitefield.org/holding-web/internal/platform/httpx"
    "finitefield.org/holding-web/internal/seo"
)

const postCacheControl = "public, max-age=60, stale-while-revalidate=300"

type postResponse struct {
    Lang string   `json:"lang"`
    Post cms.Post `json:"post"`
    HTML string   `json:"html"`
}

func (s *Server) handleBlogJSON(w http.ResponseWriter, r *http.Request) {
    slug := strings.TrimSpace(chi.URLParam(r, "slug"))
    if slug == "" {
        httpx.WriteError(r.Context(), w, httpx.NewError("invalid_slug", "post slug is required", http.StatusBadRequest))
        return
    }
    lang := mw.Lang(r)

    post, err := s.content.Post(r.Context(), slug, lang)
    if err != nil {
        writeContentError(r.Context(), w, err, "post")
        return
    }

    w.Header().Set("Cache-Control", postCacheControl)
    etag := computePostETag(post, lang)
    w.Header().Set("ETag", etag)
    if matchesETag(r, etag) {
        w.WriteHeader(http.StatusNotModified)
        return
    }
    httpx.WriteJSON(w, http.StatusOK, postResponse{Lang: lang, Post: post, HTML: string(s.renderPostBody(post))})
}

// handleBlogPage renders the post detail page. /ar/blog/{slug} and /en/blog/{slug} pin the language.
func (s *Server) handleBlogPage(w http.ResponseWriter, r *http.Request) {
    slug := strings.TrimSpace(chi.URLParam(r, "slug"))
    lang := mw.Lang(r)
    if pinned := chi.URLParam(r, "lang"); pinned != "" {
        lang = pinned
    }
    data := s.basePage(r, lang, "/blog/"+slug)

    post, err := s.content.Post(r.Context(), slug, lang)
    switch {
    case errors.Is(err, cms.ErrNotFound):
        data.Title = s.bundle.T(lang, "blog.notfound.title")
        s.render(w, r, http.StatusNotFound, "notfound", data)
        return
    case err != nil:
        s.log(r).Warn("blog post unavailable", zap.String("slug", slug), zap.Error(err))
        data.Title = s.bundle.T(lang, "error.content.title")
        data.Action = r.URL.Path
        s.render(w, r, contentError(err, "post").Status, "error", data)
        return
    }

    published := post.Published()
    data.Title = post.Title
    data.SEO = seo.PageMeta(s.cfg.Site.BaseURL, data.Path, lang, post.Title, post.Summary, post.Image)
    data.Post = &PostView{
        Title:     post.Title,
        Summary:   post.Summary,
        Author:    post.Author,
        Image:     post.Image,
        Published: format.Date(published, lang),
        ISODate:   format.ISODate(published),
        ReadTime:  post.ReadTime,
        Body:      s.renderPostBody(post),
    }
    if n := len(data.Breadcrumbs); n > 0 {
        data.Breadcrumbs[n-1].Label = post.Title
        data.Breadcrumbs[n-1].LabelKey = ""
    }
    data.JSONLD = []map[string]any{
        seo.Article(seo.ArticleInfo{
            Headline:    post.Title,
            Description: post.Summary,
            URL:         data.SEO.Canonical,
            Image:       post.Image,
            Author:      post.Author,
            Publisher:   data.SiteName,
            Lang:        lang,
            Published:   published,
            Modified:    post.Updated(),
        }),
        seo.BreadcrumbList(s.breadcrumbItems(lang, data.Breadcrumbs)),
    }
    w.Header().Set("Cache-Control", postCacheControl)
    s.render(w, r, http.StatusOK, "blog", data)
}

func (s *Server) basePage(r *http.Request, lang, path string) PageData {
    return PageData{
        Lang:        lang,
        Dir:         i18n.Dir(lang),
        Theme:       mw.ThemeFromContext(r.Context()),
        SiteName:    s.bundle.T(lang, "site.name"),
        SEO:         seo.PageMeta(s.cfg.Site.BaseURL, path, lang, "", "", ""),
        Analytics:   AnalyticsFromConfig(s.cfg.Analytics),
        Path:        path,
        Breadcrumbs: nav.Breadcrumbs(path),
    }
}

func (s *Server) breadcrumbItems(lang string, crumbs []nav.Crumb) []seo.BreadcrumbItem {
    items := make([]seo.BreadcrumbItem, 0, len(crumbs))
    for _, c := range crumbs {
        name := c.Label
        if c.LabelKey != "" {
            name = s.bundle.T(lang, c.LabelKey)
        }
        items = append(items, seo.BreadcrumbItem{Name: name, Item: seo.LocalizedURL(s.cfg.Site.BaseURL, c.Href, lang)})
    }
    return items
}

func (s *Server) renderPostBody(post cms.Post) template.HTML {
    return s.renderBody(post.Content, post.Body)
}

// renderBody sanitizes HTML content, or renders the markdown body when no HTML is present.
func (s *Server) renderBody(htmlContent, markdown string) template.HTML {
    if strings.TrimSpace(htmlContent) != "" {
        return template.HTML(s.policy.Sanitize(htmlContent))
    }
    var buf bytes.Buffer
    if err := s.markdown.Convert([]byte(markdown), &buf); err != nil {
        return template.HTML(template.HTMLEscapeString(markdown))
    }
    return template.HTML(s.policy.SanitizeBytes(buf.Bytes()))
}

func computePostETag(post cms.Post, lang string) string {
    hash := sha256.New()
    for _, part := range []string{post.Slug, lang, post.Title, post.UpdatedAt, post.DatePublished, post.Source()} {
        hash.Write([]byte(part))
        hash.Write([]byte("|"))
    }
    return fmt.Sprintf("W/\"%x\"", hash.Sum(nil))
}

func matchesETag(r *http.Request, etag string) bool {
    if etag == "" || r == nil {
        return false
    }
    raw := r.Header.Get("If-None-Match")
    if strings.TrimSpace(raw) == "" {
        return false
    }
    for _, candidate := range strings.Split(raw, ",") {
        trimmed := strings.TrimSpace(candidate)
        if trimmed == "*" || trimmed == etag {
            return true
        }
    }
    return false
}

package seo

import (
    "strings"
    "testing"
    "time"

    "github.com/stretchr/testify/require"
)

func TestStaticPages(t *testing.T) {
    pages, err := StaticPages()
    require.NoError(t, err)
    require.Len(t, pages, 16)
    require.Equal(t, "", pages[0].Path)
    require.Equal(t, "1.0", pages[0].Priority)
    require.Equal(t, "/supply", pages[15].Path)
}

func TestParsePagesRejectsRelativePaths(t *testing.T) {
    _, err := ParsePages([]byte("pages:\n  - {path: about}\n"))
    require.Error(t, err)
}

func TestBuildSitemap(t *testing.T) {
    now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
    pages := []Page{{Path: "/about", ChangeFreq: "weekly", Priority: "0.9"}}

    set := Build("https://example.com/", pages, []string{"en", "ar"}, now)
    require.Len(t, set.URLs, 2)
    require.Equal(t, "https://example.com/about", set.URLs[0].Loc)
    require.Equal(t, "https://example.com/ar/about", set.URLs[1].Loc)
    require.Equal(t, "2024-05-01T12:00:00Z", set.URLs[1].LastMod)
    require.Equal(t, []AlternateLink{
        {Rel: "alternate", HrefLang: "en", Href: "https://example.com/about"},
        {Rel: "alternate", HrefLang: "ar", Href: "https://example.com/ar/about"},
        {Rel: "alternate", HrefLang: "x-default", Href: "https://example.com/about"},
    }, set.URLs[0].Alternates)

    raw, err := set.Marshal()
    require.NoError(t, err)
    body := string(raw)
    require.True(t, strings.HasPrefix(body, `<?xml version="1.0" encoding="UTF-8"?>`))
    require.Contains(t, body, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:xhtml="http://www.w3.org/1999/xhtml"`)
    require.Contains(t, body, `<xhtml:link rel="alternate" hreflang="x-default" href="https://example.com/about"></xhtml:link>`)
    require.Contains(t, body, `<changefreq>weekly</changefreq>`)
}

func TestBuildHomeUsesBareBase(t *testing.T) {
    set := Build("https://example.com", []Page{{Path: ""}}, []string{"en", "ar"}, time.Now())
    require.Equal(t, "https://example.com", set.URLs[0].Loc)
    require.Equal(t, "https://example.com/ar", set.URLs[1].Loc)
}

func TestArticleSchema(t *testing.T) {
    published := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
    m := Article(ArticleInfo{Headline: "Hello", URL: "https://example.com/blog/hello", Author: "Team", Lang: "ar", Published: published})
    require.Equal(t, "Article", m["@type"])
    require.Equal(t, "2024-01-02T00:00:00Z", m["datePublished"])
    require.Equal(t, map[string]any{"@type": "Person", "name": "Team"}, m["author"])
    require.NotContains(t, m, "dateModified")
    require.Contains(t, JSON(m), `"inLanguage":"ar"`)
}

func TestPageMeta(t *testing.T) {
    m := PageMeta("https://example.com", "/blog/hello", "ar", "Hello", "desc", "")
    require.Equal(t, "https://example.com/ar/blog/hello", m.Canonical)
    require.Equal(t, "ar_SA", m.OG.Locale)
    require.Equal(t, "summary", m.Twitter.Card)
    require.Len(t, m.Alternates, 3)
}

func TestBreadcrumbList(t *testing.T) {
    m := BreadcrumbList([]BreadcrumbItem{{Name: "Home", Item: "https://example.com"}, {Name: "Blog", Item: "https://example.com/blog"}})
    items := m["itemListElement"].([]map[string]any)
    require.Len(t, items, 2)
    require.Equal(t, 2, items[1]["position"])
}

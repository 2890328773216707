package seo

import (
    _ "embed"
    "encoding/xml"
    "fmt"
    "strings"
    "time"

    "gopkg.in/yaml.v3"
)

const (
    SitemapContentType  = "application/xml"
    SitemapCacheControl = "public, max-age=86400, s-maxage=86400"

    sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"
    xhtmlNS   = "http://www.w3.org/1999/xhtml"
    imageNS   = "http://www.google.com/schemas/sitemap-image/1.1"
)

//go:embed pages.yaml
var pagesYAML []byte

// Page is one sitemap route. Path is relative to the site root and empty for home.
type Page struct {
    Path       string    `yaml:"path"`
    ChangeFreq string    `yaml:"changefreq"`
    Priority   string    `yaml:"priority"`
    LastMod    time.Time `yaml:"-"`
}

// StaticPages returns the embedded static route list.
func StaticPages() ([]Page, error) {
    return ParsePages(pagesYAML)
}

// ParsePages decodes a `pages:` YAML document.
func ParsePages(raw []byte) ([]Page, error) {
    var doc struct {
        Pages []Page `yaml:"pages"`
    }
    if err := yaml.Unmarshal(raw, &doc); err != nil {
        return nil, fmt.Errorf("seo: parse pages: %w", err)
    }
    for i, p := range doc.Pages {
        if p.Path != "" && !strings.HasPrefix(p.Path, "/") {
            return nil, fmt.Errorf("seo: page %d: path %q must start with /", i, p.Path)
        }
    }
    return doc.Pages, nil
}

// URLSet is the sitemap document.
type URLSet struct {
    XMLName xml.Name `xml:"urlset"`
    Xmlns   string   `xml:"xmlns,attr"`
    XHTML   string   `xml:"xmlns:xhtml,attr"`
    Image   string   `xml:"xmlns:image,attr"`
    URLs    []URL    `xml:"url"`
}

// URL is one <url> entry.
type URL struct {
    Loc        string          `xml:"loc"`
    LastMod    string          `xml:"lastmod"`
    ChangeFreq string          `xml:"changefreq,omitempty"`
    Priority   string          `xml:"priority,omitempty"`
    Alternates []AlternateLink `xml:"xhtml:link"`
}

// AlternateLink is an hreflang alternate.
type AlternateLink struct {
    Rel      string `xml:"rel,attr"`
    HrefLang string `xml:"hreflang,attr"`
    Href     string `xml:"href,attr"`
}

// LocalizedURL returns the page URL in lang. English lives at the root, other
// languages under /<lang>.
func LocalizedURL(baseURL, path, lang string) string {
    base := strings.TrimRight(baseURL, "/")
    if lang == "en" {
        return base + path
    }
    return base + "/" + lang + path
}

// Build emits every page once per language with en, ar and x-default alternates.
// Pages without LastMod use now.
func Build(baseURL string, pages []Page, langs []string, now time.Time) URLSet {
    set := URLSet{Xmlns: sitemapNS, XHTML: xhtmlNS, Image: imageNS}
    set.URLs = make([]URL, 0, len(pages)*len(langs))
    for _, p := range pages {
        lastmod := p.LastMod
        if lastmod.IsZero() {
            lastmod = now
        }
        alternates := []AlternateLink{
            {Rel: "alternate", HrefLang: "en", Href: LocalizedURL(baseURL, p.Path, "en")},
            {Rel: "alternate", HrefLang: "ar", Href: LocalizedURL(baseURL, p.Path, "ar")},
            {Rel: "alternate", HrefLang: "x-default", Href: LocalizedURL(baseURL, p.Path, "en")},
        }
        for _, lang := range langs {
            set.URLs = append(set.URLs, URL{
                Loc:        LocalizedURL(baseURL, p.Path, lang),
                LastMod:    lastmod.UTC().Format(time.RFC3339),
                ChangeFreq: p.ChangeFreq,
                Priority:   p.Priority,
                Alternates: alternates,
            })
        }
    }
    return set
}

// Marshal renders set with the XML declaration.
func (s URLSet) Marshal() ([]byte, error) {
    body, err := xml.MarshalIndent(s, "", "  ")
    if err != nil {
        return nil, fmt.Errorf("seo: marshal sitemap: %w", err)
    }
    return append([]byte(xml.Header), body...), nil
}

// Package seo builds the sitemap and schema.org payloads.
package seo

import (
    "encoding/json"
    "time"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
    b, err := json.Marshal(v)
    if err != nil {
        return ""
    }
    return string(b)
}

// Organization returns a minimal Organization schema.
func Organization(name, url, logoURL string) map[string]any {
    m := map[string]any{
        "@context": "https://schema.org",
        "@type":    "Organization",
        "name":     name,
    }
    if url != "" { m["url"] = url }
    if logoURL != "" { m["logo"] = logoURL }
    return m
}

// WebSite returns a minimal WebSite schema with optional SearchAction.
func WebSite(name, url, searchActionURL string) map[string]any {
    m := map[string]any{
        "@context": "https://schema.org",
        "@type":    "WebSite",
        "name":     name,
    }
    if url != "" { m["url"] = url }
    if searchActionURL != "" {
        m["potentialAction"] = map[string]any{
            "@type": "SearchAction",
            "target": searchActionURL + "{search_term_string}",
            "query-input": "required name=search_term_string",
        }
    }
    return m
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
    Name string
    Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
    el := make([]map[string]any, 0, len(items))
    for i, it := range items {
        el = append(el, map[string]any{
            "@type":    "ListItem",
            "position": i + 1,
            "name":     it.Name,
            "item":     it.Item,
        })
    }
    return map[string]any{
        "@context":        "https://schema.org",
        "@type":           "BreadcrumbList",
        "itemListElement": el,
    }
}

// Article returns an Article schema payload for a blog post.
func Article(a ArticleInfo) map[string]any {
    m := map[string]any{
        "@context": "https://schema.org",
        "@type":    "Article",
        "headline": a.Headline,
    }
    if a.URL != "" {
        m["url"] = a.URL
        m["mainEntityOfPage"] = map[string]any{"@type": "WebPage", "@id": a.URL}
    }
    if a.Description != "" { m["description"] = a.Description }
    if a.Image != "" { m["image"] = a.Image }
    if a.Author != "" { m["author"] = map[string]any{"@type": "Person", "name": a.Author} }
    if a.Publisher != "" { m["publisher"] = map[string]any{"@type": "Organization", "name": a.Publisher} }
    if a.Lang != "" { m["inLanguage"] = a.Lang }
    if !a.Published.IsZero() { m["datePublished"] = a.Published.UTC().Format(time.RFC3339) }
    if !a.Modified.IsZero() { m["dateModified"] = a.Modified.UTC().Format(time.RFC3339) }
    return m
}

// ArticleInfo describes a blog post for Article.
type ArticleInfo struct {
    Headline    string
    Description string
    URL         string
    Image       string
    Author      string
    Publisher   string
    Lang        string
    Published   time.Time
    Modified    time.Time
}


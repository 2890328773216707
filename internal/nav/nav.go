package nav

import (
    _ "embed"
    "fmt"
    "path"
    "sort"
    "strings"

    "gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var fallbackYAML []byte

// InvestorRelationsHref is the anchor of the fallback investor relations entry.
const InvestorRelationsHref = "#investor-relations"

// MenuItem is a navigation entry rendered in header and mobile menus.
type MenuItem struct {
    Label string `json:"label" yaml:"label"`
    Href  string `json:"href" yaml:"href"`
    Sort  int    `json:"sort" yaml:"sort"`
    Group string `json:"group,omitempty" yaml:"group,omitempty"`
}

// Fallback is the static menu appended when the CMS menu lacks an entry.
type Fallback struct {
    Href   string            `yaml:"href"`
    Sort   int               `yaml:"sort"`
    Group  string            `yaml:"group"`
    Labels map[string]string `yaml:"labels"`
}

var defaultFallback = mustParseFallback(fallbackYAML)

// DefaultFallback returns the embedded fallback entries (investor relations).
func DefaultFallback() []Fallback {
    out := make([]Fallback, len(defaultFallback))
    copy(out, defaultFallback)
    return out
}

// ParseFallback decodes a `menu:` YAML document. Every entry needs an href and an English label.
func ParseFallback(raw []byte) ([]Fallback, error) {
    var doc struct {
        Menu []Fallback `yaml:"menu"`
    }
    if err := yaml.Unmarshal(raw, &doc); err != nil {
        return nil, fmt.Errorf("nav: parse fallback menu: %w", err)
    }
    for i, f := range doc.Menu {
        if strings.TrimSpace(f.Href) == "" {
            return nil, fmt.Errorf("nav: fallback entry %d: href is required", i)
        }
        if strings.TrimSpace(f.Labels["en"]) == "" {
            return nil, fmt.Errorf("nav: fallback entry %d: english label is required", i)
        }
    }
    return doc.Menu, nil
}

func mustParseFallback(raw []byte) []Fallback {
    items, err := ParseFallback(raw)
    if err != nil {
        panic(err)
    }
    return items
}

// Localize renders fallback entries for lang, using English labels when lang is missing.
func Localize(fallback []Fallback, lang string) []MenuItem {
    out := make([]MenuItem, 0, len(fallback))
    for _, f := range fallback {
        label := f.Labels[lang]
        if label == "" {
            label = f.Labels["en"]
        }
        out = append(out, MenuItem{Label: label, Href: f.Href, Sort: f.Sort, Group: f.Group})
    }
    return out
}

// Merge returns the server items plus each fallback item whose href is not already present,
// stable-sorted by Sort. Duplicate hrefs in the server list keep their first occurrence.
func Merge(server, fallback []MenuItem) []MenuItem {
    seen := make(map[string]struct{}, len(server)+len(fallback))
    out := make([]MenuItem, 0, len(server)+len(fallback))
    add := func(it MenuItem) {
        key := normalizeHref(it.Href)
        if key == "" {
            return
        }
        if _, dup := seen[key]; dup {
            return
        }
        seen[key] = struct{}{}
        out = append(out, it)
    }
    for _, it := range server {
        add(it)
    }
    for _, it := range fallback {
        add(it)
    }
    sort.SliceStable(out, func(i, j int) bool { return out[i].Sort < out[j].Sort })
    return out
}

func normalizeHref(href string) string {
    return strings.TrimSpace(href)
}

// Crumb represents a breadcrumb entry. If LabelKey is empty, use Label.
type Crumb struct {
    Href     string `json:"href"`
    LabelKey string `json:"label_key,omitempty"`
    Label    string `json:"label"`
    Active   bool   `json:"active"`
}

// sections maps top-level paths to i18n label keys.
var sections = map[string]string{
    "/blog":    "nav.blog",
    "/news":    "nav.news",
    "/about":   "nav.about",
    "/contact": "nav.contact",
}

// Breadcrumbs builds breadcrumb entries from the current path.
// It always starts with Home; known sections use label keys, deeper segments are prettified.
func Breadcrumbs(currentPath string) []Crumb {
    if currentPath == "" {
        currentPath = "/"
    }
    crumbs := []Crumb{{Href: "/", LabelKey: "nav.home", Label: "Home", Active: currentPath == "/"}}
    if currentPath == "/" {
        return crumbs
    }

    clean := path.Clean(currentPath)
    parts := strings.Split(strings.TrimPrefix(clean, "/"), "/")
    href := ""
    for i, part := range parts {
        if part == "" {
            continue
        }
        href += "/" + part
        crumb := Crumb{Href: href, Label: titleFromSegment(part), Active: i == len(parts)-1}
        if i == 0 {
            crumb.LabelKey = sections[href]
        }
        crumbs = append(crumbs, crumb)
    }
    return crumbs
}

func titleFromSegment(seg string) string {
    if seg == "" {
        return seg
    }
    s := strings.ReplaceAll(seg, "-", " ")
    s = strings.ReplaceAll(s, "_", " ")
    r := []rune(s)
    r[0] = toUpper(r[0])
    return string(r)
}

func toUpper(r rune) rune {
    // slugs are ASCII
    if r >= 'a' && r <= 'z' {
        return r - ('a' - 'A')
    }
    return r
}

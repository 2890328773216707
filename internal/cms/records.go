package cms

import (
	"strings"
	"time"
)

// Ordering carries the CMS sort hint. sort wins over the legacy order field.
type Ordering struct {
	Sort  *int `json:"sort,omitempty"`
	Order *int `json:"order,omitempty"`
}

// SortKey returns sort, else order, else 0.
func (o Ordering) SortKey() int {
	if o.Sort != nil {
		return *o.Sort
	}
	if o.Order != nil {
		return *o.Order
	}
	return 0
}

// Setting is one key/value pair of site settings.
type Setting struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// MenuEntry is a navigation item as served by the CMS.
type MenuEntry struct {
	ID    any    `json:"id,omitempty"`
	Label string `json:"label"`
	Title string `json:"title,omitempty"`
	Href  string `json:"href"`
	URL   string `json:"url,omitempty"`
	Group string `json:"group,omitempty"`
	Ordering
}

// DisplayLabel prefers label over title.
func (m MenuEntry) DisplayLabel() string {
	return firstNonEmpty(m.Label, m.Title)
}

// Link prefers href over url.
func (m MenuEntry) Link() string {
	return strings.TrimSpace(firstNonEmpty(m.Href, m.URL))
}

type Hero struct {
	ID          any    `json:"id,omitempty"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	CTALabel    string `json:"cta_label,omitempty"`
	CTAHref     string `json:"cta_href,omitempty"`
}

type About struct {
	ID      any    `json:"id,omitempty"`
	Title   string `json:"title"`
	Body    string `json:"body,omitempty"`
	Image   string `json:"image,omitempty"`
	Vision  string `json:"vision,omitempty"`
	Mission string `json:"mission,omitempty"`
}

type StrategyBlock struct {
	ID    any    `json:"id,omitempty"`
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
	Icon  string `json:"icon,omitempty"`
	Ordering
}

type Company struct {
	ID          any    `json:"id,omitempty"`
	Slug        string `json:"slug,omitempty"`
	Name        string `json:"name"`
	Sector      string `json:"sector,omitempty"`
	Description string `json:"description,omitempty"`
	Logo        string `json:"logo,omitempty"`
	Website     string `json:"website,omitempty"`
	Ordering
}

type BoardMember struct {
	ID       any    `json:"id,omitempty"`
	Name     string `json:"name"`
	Position string `json:"position,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Photo    string `json:"photo,omitempty"`
	Ordering
}

type Speech struct {
	ID        any    `json:"id,omitempty"`
	Title     string `json:"title"`
	Speaker   string `json:"speaker,omitempty"`
	Body      string `json:"body,omitempty"`
	Date      string `json:"date,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Created returns the creation timestamp, falling back to the display date.
func (s Speech) Created() time.Time {
	if t := ParseDate(s.CreatedAt); !t.IsZero() {
		return t
	}
	return ParseDate(s.Date)
}

type GovernanceItem struct {
	ID    any    `json:"id,omitempty"`
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
	Ordering
}

type ESGItem struct {
	ID     any    `json:"id,omitempty"`
	Pillar string `json:"pillar"`
	Title  string `json:"title"`
	Body   string `json:"body,omitempty"`
	Ordering
}

type NewsItem struct {
	ID            any    `json:"id,omitempty"`
	Slug          string `json:"slug,omitempty"`
	Title         string `json:"title"`
	Summary       string `json:"summary,omitempty"`
	Body          string `json:"body,omitempty"`
	Image         string `json:"image,omitempty"`
	DatePublished string `json:"date_published,omitempty"`
}

// Published parses date_published; zero when absent or unparsable.
func (n NewsItem) Published() time.Time { return ParseDate(n.DatePublished) }

type Post struct {
	ID            any    `json:"id,omitempty"`
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	Summary       string `json:"summary,omitempty"`
	Body          string `json:"body,omitempty"`
	Content       string `json:"content,omitempty"`
	Image         string `json:"image,omitempty"`
	ReadTime      string `json:"read_time,omitempty"`
	Author        string `json:"author,omitempty"`
	DatePublished string `json:"date_published,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// Source returns the post body, preferring the HTML content field.
func (p Post) Source() string {
	return firstNonEmpty(p.Content, p.Body)
}

// Published parses date_published; zero when absent or unparsable.
func (p Post) Published() time.Time { return ParseDate(p.DatePublished) }

// Updated falls back to the publish date.
func (p Post) Updated() time.Time {
	if t := ParseDate(p.UpdatedAt); !t.IsZero() {
		return t
	}
	return p.Published()
}

type Page struct {
	ID    any    `json:"id,omitempty"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
	Ordering
}

// Section is a titled homepage block keyed by its anchor.
type Section struct {
	ID       any    `json:"id,omitempty"`
	Key      string `json:"key,omitempty"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Body     string `json:"body,omitempty"`
	Ordering
}

// LegalPage is a privacy, terms or disclosure document.
type LegalPage struct {
	ID        any    `json:"id,omitempty"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	Content   string `json:"content,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	Ordering
}

// Updated parses updated_at; zero when absent or unparsable.
func (l LegalPage) Updated() time.Time { return ParseDate(l.UpdatedAt) }

// ContactInfo is the published contact block of the site.
type ContactInfo struct {
	ID      any    `json:"id,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Fax     string `json:"fax,omitempty"`
	Address string `json:"address,omitempty"`
	Hours   string `json:"working_hours,omitempty"`
	MapURL  string `json:"map_url,omitempty"`
}

// SearchHit is one search result.
type SearchHit struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	URL     string `json:"url"`
}

// SettingsMap folds settings into a key/value map. Later keys win.
func SettingsMap(items []Setting) map[string]any {
	out := make(map[string]any, len(items))
	for _, s := range items {
		key := strings.TrimSpace(s.Key)
		if key == "" {
			continue
		}
		out[key] = s.Value
	}
	return out
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006-1-2",
}

// ParseDate accepts the date layouts the CMS is known to emit.
func ParseDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

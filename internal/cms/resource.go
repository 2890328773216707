package cms

import (
	"fmt"
	"strings"
)

// Resource names a CMS collection endpoint.
type Resource string

const (
	ResourceSettings       Resource = "settings"
	ResourceMenu           Resource = "menu"
	ResourceHero           Resource = "hero"
	ResourceAbout          Resource = "about"
	ResourceStrategyBlocks Resource = "strategy-blocks"
	ResourceCompanies      Resource = "companies"
	ResourceBoard          Resource = "board"
	ResourceSpeeches       Resource = "speeches"
	ResourceGovernance     Resource = "governance"
	ResourceESG            Resource = "esg"
	ResourceNews           Resource = "news"
	ResourcePosts          Resource = "blogs"
	ResourcePages          Resource = "pages"
	ResourceSections       Resource = "sections"
	ResourceLegal          Resource = "legal"
	ResourceContact        Resource = "contact"
	ResourceSearch         Resource = "search"
)

var knownResources = map[Resource]struct{}{
	ResourceSettings:       {},
	ResourceMenu:           {},
	ResourceHero:           {},
	ResourceAbout:          {},
	ResourceStrategyBlocks: {},
	ResourceCompanies:      {},
	ResourceBoard:          {},
	ResourceSpeeches:       {},
	ResourceGovernance:     {},
	ResourceESG:            {},
	ResourceNews:           {},
	ResourcePosts:          {},
	ResourcePages:          {},
	ResourceSections:       {},
	ResourceLegal:          {},
	ResourceContact:        {},
	ResourceSearch:         {},
}

// ParseResource validates a resource name.
func ParseResource(name string) (Resource, error) {
	r := Resource(strings.Trim(strings.ToLower(strings.TrimSpace(name)), "/"))
	if _, ok := knownResources[r]; !ok {
		return "", fmt.Errorf("cms: unknown resource %q", name)
	}
	return r, nil
}

// Valid reports whether r is a known endpoint.
func (r Resource) Valid() bool {
	_, ok := knownResources[r]
	return ok
}

// Volatile reports whether the collection changes often enough to revalidate on focus.
func (r Resource) Volatile() bool {
	return r == ResourceNews || r == ResourcePosts
}

// Supported content languages.
const (
	LangEnglish = "en"
	LangArabic  = "ar"
)

// Languages lists supported content languages in sitemap order.
var Languages = []string{LangEnglish, LangArabic}

// NormalizeLang constrains lang to a supported value, using fallback otherwise.
func NormalizeLang(lang, fallback string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	switch lang {
	case LangEnglish, LangArabic:
		return lang
	}
	if fallback == LangArabic {
		return LangArabic
	}
	return LangEnglish
}

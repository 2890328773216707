package nav

import (
    "testing"

    "github.com/stretchr/testify/require"
)

func TestMergeAddsFallbackWhenMissing(t *testing.T) {
    t.Parallel()

    server := []MenuItem{
        {Label: "About", Href: "#about", Sort: 2},
        {Label: "Home", Href: "#home", Sort: 1},
    }
    merged := Merge(server, Localize(DefaultFallback(), "en"))

    require.Len(t, merged, 3)
    require.Equal(t, "#home", merged[0].Href)
    require.Equal(t, "#about", merged[1].Href)
    require.Equal(t, InvestorRelationsHref, merged[2].Href)
    require.Equal(t, "Investor Relations", merged[2].Label)
}

func TestMergeDedupesByHref(t *testing.T) {
    t.Parallel()

    server := []MenuItem{{Label: "IR", Href: "#investor-relations", Sort: 5}}
    merged := Merge(server, Localize(DefaultFallback(), "ar"))

    require.Len(t, merged, 1)
    require.Equal(t, "IR", merged[0].Label)
    require.Equal(t, 5, merged[0].Sort)
}

func TestMergeIsStableOnTies(t *testing.T) {
    t.Parallel()

    server := []MenuItem{
        {Label: "B", Href: "#b"},
        {Label: "A", Href: "#a"},
        {Label: "C", Href: "#c"},
        {Label: "dup", Href: " #a "},
        {Label: "empty", Href: ""},
    }
    merged := Merge(server, nil)

    labels := make([]string, 0, len(merged))
    for _, it := range merged {
        labels = append(labels, it.Label)
    }
    require.Equal(t, []string{"B", "A", "C"}, labels)
}

func TestLocalizeFallsBackToEnglish(t *testing.T) {
    t.Parallel()

    items := Localize([]Fallback{{Href: "#x", Labels: map[string]string{"en": "X"}}}, "ar")
    require.Equal(t, "X", items[0].Label)

    items = Localize(DefaultFallback(), "ar")
    require.Equal(t, "علاقات المستثمرين", items[0].Label)
}

func TestBreadcrumbs(t *testing.T) {
    t.Parallel()

    crumbs := Breadcrumbs("/blog/annual-report")
    require.Len(t, crumbs, 3)
    require.Equal(t, "nav.home", crumbs[0].LabelKey)
    require.Equal(t, "nav.blog", crumbs[1].LabelKey)
    require.Equal(t, "/blog/annual-report", crumbs[2].Href)
    require.Equal(t, "Annual report", crumbs[2].Label)
    require.True(t, crumbs[2].Active)

    require.Len(t, Breadcrumbs(""), 1)
}

func TestParseFallback(t *testing.T) {
    t.Parallel()

    items, err := ParseFallback([]byte("menu:\n  - href: \"#careers\"\n    sort: 50\n    labels: {en: Careers, ar: الوظائف}\n"))
    require.NoError(t, err)
    require.Len(t, items, 1)
    require.Equal(t, "#careers", items[0].Href)
    require.Equal(t, 50, items[0].Sort)

    _, err = ParseFallback([]byte("menu:\n  - labels: {en: Careers}\n"))
    require.ErrorContains(t, err, "href is required")

    _, err = ParseFallback([]byte("menu:\n  - href: \"#x\"\n    labels: {ar: س}\n"))
    require.ErrorContains(t, err, "english label")

    _, err = ParseFallback([]byte("menu: [unterminated"))
    require.Error(t, err)
}

func TestDefaultFallbackIsCopied(t *testing.T) {
    t.Parallel()

    items := DefaultFallback()
    require.Len(t, items, 1)
    require.Equal(t, InvestorRelationsHref, items[0].Href)
    items[0].Href = "#mutated"
    require.Equal(t, InvestorRelationsHref, DefaultFallback()[0].Href)
}

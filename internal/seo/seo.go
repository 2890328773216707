package seo

type OpenGraph struct {
    Title       string
    Description string
    Image       string
    Type        string
    Locale      string
}

type Twitter struct {
    Card  string
    Image string
}

// Alternate is an hreflang link for the page head.
type Alternate struct {
    HrefLang string
    Href     string
}

type Meta struct {
    Title       string
    Description string
    Canonical   string
    Alternates  []Alternate
    OG          OpenGraph
    Twitter     Twitter
}

// PageMeta builds head metadata for path in lang with en/ar/x-default alternates.
func PageMeta(baseURL, path, lang, title, description, image string) Meta {
    locale := "en_US"
    if lang == "ar" {
        locale = "ar_SA"
    }
    card := "summary"
    if image != "" {
        card = "summary_large_image"
    }
    return Meta{
        Title:       title,
        Description: description,
        Canonical:   LocalizedURL(baseURL, path, lang),
        Alternates: []Alternate{
            {HrefLang: "en", Href: LocalizedURL(baseURL, path, "en")},
            {HrefLang: "ar", Href: LocalizedURL(baseURL, path, "ar")},
            {HrefLang: "x-default", Href: LocalizedURL(baseURL, path, "en")},
        },
        OG:      OpenGraph{Title: title, Description: description, Image: image, Type: "article", Locale: locale},
        Twitter: Twitter{Card: card, Image: image},
    }
}

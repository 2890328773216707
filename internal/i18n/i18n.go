package i18n

import (
    "embed"
    "encoding/json"
    "fmt"
    "io/fs"
    "path"
    "sort"
    "strings"

    "golang.org/x/text/language"
)

//go:embed locales/*.json
var embedded embed.FS

type Bundle struct {
    dict      map[string]map[string]string
    fallback  string
    supported map[string]struct{}
    tags      []string
    matcher   language.Matcher
}

// Default loads the embedded ar/en bundle.
func Default(fallback string) (*Bundle, error) {
    return Load(embedded, "locales", fallback, []string{"ar", "en"})
}

// Load reads <dir>/<lang>.json for every supported language from fsys.
func Load(fsys fs.FS, dir string, fallback string, supported []string) (*Bundle, error) {
    b := &Bundle{
        dict:      map[string]map[string]string{},
        fallback:  fallback,
        supported: map[string]struct{}{},
    }
    if len(supported) == 0 {
        supported = []string{"ar", "en"}
    }
    // fallback first so the matcher prefers it on ties
    ordered := []string{fallback}
    for _, l := range supported {
        if l != fallback {
            ordered = append(ordered, l)
        }
    }
    tags := make([]language.Tag, 0, len(ordered))
    for _, l := range ordered {
        raw, err := fs.ReadFile(fsys, path.Join(dir, l+".json"))
        if err != nil {
            // allow missing file for non-default locales
            if l == fallback {
                return nil, fmt.Errorf("load locale %s: %w", l, err)
            }
            continue
        }
        var m map[string]string
        if err := json.Unmarshal(raw, &m); err != nil {
            return nil, fmt.Errorf("unmarshal %s: %w", l, err)
        }
        b.dict[l] = m
        b.supported[l] = struct{}{}
        b.tags = append(b.tags, l)
        tags = append(tags, language.Make(l))
    }
    b.matcher = language.NewMatcher(tags)
    return b, nil
}

func (b *Bundle) Supported() []string {
    out := make([]string, 0, len(b.supported))
    for k := range b.supported {
        out = append(out, k)
    }
    sort.Strings(out)
    return out
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// IsSupported reports whether lang has a loaded dictionary.
func (b *Bundle) IsSupported(lang string) bool {
    _, ok := b.supported[strings.ToLower(lang)]
    return ok
}

// T returns translation for key in lang, falling back to default and finally key.
func (b *Bundle) T(lang, key string) string {
    if m, ok := b.dict[lang]; ok {
        if v, ok := m[key]; ok {
            return v
        }
    }
    if m, ok := b.dict[b.fallback]; ok {
        if v, ok := m[key]; ok {
            return v
        }
    }
    return key
}

// Resolve chooses the best supported language from an Accept-Language header.
func (b *Bundle) Resolve(acceptLang string) string {
    if strings.TrimSpace(acceptLang) == "" {
        return b.fallback
    }
    prefs, _, err := language.ParseAcceptLanguage(acceptLang)
    if err != nil || len(prefs) == 0 {
        return b.fallback
    }
    _, idx, conf := b.matcher.Match(prefs...)
    if conf == language.No {
        return b.fallback
    }
    return b.tags[idx]
}

// Dir returns the text direction for lang.
func Dir(lang string) string {
    if strings.EqualFold(lang, "ar") {
        return "rtl"
    }
    return "ltr"
}

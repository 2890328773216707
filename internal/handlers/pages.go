package handlers

import (
    "bytes"
    "embed"
    "fmt"
    "html/template"
    "net/http"
    "time"

    "go.uber.org/zap"

    "finitefield.org/holding-web/internal/format"
    "finitefield.org/holding-web/internal/nav"
    "finitefield.org/holding-web/internal/seo"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// PageData is a generic view model for pages using the shared layout.
type PageData struct {
    Title     string
    Lang      string
    Dir       string
    Theme     string
    SiteName  string
    SEO       seo.Meta
    JSONLD    []map[string]any
    Analytics Analytics

    Path        string
    Breadcrumbs []nav.Crumb

    // Optional per-page view model payloads
    Post    *PostView
    Message string
    Action  string
}

// PostView is the rendered blog post.
type PostView struct {
    Title     string
    Summary   string
    Author    string
    Image     string
    Published string
    ISODate   string
    ReadTime  string
    Body      template.HTML
}

var pageNames = []string{"blog", "notfound", "error"}

func parseTemplates(t func(lang, key string) string) (map[string]*template.Template, error) {
    funcMap := template.FuncMap{
        "t": t,
        "date": func(ts time.Time, lang string) string {
            return format.Date(ts, lang)
        },
    }
    base, err := template.New("_root").Funcs(funcMap).ParseFS(templateFS, "templates/base.tmpl")
    if err != nil {
        return nil, fmt.Errorf("handlers: parse base template: %w", err)
    }
    out := make(map[string]*template.Template, len(pageNames))
    for _, name := range pageNames {
        clone, err := base.Clone()
        if err != nil {
            return nil, err
        }
        if _, err := clone.ParseFS(templateFS, "templates/"+name+".tmpl"); err != nil {
            return nil, fmt.Errorf("handlers: parse %s template: %w", name, err)
        }
        out[name] = clone
    }
    return out, nil
}

// render executes the base layout with the named page body.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data PageData) {
    t, ok := s.templates[page]
    if !ok {
        http.Error(w, "template not initialized", http.StatusInternalServerError)
        return
    }
    var buf bytes.Buffer
    if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
        s.log(r).Error("template exec failed", zap.String("page", page), zap.Error(err))
        http.Error(w, fmt.Sprintf("template exec error: %v", err), http.StatusInternalServerError)
        return
    }
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(status)
    _, _ = buf.WriteTo(w)
}

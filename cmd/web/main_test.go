package main

import (
    "bytes"
    "context"
    "net/http/httptest"
    "os"
    "path/filepath"
    "strings"
    "testing"

    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "finitefield.org/holding-web/internal/platform/config"
    "finitefield.org/holding-web/internal/testutil"
)

func setEnv(t *testing.T, upstream string) {
    t.Helper()
    t.Setenv("WEB_CMS_BASE_URL", upstream)
    t.Setenv("WEB_SITE_BASE_URL", "https://holding.example.com")
    t.Setenv("WEB_CMS_MAX_RETRIES", "0")
}

func TestSitemapCommandWritesStdout(t *testing.T) {
    upstream := testutil.NewCMS(t)
    upstream.Set("/blogs/", `[{"slug":"launch","title":"Launch","date_published":"2024-03-02"}]`)
    setEnv(t, upstream.URL)

    var out bytes.Buffer
    cmd := newRootCmd()
    cmd.SetOut(&out)
    cmd.SetArgs([]string{"sitemap", "--env-file", ""})
    require.NoError(t, cmd.Execute())

    xml := out.String()
    require.True(t, strings.HasPrefix(xml, "<?xml"))
    require.Contains(t, xml, "<loc>https://holding.example.com/blog/launch</loc>")
    require.Contains(t, xml, "<loc>https://holding.example.com/ar/blog/launch</loc>")
    require.Equal(t, 1, upstream.Hits("/blogs/"))
}

func TestSitemapCommandWritesFile(t *testing.T) {
    upstream := testutil.NewCMS(t)
    setEnv(t, upstream.URL)
    path := filepath.Join(t.TempDir(), "sitemap.xml")

    cmd := newRootCmd()
    cmd.SetArgs([]string{"sitemap", "--env-file", "", "-o", path})
    require.NoError(t, cmd.Execute())

    body, err := os.ReadFile(path)
    require.NoError(t, err)
    require.Contains(t, string(body), "<urlset")
}

func TestSitemapCommandFailsWhenCMSDown(t *testing.T) {
    upstream := testutil.NewCMS(t)
    upstream.Fail("/blogs/", 500)
    setEnv(t, upstream.URL)

    cmd := newRootCmd()
    cmd.SetOut(&bytes.Buffer{})
    cmd.SetErr(&bytes.Buffer{})
    cmd.SetArgs([]string{"sitemap", "--env-file", ""})
    err := cmd.Execute()
    require.Error(t, err)
    require.Contains(t, err.Error(), "fetch blog posts")
}

func TestCommandsRequireCMSBaseURL(t *testing.T) {
    t.Setenv("WEB_CMS_BASE_URL", "")

    cmd := newRootCmd()
    cmd.SetOut(&bytes.Buffer{})
    cmd.SetErr(&bytes.Buffer{})
    cmd.SetArgs([]string{"sitemap", "--env-file", ""})
    err := cmd.Execute()
    require.Error(t, err)

    var validation *config.ValidationError
    require.ErrorAs(t, err, &validation)
}

func TestNewAppServesWiredRouter(t *testing.T) {
    upstream := testutil.NewCMS(t)
    upstream.Set("/hero/", `[{"title":"Hello"}]`)

    cfg := config.Config{
        Environment: "test",
        CMS:         config.CMSConfig{BaseURL: upstream.URL, DefaultLang: "en"},
        Site: config.SiteConfig{
            BaseURL:      "https://holding.example.com",
            DefaultLang:  "ar",
            DefaultTheme: "dark",
            Languages:    []string{"en", "ar"},
        },
    }
    a, err := newApp(cfg, zap.NewNop())
    require.NoError(t, err)
    t.Cleanup(a.store.Wait)

    ts := httptest.NewServer(a.server.Router())
    t.Cleanup(ts.Close)

    resp, err := ts.Client().Get(ts.URL + "/api/home?lang=en")
    require.NoError(t, err)
    defer resp.Body.Close()
    require.Equal(t, 200, resp.StatusCode)
    require.Equal(t, 1, upstream.Hits("/hero/"))
}

func TestServeCommandFlags(t *testing.T) {
    cmd := newRootCmd()
    serve, _, err := cmd.Find([]string{"serve"})
    require.NoError(t, err)
    warm := serve.Flags().Lookup("warm")
    require.NotNil(t, warm)
    require.Equal(t, "true", warm.DefValue)
    require.NotNil(t, cmd.PersistentFlags().Lookup("env-file"))
}

func TestNewAppUsesMenuFile(t *testing.T) {
    upstream := testutil.NewCMS(t)
    path := filepath.Join(t.TempDir(), "menu.yaml")
    require.NoError(t, os.WriteFile(path, []byte("menu:\n  - href: \"#careers\"\n    sort: 50\n    labels: {en: Careers, ar: الوظائف}\n"), 0o600))

    cfg := config.Config{
        CMS:  config.CMSConfig{BaseURL: upstream.URL},
        Site: config.SiteConfig{DefaultLang: "ar", DefaultTheme: "dark", Languages: []string{"en", "ar"}, MenuFile: path},
    }
    a, err := newApp(cfg, zap.NewNop())
    require.NoError(t, err)
    t.Cleanup(a.store.Wait)

    menu, err := a.content.Menu(context.Background(), "ar")
    require.NoError(t, err)
    require.Len(t, menu, 1)
    require.Equal(t, "الوظائف", menu[0].Label)

    cfg.Site.MenuFile = filepath.Join(t.TempDir(), "missing.yaml")
    _, err = newApp(cfg, zap.NewNop())
    require.ErrorContains(t, err, "read fallback menu")
}

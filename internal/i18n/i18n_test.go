package i18n

import (
    "testing"
    "testing/fstest"

    "github.com/stretchr/testify/require"
)

func TestResolveHonorsQValues(t *testing.T) {
    b, err := Default("ar")
    require.NoError(t, err)

    require.Equal(t, "en", b.Resolve("ar;q=0.8, en;q=0.9"))
    require.Equal(t, "ar", b.Resolve("ar-SA,ar;q=0.9,en;q=0.5"))
    require.Equal(t, "en", b.Resolve("en-US"))
}

func TestResolveFallsBack(t *testing.T) {
    b, err := Default("ar")
    require.NoError(t, err)

    require.Equal(t, "ar", b.Resolve(""))
    require.Equal(t, "ar", b.Resolve("fr-FR"))
    require.Equal(t, "ar", b.Resolve(";;;garbage"))
}

func TestTranslateFallbackChain(t *testing.T) {
    fsys := fstest.MapFS{
        "l/en.json": {Data: []byte(`{"a":"A","b":"B"}`)},
        "l/ar.json": {Data: []byte(`{"a":"أ"}`)},
    }
    b, err := Load(fsys, "l", "en", []string{"en", "ar"})
    require.NoError(t, err)

    require.Equal(t, "أ", b.T("ar", "a"))
    require.Equal(t, "B", b.T("ar", "b"))
    require.Equal(t, "missing", b.T("ar", "missing"))
    require.Equal(t, []string{"ar", "en"}, b.Supported())
}

func TestLoadRequiresFallbackLocale(t *testing.T) {
    _, err := Load(fstest.MapFS{}, "l", "en", []string{"en"})
    require.Error(t, err)
}

func TestEmbeddedLocalesShareKeys(t *testing.T) {
    b, err := Default("ar")
    require.NoError(t, err)

    for key := range b.dict["en"] {
        _, ok := b.dict["ar"][key]
        require.True(t, ok, "ar missing %s", key)
    }
    require.Equal(t, "rtl", Dir("ar"))
    require.Equal(t, "ltr", Dir("en"))
}

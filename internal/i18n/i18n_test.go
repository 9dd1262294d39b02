package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateWithFallback(t *testing.T) {
	catalog, err := New("./locales", "en")
	require.NoError(t, err)

	assert.Equal(t, "找不到商品", catalog.T("zh_TW", KeyProductNotFound))
	assert.Equal(t, "Product not found", catalog.T("fr", KeyProductNotFound))
	assert.Equal(t, "Invalid request", catalog.T("en", KeyValidationInvalid, "request"))
	assert.Equal(t, "missing.key", catalog.T("en", "missing.key"))
}

func TestLocalesCoverEveryKey(t *testing.T) {
	catalog, err := New("./locales", "en")
	require.NoError(t, err)

	for _, lang := range supportedLocales {
		assert.Equal(t, len(catalog.translations["en"]), len(catalog.translations[lang]), lang)
		for key := range catalog.translations["en"] {
			_, ok := catalog.translations[lang][key]
			assert.True(t, ok, "%s missing %s", lang, key)
		}
	}
}

func TestNormalizeLang(t *testing.T) {
	cases := map[string]string{
		"en-US":    "en",
		"zh-TW":    "zh_TW",
		"zh;q=0.9": "zh_TW",
		" EN ":     "en",
	}
	for in, want := range cases {
		got, ok := NormalizeLang(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := NormalizeLang("fr-FR")
	assert.False(t, ok)
}

func TestMissingLocaleDirectory(t *testing.T) {
	_, err := New(t.TempDir(), "en")
	assert.Error(t, err)
}

func TestLanguagesAreSorted(t *testing.T) {
	catalog, err := New("./locales", "en")
	require.NoError(t, err)

	assert.Equal(t, []string{"en", "zh_TW"}, catalog.Languages())
}

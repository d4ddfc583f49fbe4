package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocales(t *testing.T) {
	ls := Locales()
	assert.Equal(t, DefaultLocale, ls[0])
	assert.ElementsMatch(t, []string{"en", "zh"}, ls)
}

func TestResolveLocale(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		accept string
		want   string
	}{
		{"query wins", "zh-CN", "en-US,en;q=0.9", "zh"},
		{"unknown query falls through", "fr", "zh;q=0.5", "zh"},
		{"script and region subtags", "", "zh-Hans-CN", "zh"},
		{"highest weight", "", "en;q=0.4,zh;q=0.9", "zh"},
		{"first of equal weights", "", "en-GB,zh", "en"},
		{"zero weight excluded", "", "zh;q=0,fr", "en"},
		{"malformed weight counts as one", "", "fr;q=0.9,zh;q=abc", "zh"},
		{"nothing supported", "", "fr-FR,es;q=0.9", "en"},
		{"empty", "", "", "en"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveLocale(tc.query, tc.accept))
		})
	}
}

package utils

import (
	"sort"
	"strconv"
	"strings"
)

// Locales lists the locales with a translation table, DefaultLocale first.
func Locales() []string {
	out := make([]string, 0, len(translations))
	for l := range translations {
		if l != DefaultLocale {
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return append([]string{DefaultLocale}, out...)
}

// ResolveLocale picks the reply language for a request. An explicit ?lang
// wins; otherwise the Accept-Language entry with the highest weight that
// has a translation table. Region subtags fall back to the base language.
func ResolveLocale(queryLang, acceptLang string) string {
	if l, ok := matchLocale(queryLang); ok {
		return l
	}
	best, bestQ := "", 0.0
	for _, part := range strings.Split(acceptLang, ",") {
		tag, q := parseLanguageRange(part)
		if q <= bestQ {
			continue
		}
		if l, ok := matchLocale(tag); ok {
			best, bestQ = l, q
		}
	}
	if best != "" {
		return best
	}
	return DefaultLocale
}

func matchLocale(tag string) (string, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for tag != "" {
		if _, ok := translations[tag]; ok {
			return tag, true
		}
		i := strings.LastIndexByte(tag, '-')
		if i <= 0 {
			break
		}
		tag = tag[:i]
	}
	return "", false
}

// parseLanguageRange splits "zh-CN;q=0.8" into its tag and weight.
// A missing or unreadable weight counts as 1.
func parseLanguageRange(s string) (string, float64) {
	tag, params, _ := strings.Cut(strings.TrimSpace(s), ";")
	q := 1.0
	for _, p := range strings.Split(params, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok || strings.TrimSpace(k) != "q" {
			continue
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f >= 0 && f <= 1 {
			q = f
		}
	}
	return strings.TrimSpace(tag), q
}

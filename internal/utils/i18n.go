package utils

// Server-side strings: the health message and the companion's fallback
// replies. Everything else is rendered by the web client.

// DefaultLocale is used when a request names no supported language.
const DefaultLocale = "en"

var translations = map[string]map[string]string{
	"en": {
		"health.ok":             "ok",
		"companion.unavailable": "I apologize, but I'm experiencing technical difficulties right now. Please try again in a moment, and remember that I'm here to support you on your journey of self-discovery.",
		"companion.empty":       "I'm here to help, but I'm having trouble generating a response right now. Please try again.",
	},
	"zh": {
		"health.ok":             "好的",
		"companion.unavailable": "抱歉，我现在遇到了一些技术问题。请稍后再试，我会一直在这里陪伴你探索自我。",
		"companion.empty":       "我在这里帮助你，但现在暂时无法生成回复。请再试一次。",
	},
}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := translations[DefaultLocale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

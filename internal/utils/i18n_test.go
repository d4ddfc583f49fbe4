package utils

import (
	"strings"
	"testing"
)

func TestT_Fallback(t *testing.T) {
	if got := T("fr", "health.ok"); got != "ok" {
		t.Fatalf("fallback to en failed: %s", got)
	}
}

func TestT_CompanionKeys(t *testing.T) {
	if got := T("en", "companion.unavailable"); !strings.HasPrefix(got, "I apologize") {
		t.Fatalf("unexpected en fallback text: %s", got)
	}
	if got := T("zh", "companion.empty"); got == "companion.empty" {
		t.Fatalf("zh translation missing")
	}
	if got := T("en", "missing.key"); got != "missing.key" {
		t.Fatalf("unknown key should echo, got %s", got)
	}
}

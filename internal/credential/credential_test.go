package credential

import (
	"strings"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		provider string
		want     bool
	}{
		{"gemini valid", "AI" + strings.Repeat("x", 34), "gemini", true},
		{"gemini too short", "AI123", "gemini", false},
		{"gemini wrong prefix", strings.Repeat("x", 36), "gemini", false},
		{"groq valid", "gsk_" + strings.Repeat("a", 40), "groq", true},
		{"groq too short", "gsk_" + strings.Repeat("a", 10), "groq", false},
		{"huggingface valid", "hf_" + strings.Repeat("b", 30), "huggingface", true},
		{"huggingface missing prefix", strings.Repeat("b", 33), "huggingface", false},
		{"unknown provider generic rule", strings.Repeat("k", 20), "mystery", true},
		{"unknown provider too short", strings.Repeat("k", 19), "mystery", false},
		{"bad character fails regardless", "AI" + strings.Repeat("x", 30) + "!", "gemini", false},
		{"whitespace fails", "AI " + strings.Repeat("x", 32), "gemini", false},
		{"underscore and dash allowed", "AI_-" + strings.Repeat("x", 30), "gemini", true},
		{"empty key", "", "gemini", false},
		{"empty key generic", "", "other", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateKey(tt.key, tt.provider); got != tt.want {
				t.Errorf("ValidateKey(%q, %q) = %v, want %v", tt.key, tt.provider, got, tt.want)
			}
		})
	}
}

func TestValidateKeyIsPure(t *testing.T) {
	key := "gsk_" + strings.Repeat("a", 40)
	first := ValidateKey(key, "groq")
	for i := 0; i < 10; i++ {
		if ValidateKey(key, "groq") != first {
			t.Fatal("expected identical result on every call")
		}
	}
}

func TestRuleFor(t *testing.T) {
	if r := RuleFor("groq"); r.MinLength != 40 {
		t.Errorf("groq min length = %d, want 40", r.MinLength)
	}
	if r := RuleFor("unknown"); r.MinLength != 20 || len(r.Prefixes) != 0 {
		t.Errorf("unknown provider should get the generic rule, got %+v", r)
	}
}

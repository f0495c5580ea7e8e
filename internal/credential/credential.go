// Package credential checks the shape of provider API keys. The rules
// are purely structural — length, prefix, alphabet — and say nothing
// about whether a key is actually live.
package credential

import "regexp"

// ValidationRule describes the structural requirements for one
// provider's API keys. Never mutated after load.
type ValidationRule struct {
	MinLength int
	// Prefixes a key may start with. Empty means no prefix requirement.
	Prefixes []string
}

// keyAlphabet is the only alphabet any provider key may use. A key with
// any other character is invalid regardless of length or prefix.
var keyAlphabet = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// rules maps provider IDs to their key shape. Unknown providers fall
// back to genericRule.
var rules = map[string]ValidationRule{
	"gemini":      {MinLength: 30, Prefixes: []string{"AI"}},
	"groq":        {MinLength: 40, Prefixes: []string{"gsk_"}},
	"huggingface": {MinLength: 30, Prefixes: []string{"hf_"}},
}

var genericRule = ValidationRule{MinLength: 20}

// RuleFor returns the validation rule for a provider.
func RuleFor(provider string) ValidationRule {
	if r, ok := rules[provider]; ok {
		return r
	}
	return genericRule
}

// ValidateKey reports whether key satisfies the shape rules for
// provider. Pure function: no I/O, no mutation.
func ValidateKey(key, provider string) bool {
	rule := RuleFor(provider)
	if len(key) < rule.MinLength {
		return false
	}
	if !keyAlphabet.MatchString(key) {
		return false
	}
	if len(rule.Prefixes) == 0 {
		return true
	}
	for _, p := range rule.Prefixes {
		if len(key) >= len(p) && key[:len(p)] == p {
			return true
		}
	}
	return false
}

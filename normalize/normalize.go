// Package normalize performs "soft validation": before strict schema
// validation, every string value at a known enum path is rewritten to the
// closest allowed value. Validation failures are thereby reserved for
// genuinely unrecoverable mismatches rather than harmless case, spacing, or
// synonym variance in model output.
package normalize

import (
	"strings"

	"transcript-engine/schema"
)

// OtherSentinel is the literal fallback value used when an allowed set
// contains it and no other matching tier succeeds.
const OtherSentinel = "other"

// Normalizer rewrites near-miss enum values using an ordered list of
// matching tiers. Safe for concurrent use; the synonym table is read-only
// after construction.
type Normalizer struct {
	synonyms map[string][]string
}

// New creates a Normalizer with the built-in synonym dictionary.
func New() *Normalizer {
	return NewWithSynonyms(nil)
}

// NewWithSynonyms creates a Normalizer with the built-in dictionary merged
// with override entries. Override terms take precedence over built-ins.
func NewWithSynonyms(overrides map[string][]string) *Normalizer {
	merged := make(map[string][]string, len(defaultSynonyms)+len(overrides))
	for term, candidates := range defaultSynonyms {
		merged[term] = candidates
	}
	for term, candidates := range overrides {
		merged[strings.ToLower(strings.TrimSpace(term))] = candidates
	}
	return &Normalizer{synonyms: merged}
}

// Apply walks value along every enum path and rewrites matching string
// fields in place. Returns the count of values changed, for logging only.
// The caller owns value; use Clone first when the original must survive.
func (n *Normalizer) Apply(value interface{}, paths []schema.EnumPath) int {
	changed := 0
	for _, p := range paths {
		changed += n.ApplyAt(value, p.Steps, p.Values)
	}
	return changed
}

// ApplyAt rewrites string values along a single path against one allowed
// set. Used by Apply and by the validator's targeted second pass.
func (n *Normalizer) ApplyAt(value interface{}, steps []schema.PathStep, allowed []string) int {
	return schema.MutateStrings(value, steps, func(s string) (string, bool) {
		match, ok := n.Match(s, allowed)
		if !ok || match == s {
			return s, false
		}
		return match, true
	})
}

// Match resolves a candidate string to an allowed value using the tiered
// strategy: exact case-insensitive, separator-insensitive, synonym
// dictionary, substring containment, then fallback to the "other" sentinel
// when the allowed set carries one. Returns false when no tier matches, in
// which case the caller leaves the original value untouched and strict
// validation will report it.
func (n *Normalizer) Match(candidate string, allowed []string) (string, bool) {
	folded := strings.ToLower(strings.TrimSpace(candidate))
	if folded == "" || len(allowed) == 0 {
		return "", false
	}

	// Tier 1: exact case-insensitive match.
	for _, v := range allowed {
		if strings.ToLower(v) == folded {
			return v, true
		}
	}

	// Tier 2: separator-insensitive match (spaces, hyphens, underscores).
	stripped := stripSeparators(folded)
	for _, v := range allowed {
		if stripSeparators(strings.ToLower(v)) == stripped {
			return v, true
		}
	}

	// Tier 3: domain dictionary. Mapped candidates are tried in listed
	// order; the first one present in the allowed set wins.
	for _, term := range []string{folded, stripped} {
		candidates, ok := n.synonyms[term]
		if !ok {
			continue
		}
		for _, mapped := range candidates {
			if v, ok := findFold(allowed, mapped); ok {
				return v, true
			}
		}
	}

	// Tier 4: substring containment, either direction.
	for _, v := range allowed {
		lv := strings.ToLower(v)
		if strings.Contains(folded, lv) || strings.Contains(lv, folded) {
			return v, true
		}
	}

	// Tier 5: fallback to the "other" sentinel if the schema allows it.
	if v, ok := findFold(allowed, OtherSentinel); ok {
		return v, true
	}

	return "", false
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, s)
}

func findFold(allowed []string, want string) (string, bool) {
	for _, v := range allowed {
		if strings.EqualFold(v, want) {
			return v, true
		}
	}
	return "", false
}

// Clone deep-copies a parsed JSON value so normalization never mutates data
// owned by the caller. Concurrent requests operating on structurally similar
// data therefore cannot interfere.
func Clone(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, child := range v {
			out[k] = Clone(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, child := range v {
			out[i] = Clone(child)
		}
		return out
	default:
		return v
	}
}

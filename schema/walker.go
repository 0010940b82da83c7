package schema

import (
	"strconv"
	"strings"
)

// MutateStrings walks value along steps and rewrites every string leaf found
// at the addressed position using fn. An ArrayStep iterates every element of
// the array at that point and continues the remaining path per element, so a
// path with several array markers performs a full Cartesian walk. Mutation
// happens in place on the parent container; non-string leaves and missing
// branches are skipped silently. Returns the number of values changed.
func MutateStrings(value interface{}, steps []PathStep, fn func(string) (string, bool)) int {
	if len(steps) == 0 {
		return 0
	}

	step := steps[0]
	rest := steps[1:]

	switch step.Kind {
	case KeyStep:
		obj, ok := value.(map[string]interface{})
		if !ok {
			return 0
		}
		child, exists := obj[step.Key]
		if !exists {
			return 0
		}
		if len(rest) == 0 {
			s, ok := child.(string)
			if !ok {
				return 0
			}
			if replacement, changed := fn(s); changed {
				obj[step.Key] = replacement
				return 1
			}
			return 0
		}
		return MutateStrings(child, rest, fn)

	case ArrayStep:
		arr, ok := value.([]interface{})
		if !ok {
			return 0
		}
		changed := 0
		for i, elem := range arr {
			if len(rest) == 0 {
				s, ok := elem.(string)
				if !ok {
					continue
				}
				if replacement, didChange := fn(s); didChange {
					arr[i] = replacement
					changed++
				}
				continue
			}
			changed += MutateStrings(elem, rest, fn)
		}
		return changed
	}

	return 0
}

// ResolveEnumValues navigates a schema along a /-delimited instance path
// (numeric tokens are array indices) and returns the allowed enum values of
// the addressed node, or nil if the node carries none. This is the same
// navigation the introspector performs, so the normalizer and the
// validation-error enricher always agree on path semantics.
func ResolveEnumValues(schemaDoc map[string]interface{}, instancePath string) []string {
	node := schemaDoc
	for _, token := range SplitInstancePath(instancePath) {
		if node == nil {
			return nil
		}
		if _, err := strconv.Atoi(token); err == nil {
			// Numeric token: descend into the array item schema.
			items, ok := node["items"].(map[string]interface{})
			if !ok {
				return nil
			}
			node = items
			continue
		}
		props, ok := node["properties"].(map[string]interface{})
		if !ok {
			return nil
		}
		child, ok := props[token].(map[string]interface{})
		if !ok {
			return nil
		}
		node = child
	}
	return enumStrings(node)
}

// InstancePathSteps converts a /-delimited instance path to the shared
// PathStep representation (numeric tokens become array wildcards).
func InstancePathSteps(instancePath string) []PathStep {
	tokens := SplitInstancePath(instancePath)
	steps := make([]PathStep, 0, len(tokens))
	for _, token := range tokens {
		if _, err := strconv.Atoi(token); err == nil {
			steps = append(steps, PathStep{Kind: ArrayStep})
			continue
		}
		steps = append(steps, PathStep{Kind: KeyStep, Key: token})
	}
	return steps
}

// SplitInstancePath splits a /-delimited instance path into tokens,
// unescaping the JSON-pointer sequences ~1 and ~0.
func SplitInstancePath(instancePath string) []string {
	trimmed := strings.Trim(instancePath, "/")
	if trimmed == "" {
		return nil
	}
	tokens := strings.Split(trimmed, "/")
	for i, token := range tokens {
		token = strings.ReplaceAll(token, "~1", "/")
		tokens[i] = strings.ReplaceAll(token, "~0", "~")
	}
	return tokens
}

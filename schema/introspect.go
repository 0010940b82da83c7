package schema

import (
	"errors"
	"sort"
	"strings"
)

// MaxDepth bounds recursive descent through a schema tree. JSON Schemas
// describing LLM output are expected to be finite trees; a self-referential
// schema trips this ceiling instead of recursing indefinitely.
const MaxDepth = 50

// ErrTooDeep is returned when schema descent exceeds MaxDepth.
var ErrTooDeep = errors.New("schema exceeds maximum nesting depth")

// StepKind discriminates the two kinds of path steps.
type StepKind int

const (
	// KeyStep descends into an object property by name.
	KeyStep StepKind = iota
	// ArrayStep iterates every element of an array. Indices are unknown at
	// schema time, so the step is a wildcard over the whole array.
	ArrayStep
)

// PathStep is one step of a schema-derived address. The same step sequence
// drives both the enum normalizer and the validation-error enricher, so the
// two can never disagree on path semantics.
type PathStep struct {
	Kind StepKind
	Key  string // set for KeyStep only
}

// EnumPath is the address of a schema node restricting its value to a fixed
// set of strings. Immutable after construction.
type EnumPath struct {
	Steps  []PathStep
	Values []string
}

// String renders the path in dotted form with [] array markers,
// e.g. "action_items[].category". Used for prompts and logs.
func (p EnumPath) String() string {
	return renderSteps(p.Steps)
}

func renderSteps(steps []PathStep) string {
	var sb strings.Builder
	for _, step := range steps {
		if step.Kind == ArrayStep {
			sb.WriteString("[]")
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(".")
		}
		sb.WriteString(step.Key)
	}
	return sb.String()
}

// FindEnumPaths walks a schema and collects every node carrying a non-empty
// enum array of strings. Results are in descent order with object properties
// visited alphabetically, so output is stable for identical schemas.
func FindEnumPaths(schemaDoc map[string]interface{}) ([]EnumPath, error) {
	var paths []EnumPath
	err := descend(schemaDoc, nil, 0, func(node map[string]interface{}, steps []PathStep) {
		values := enumStrings(node)
		if len(values) == 0 {
			return
		}
		paths = append(paths, EnumPath{
			Steps:  append([]PathStep(nil), steps...),
			Values: values,
		})
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// FindStringArrayPaths walks a schema and collects the dotted path of every
// field typed as an array of plain strings. Arrays of objects do not qualify
// but are still recursed into for nested discovery.
func FindStringArrayPaths(schemaDoc map[string]interface{}) ([]string, error) {
	var paths []string
	err := descend(schemaDoc, nil, 0, func(node map[string]interface{}, steps []PathStep) {
		if len(steps) == 0 || steps[len(steps)-1].Kind != KeyStep {
			return
		}
		if nodeType(node) != "array" {
			return
		}
		items, ok := node["items"].(map[string]interface{})
		if !ok || nodeType(items) != "string" {
			return
		}
		paths = append(paths, renderSteps(steps))
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// descend performs the shared recursive walk. visit is called for every
// schema node reachable via properties/items, including the root.
func descend(node map[string]interface{}, steps []PathStep, depth int, visit func(map[string]interface{}, []PathStep)) error {
	if node == nil {
		return nil
	}
	if depth > MaxDepth {
		return ErrTooDeep
	}

	visit(node, steps)

	if props, ok := node["properties"].(map[string]interface{}); ok {
		// Go maps are unordered; sort property names so descent order is
		// deterministic across runs.
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			child, ok := props[name].(map[string]interface{})
			if !ok {
				continue
			}
			if err := descend(child, append(steps, PathStep{Kind: KeyStep, Key: name}), depth+1, visit); err != nil {
				return err
			}
		}
	}

	if items, ok := node["items"].(map[string]interface{}); ok {
		if err := descend(items, append(steps, PathStep{Kind: ArrayStep}), depth+1, visit); err != nil {
			return err
		}
	}

	return nil
}

// nodeType returns the declared type of a schema node, or "" if absent.
func nodeType(node map[string]interface{}) string {
	t, _ := node["type"].(string)
	return t
}

// enumStrings extracts the enum values of a node when they are all strings.
func enumStrings(node map[string]interface{}) []string {
	raw, ok := node["enum"].([]interface{})
	if !ok || len(raw) == 0 {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil
		}
		values = append(values, s)
	}
	return values
}

// Package extract pulls a JSON value out of free-form model text. Models
// wrap JSON in markdown fences or prose often enough that direct parsing
// alone loses recoverable responses.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fencedBlock matches a markdown code fence with an optional json tag.
var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// JSON extracts a parsed JSON value from raw model text using a three-tier
// fallback strategy, each tier attempted only if the prior fails:
//
//  1. direct parse of the whole text
//  2. parse of the first fenced code block's content
//  3. parse of the substring from the first '{' to the last '}'
//
// Returns nil if all tiers fail. Parse failures never propagate.
func JSON(text string) interface{} {
	if v, ok := tryParse(text); ok {
		return v
	}

	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		if v, ok := tryParse(m[1]); ok {
			return v
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		if v, ok := tryParse(text[start : end+1]); ok {
			return v
		}
	}

	return nil
}

func tryParse(s string) (interface{}, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSchema(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestFindEnumPaths(t *testing.T) {
	doc := mustSchema(t, `{
		"type": "object",
		"properties": {
			"category": {"type": "string", "enum": ["sales", "service", "other"]},
			"action_items": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"priority": {"type": "string", "enum": ["high", "medium", "low"]},
						"title": {"type": "string"}
					}
				}
			},
			"summary": {"type": "string"}
		}
	}`)

	paths, err := FindEnumPaths(doc)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	// Descent order with sorted sibling keys: action_items before category
	assert.Equal(t, "action_items[].priority", paths[0].String())
	assert.Equal(t, []string{"high", "medium", "low"}, paths[0].Values)
	assert.Equal(t, "category", paths[1].String())
	assert.Equal(t, []string{"sales", "service", "other"}, paths[1].Values)
}

func TestFindEnumPathsSkipsNonStringEnums(t *testing.T) {
	doc := mustSchema(t, `{
		"type": "object",
		"properties": {
			"level": {"enum": [1, 2, 3]},
			"mood": {"enum": ["calm", "tense"]}
		}
	}`)

	paths, err := FindEnumPaths(doc)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "mood", paths[0].String())
}

func TestFindStringArrayPaths(t *testing.T) {
	doc := mustSchema(t, `{
		"type": "object",
		"properties": {
			"topics": {"type": "array", "items": {"type": "string"}},
			"action_items": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"tags": {"type": "array", "items": {"type": "string"}},
						"status": {"type": "string", "enum": ["open", "closed"]}
					}
				}
			}
		}
	}`)

	arrays, err := FindStringArrayPaths(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"action_items[].tags", "topics"}, arrays)

	// Object arrays still get recursed into for enum discovery
	enums, err := FindEnumPaths(doc)
	require.NoError(t, err)
	require.Len(t, enums, 1)
	assert.Equal(t, "action_items[].status", enums[0].String())
}

func TestDepthCeiling(t *testing.T) {
	// Build a properties chain deeper than the ceiling
	leaf := map[string]interface{}{"type": "string", "enum": []interface{}{"a", "b"}}
	node := interface{}(leaf)
	for i := 0; i < MaxDepth+5; i++ {
		node = map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"next": node},
		}
	}

	_, err := FindEnumPaths(node.(map[string]interface{}))
	assert.ErrorIs(t, err, ErrTooDeep)

	_, err = FindStringArrayPaths(node.(map[string]interface{}))
	assert.ErrorIs(t, err, ErrTooDeep)
}

func TestResolveEnumValues(t *testing.T) {
	doc := mustSchema(t, `{
		"type": "object",
		"properties": {
			"category": {"enum": ["sales", "service"]},
			"action_items": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"status": {"enum": ["open", "closed"]}
					}
				}
			}
		}
	}`)

	tests := []struct {
		name         string
		instancePath string
		expected     []string
	}{
		{"top_level_field", "/category", []string{"sales", "service"}},
		{"array_element_field", "/action_items/0/status", []string{"open", "closed"}},
		{"array_element_other_index", "/action_items/7/status", []string{"open", "closed"}},
		{"unknown_field", "/nonexistent", nil},
		{"non_enum_field", "/action_items", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveEnumValues(doc, tt.instancePath))
		})
	}
}

func TestInstancePathSteps(t *testing.T) {
	steps := InstancePathSteps("/action_items/2/status")
	require.Len(t, steps, 3)
	assert.Equal(t, KeyStep, steps[0].Kind)
	assert.Equal(t, "action_items", steps[0].Key)
	assert.Equal(t, ArrayStep, steps[1].Kind)
	assert.Equal(t, KeyStep, steps[2].Kind)
	assert.Equal(t, "status", steps[2].Key)
}

func TestMutateStringsCartesianWalk(t *testing.T) {
	var value interface{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"groups": [
			{"members": [{"role": "Lead"}, {"role": "dev"}]},
			{"members": [{"role": "QA"}]}
		]
	}`), &value))

	steps := []PathStep{
		{Kind: KeyStep, Key: "groups"},
		{Kind: ArrayStep},
		{Kind: KeyStep, Key: "members"},
		{Kind: ArrayStep},
		{Kind: KeyStep, Key: "role"},
	}

	changed := MutateStrings(value, steps, func(s string) (string, bool) {
		if s == "Lead" {
			return "lead", true
		}
		return s, false
	})

	assert.Equal(t, 1, changed)
	root := value.(map[string]interface{})
	group0 := root["groups"].([]interface{})[0].(map[string]interface{})
	member0 := group0["members"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "lead", member0["role"])
}

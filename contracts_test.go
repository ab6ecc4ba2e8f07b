package wetwire_examples

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttrRef_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		ref      AttrRef
		expected string
	}{
		{
			name:     "role arn",
			ref:      AttrRef{Resource: "HelloWorldArm64ServiceRole", Attribute: "Arn"},
			expected: `{"Fn::GetAtt":["HelloWorldArm64ServiceRole","Arn"]}`,
		},
		{
			name:     "function arn",
			ref:      AttrRef{Resource: "HelloWorldAmd64", Attribute: "Arn"},
			expected: `{"Fn::GetAtt":["HelloWorldAmd64","Arn"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.ref)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestAttrRef_IsZero(t *testing.T) {
	assert.True(t, AttrRef{}.IsZero())
	assert.False(t, AttrRef{Resource: "HourlyRule"}.IsZero())
	assert.False(t, AttrRef{Attribute: "Arn"}.IsZero())
}

func TestTemplate_JSONShape(t *testing.T) {
	tmpl := Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Resources: map[string]ResourceDef{
			"HourlyRule": {
				Type:       "AWS::Events::Rule",
				Properties: map[string]any{"ScheduleExpression": "rate(1 hour)"},
			},
		},
	}

	data, err := json.Marshal(tmpl)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "2010-09-09", parsed["AWSTemplateFormatVersion"])
	assert.NotContains(t, parsed, "Outputs")
	assert.NotContains(t, parsed, "Description")

	rule := parsed["Resources"].(map[string]any)["HourlyRule"].(map[string]any)
	assert.Equal(t, "AWS::Events::Rule", rule["Type"])
	assert.NotContains(t, rule, "DependsOn")
	assert.NotContains(t, rule, "Metadata")
}

func TestListResult_JSON(t *testing.T) {
	result := ListResult{
		Functions: []ListFunction{{
			ID:           "hello-world-arm64",
			LogicalID:    "HelloWorldArm64",
			Set:          "dotnet",
			Architecture: "arm64",
			MemorySize:   1769,
			Source:       "./dotnet/hello-world/",
			Output:       "/asset-output/arm64.zip",
		}},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"memory_size":1769`)
	assert.Contains(t, string(data), `"output":"/asset-output/arm64.zip"`)
}

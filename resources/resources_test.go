package resources

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-lambda-examples"
	"github.com/lex00/wetwire-lambda-examples/resources/events"
	"github.com/lex00/wetwire-lambda-examples/resources/iam"
	"github.com/lex00/wetwire-lambda-examples/resources/lambda"
)

func TestResourceTypes(t *testing.T) {
	tests := []struct {
		name     string
		resource wetwire.Resource
		expected string
	}{
		{"Function", lambda.Function{}, "AWS::Lambda::Function"},
		{"Permission", lambda.Permission{}, "AWS::Lambda::Permission"},
		{"Rule", events.Rule{}, "AWS::Events::Rule"},
		{"Role", iam.Role{}, "AWS::IAM::Role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.resource.ResourceType())
		})
	}
}

func TestFunctionSerialization(t *testing.T) {
	fn := lambda.Function{
		Runtime:       "provided.al2023",
		Handler:       "bootstrap",
		MemorySize:    1769,
		Architectures: []any{"arm64"},
		Code: &lambda.Function_Code{
			S3Bucket: "assets",
			S3Key:    "sha256-abc.zip",
		},
	}

	data, err := json.Marshal(fn)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "provided.al2023", parsed["Runtime"])
	assert.Equal(t, "bootstrap", parsed["Handler"])
	assert.Equal(t, float64(1769), parsed["MemorySize"])
	assert.Equal(t, []any{"arm64"}, parsed["Architectures"])
	assert.NotContains(t, parsed, "Environment")

	code := parsed["Code"].(map[string]any)
	assert.Equal(t, "sha256-abc.zip", code["S3Key"])
	assert.NotContains(t, code, "ZipFile")
}

func TestRuleSerialization(t *testing.T) {
	rule := events.Rule{
		ScheduleExpression: "rate(1 hour)",
		Targets: []events.Rule_Target{{
			Arn:         wetwire.AttrRef{Resource: "HelloWorldArm64", Attribute: "Arn"},
			Id:          "Target0",
			RetryPolicy: &events.Rule_RetryPolicy{MaximumRetryAttempts: 2},
		}},
	}

	data, err := json.Marshal(rule)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"ScheduleExpression": "rate(1 hour)",
		"Targets": [{
			"Arn": {"Fn::GetAtt": ["HelloWorldArm64", "Arn"]},
			"Id": "Target0",
			"RetryPolicy": {"MaximumRetryAttempts": 2}
		}]
	}`, string(data))
}

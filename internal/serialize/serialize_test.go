package serialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-lambda-examples"
)

type TestBucket struct {
	BucketName  string            `json:"BucketName,omitempty"`
	Tags        []Tag             `json:"Tags,omitempty"`
	Versioning  *TestVersioning   `json:"VersioningConfiguration,omitempty"`
	Environment map[string]string `json:"Environment,omitempty"`
}

type Tag struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

type TestVersioning struct {
	Status string `json:"Status"`
}

type TestFunction struct {
	Handler    any `json:"Handler,omitempty"`
	MemorySize any `json:"MemorySize,omitempty"`
	Role       any `json:"Role,omitempty"`
}

func TestResource_SimpleStruct(t *testing.T) {
	bucket := TestBucket{
		BucketName: "my-bucket",
	}

	props, err := Resource(bucket)
	require.NoError(t, err)

	assert.Equal(t, "my-bucket", props["BucketName"])
	assert.NotContains(t, props, "Tags")       // Empty slice should be omitted
	assert.NotContains(t, props, "Versioning") // Nil pointer should be omitted
}

func TestResource_WithNestedStruct(t *testing.T) {
	bucket := TestBucket{
		BucketName: "my-bucket",
		Versioning: &TestVersioning{
			Status: "Enabled",
		},
	}

	props, err := Resource(bucket)
	require.NoError(t, err)

	assert.Equal(t, "my-bucket", props["BucketName"])

	versioning := props["VersioningConfiguration"].(map[string]any)
	assert.Equal(t, "Enabled", versioning["Status"])
}

func TestResource_WithSlice(t *testing.T) {
	bucket := TestBucket{
		BucketName: "my-bucket",
		Tags: []Tag{
			{Key: "Environment", Value: "prod"},
			{Key: "Team", Value: "platform"},
		},
	}

	props, err := Resource(bucket)
	require.NoError(t, err)

	tags := props["Tags"].([]any)
	assert.Len(t, tags, 2)

	tag0 := tags[0].(map[string]any)
	assert.Equal(t, "Environment", tag0["Key"])
	assert.Equal(t, "prod", tag0["Value"])
}

func TestResource_WithMap(t *testing.T) {
	bucket := TestBucket{
		BucketName: "my-bucket",
		Environment: map[string]string{
			"BUCKET_NAME": "my-bucket",
			"REGION":      "us-east-1",
		},
	}

	props, err := Resource(bucket)
	require.NoError(t, err)

	env := props["Environment"].(map[string]any)
	assert.Equal(t, "my-bucket", env["BUCKET_NAME"])
	assert.Equal(t, "us-east-1", env["REGION"])
}

func TestResource_OmitsZeroValues(t *testing.T) {
	bucket := TestBucket{
		BucketName: "", // Empty string
		Tags:       nil,
		Versioning: nil,
	}

	props, err := Resource(bucket)
	require.NoError(t, err)

	// All zero values should be omitted
	assert.Empty(t, props)
}

func TestResource_WithPointer(t *testing.T) {
	bucket := &TestBucket{
		BucketName: "my-bucket",
	}

	props, err := Resource(bucket)
	require.NoError(t, err)

	assert.Equal(t, "my-bucket", props["BucketName"])
}

func TestResource_Marshaler(t *testing.T) {
	fn := TestFunction{
		Role:       wetwire.AttrRef{Resource: "HelloWorldArm64ServiceRole", Attribute: "Arn"},
		MemorySize: 1769,
	}

	props, err := Resource(fn)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"Fn::GetAtt": []any{"HelloWorldArm64ServiceRole", "Arn"},
	}, props["Role"])
	assert.Equal(t, int64(1769), props["MemorySize"])
	assert.NotContains(t, props, "Handler")
}

func TestResource_NonStruct(t *testing.T) {
	props, err := Resource("not a struct")
	require.NoError(t, err)
	assert.Nil(t, props)
}

func TestLogicalID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello-world-arm64", "HelloWorldArm64"},
		{"hello-world-r2r-amd64", "HelloWorldR2rAmd64"},
		{"hello-world-aot-arm64", "HelloWorldAotArm64"},
		{"runtime_scraper", "RuntimeScraper"},
		{"HourlyRule", "HourlyRule"},
		{"./dotnet/hello-world/", "DotnetHelloWorld"},
		{"weird!!name", "Weirdname"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, LogicalID(tt.input))
		})
	}
}

type badMarshaler struct{}

func (badMarshaler) MarshalJSON() ([]byte, error) {
	return nil, assert.AnError
}

func TestResource_ErrorNamesProperty(t *testing.T) {
	_, err := Resource(struct {
		Environment struct {
			Variables map[string]any `json:"Variables"`
		} `json:"Environment"`
	}{
		Environment: struct {
			Variables map[string]any `json:"Variables"`
		}{Variables: map[string]any{"RUNTIMES_URL": badMarshaler{}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Environment.Variables.RUNTIMES_URL")

	_, err = Resource(struct {
		Sizes map[int]string `json:"Sizes"`
	}{Sizes: map[int]string{1: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "map key must be a string")
}

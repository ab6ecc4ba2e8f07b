package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "lambda-examples.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, []string{"dotnet"}, cfg.FunctionSets)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "other.yaml"))
	assert.ErrorContains(t, err, "reading config")
}

func TestLoad_File(t *testing.T) {
	p := writeConfig(t, `
root: ../examples
stack:
  name: RuntimeExamples
  tags:
    team: serverless
functionSets: [dotnet, scraper]
assets:
  endpoint: s3.eu-west-1.amazonaws.com
  region: eu-west-1
  bucket: examples-assets
  prefix: lambda/
bundling:
  parallelism: 4
  pull: true
`)

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "../examples", cfg.Root)
	assert.Equal(t, "RuntimeExamples", cfg.Stack.Name)
	assert.Equal(t, "Lambda runtime examples", cfg.Stack.Description, "defaults survive partial files")
	assert.Equal(t, map[string]string{"team": "serverless"}, cfg.Stack.Tags)
	assert.Equal(t, []string{"dotnet", "scraper"}, cfg.FunctionSets)
	assert.Equal(t, "examples-assets", cfg.Assets.Bucket)
	assert.True(t, cfg.Assets.UseSSL)
	assert.Equal(t, 4, cfg.Bundling.Parallelism)
	assert.Equal(t, "lambda.out", cfg.Bundling.StageDir)
	assert.True(t, cfg.Bundling.Pull)
}

func TestLoad_SecretsOnlyFromEnv(t *testing.T) {
	p := writeConfig(t, `
assets:
  accessKey: from-file
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Empty(t, cfg.Assets.AccessKey)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("LAMBDA_EXAMPLES_STACK_NAME", "FromEnv")
	t.Setenv("LAMBDA_EXAMPLES_FUNCTION_SETS", "dotnet, rust")
	t.Setenv("LAMBDA_EXAMPLES_ASSETS_USE_SSL", "false")
	t.Setenv("LAMBDA_EXAMPLES_ASSETS_ACCESS_KEY", "minio")
	t.Setenv("LAMBDA_EXAMPLES_ASSETS_SECRET_KEY", "minio123")
	t.Setenv("LAMBDA_EXAMPLES_BUNDLING_PARALLELISM", "8")

	cfg, err := Load(writeConfig(t, "stack:\n  name: FromFile\n"))
	require.NoError(t, err)

	assert.Equal(t, "FromEnv", cfg.Stack.Name)
	assert.Equal(t, []string{"dotnet", "rust"}, cfg.FunctionSets)
	assert.False(t, cfg.Assets.UseSSL)
	assert.Equal(t, "minio", cfg.Assets.AccessKey)
	assert.Equal(t, "minio123", cfg.Assets.SecretKey)
	assert.Equal(t, 8, cfg.Bundling.Parallelism)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("LAMBDA_EXAMPLES_BUNDLING_PARALLELISM", "many")
	_, err := Load(writeConfig(t, ""))
	assert.ErrorContains(t, err, "LAMBDA_EXAMPLES_BUNDLING_PARALLELISM")

	t.Setenv("LAMBDA_EXAMPLES_BUNDLING_PARALLELISM", "")
	t.Setenv("LAMBDA_EXAMPLES_ASSETS_USE_SSL", "maybe")
	_, err = Load(writeConfig(t, ""))
	assert.ErrorContains(t, err, "LAMBDA_EXAMPLES_ASSETS_USE_SSL")
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	cfg := Default()
	cfg.Stack.Name = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.FunctionSets = nil
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Bundling.Parallelism = 0
	assert.Error(t, cfg.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "stack: [unclosed"))
	assert.ErrorContains(t, err, "parsing")
}

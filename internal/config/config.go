// Package config loads lambda-examples.yaml and its environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lex00/wetwire-lambda-examples/internal/assets"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "lambda-examples.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LAMBDA_EXAMPLES_"

// Config is the project configuration.
type Config struct {
	// Root is the directory holding the dotnet/ and rust/ projects.
	Root         string        `yaml:"root"`
	Stack        StackConfig   `yaml:"stack"`
	FunctionSets []string      `yaml:"functionSets"`
	Assets       assets.Config `yaml:"assets"`
	Bundling     Bundling      `yaml:"bundling"`
}

// StackConfig names and tags the stack.
type StackConfig struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Tags        map[string]string `yaml:"tags"`
}

// Bundling controls the build containers.
type Bundling struct {
	Parallelism int    `yaml:"parallelism"`
	StageDir    string `yaml:"stageDir"`
	DockerHost  string `yaml:"dockerHost"`
	Pull        bool   `yaml:"pull"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Stack: StackConfig{
			Name:        "ExamplesStack",
			Description: "Lambda runtime examples",
		},
		FunctionSets: []string{"dotnet"},
		Assets: assets.Config{
			Region: "us-east-1",
			UseSSL: true,
		},
		Bundling: Bundling{
			Parallelism: 2,
			StageDir:    "lambda.out",
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error when path is DefaultFile.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && path == DefaultFile:
	default:
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields every command needs. Asset settings are only
// checked by commands that publish.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Stack.Name) == "" {
		return errors.New("stack name is required")
	}
	if len(c.FunctionSets) == 0 {
		return errors.New("at least one function set is required")
	}
	if c.Bundling.Parallelism < 1 {
		return fmt.Errorf("bundling parallelism must be positive, got %d", c.Bundling.Parallelism)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Root = envString("ROOT", c.Root)
	c.Stack.Name = envString("STACK_NAME", c.Stack.Name)
	if sets := envString("FUNCTION_SETS", ""); sets != "" {
		c.FunctionSets = splitList(sets)
	}

	c.Assets.Endpoint = envString("ASSETS_ENDPOINT", c.Assets.Endpoint)
	c.Assets.Region = envString("ASSETS_REGION", c.Assets.Region)
	c.Assets.Bucket = envString("ASSETS_BUCKET", c.Assets.Bucket)
	c.Assets.Prefix = envString("ASSETS_PREFIX", c.Assets.Prefix)
	c.Assets.AccessKey = envString("ASSETS_ACCESS_KEY", c.Assets.AccessKey)
	c.Assets.SecretKey = envString("ASSETS_SECRET_KEY", c.Assets.SecretKey)

	useSSL, err := envBool("ASSETS_USE_SSL", c.Assets.UseSSL)
	if err != nil {
		return err
	}
	c.Assets.UseSSL = useSSL

	parallelism, err := envInt("BUNDLING_PARALLELISM", c.Bundling.Parallelism)
	if err != nil {
		return err
	}
	c.Bundling.Parallelism = parallelism
	c.Bundling.StageDir = envString("BUNDLING_STAGE_DIR", c.Bundling.StageDir)
	c.Bundling.DockerHost = envString("BUNDLING_DOCKER_HOST", c.Bundling.DockerHost)
	return nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	v := envString(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	return b, nil
}

func envInt(key string, fallback int) (int, error) {
	v := envString(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	wetwire "github.com/lex00/wetwire-lambda-examples"
	"github.com/lex00/wetwire-lambda-examples/internal/bundle"
	"github.com/lex00/wetwire-lambda-examples/internal/config"
	"github.com/lex00/wetwire-lambda-examples/internal/functions"
	"github.com/lex00/wetwire-lambda-examples/internal/stack"
)

// manifestFile is written next to the staged archives by bundle and publish.
const manifestFile = "manifest.json"

// project is the loaded configuration and the units of its function sets.
type project struct {
	cfg    config.Config
	units  []functions.Unit
	logger *zap.Logger
}

func loadProject(opts *globalOptions) (*project, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(opts.verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	units, err := functions.DefaultRegistry(cfg.Root).Resolve(cfg.FunctionSets...)
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved function sets",
		zap.Strings("sets", cfg.FunctionSets),
		zap.Int("functions", len(units)))

	return &project{cfg: cfg, units: units, logger: logger}, nil
}

// stack binds the project's units to a new stack. A nil resolver keys
// archives by their build fingerprint.
func (p *project) stack(assets stack.AssetResolver) (*stack.Stack, error) {
	opts := []stack.Option{
		stack.WithAssetBucket(p.cfg.Assets.Bucket),
		stack.WithAssetPrefix(p.cfg.Assets.Prefix),
	}
	if p.cfg.Stack.Description != "" {
		opts = append(opts, stack.WithDescription(p.cfg.Stack.Description))
	}
	for k, v := range p.cfg.Stack.Tags {
		opts = append(opts, stack.WithTag(k, v))
	}
	if assets != nil {
		opts = append(opts, stack.WithAssets(assets))
	}

	st := stack.New(p.cfg.Stack.Name, opts...)
	if err := st.Bind(p.units...); err != nil {
		return nil, err
	}
	return st, nil
}

func (p *project) specs() []bundle.Spec {
	specs := make([]bundle.Spec, len(p.units))
	for i, u := range p.units {
		specs[i] = u.Build
	}
	return specs
}

func (p *project) manifestPath() string {
	return filepath.Join(p.cfg.Bundling.StageDir, manifestFile)
}

// synthesize renders st, reporting failures in the result rather than as an
// error so callers can print them the same way.
func synthesize(st *stack.Stack) wetwire.BuildResult {
	builder, err := st.Register()
	if err != nil {
		return wetwire.BuildResult{Errors: []string{err.Error()}}
	}
	order, err := builder.Order()
	if err != nil {
		return wetwire.BuildResult{Errors: []string{err.Error()}}
	}
	tmpl, err := builder.Build()
	if err != nil {
		return wetwire.BuildResult{Errors: []string{err.Error()}}
	}
	return wetwire.BuildResult{
		Success:   true,
		Template:  *tmpl,
		Resources: order,
	}
}

// writeManifest records the object key of every unit's archive. units and
// assets are parallel slices.
func writeManifest(path string, units []functions.Unit, assets []bundle.Asset) error {
	keys := make(stack.StaticAssets, len(units))
	for i, u := range units {
		keys[u.ID] = assets[i].Key
	}
	data, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// readManifest loads a manifest written by writeManifest.
func readManifest(path string) (stack.StaticAssets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var keys stack.StaticAssets
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return keys, nil
}

// resolver returns the manifest's keys when path is set.
func resolver(path string) (stack.AssetResolver, error) {
	if path == "" {
		return nil, nil
	}
	return readManifest(path)
}

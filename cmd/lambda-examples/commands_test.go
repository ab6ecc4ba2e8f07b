package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-lambda-examples"
	"github.com/lex00/wetwire-lambda-examples/internal/assets"
	"github.com/lex00/wetwire-lambda-examples/internal/bundle"
	"github.com/lex00/wetwire-lambda-examples/internal/differ"
	"github.com/lex00/wetwire-lambda-examples/internal/functions"
)

func TestList(t *testing.T) {
	opts := newTestProject(t)
	p, err := loadProject(opts)
	require.NoError(t, err)

	result := listFunctions(p.units)
	require.Len(t, result.Functions, 5)
	first := result.Functions[0]
	assert.Equal(t, "hello-world-amd64", first.ID)
	assert.Equal(t, "HelloWorldAmd64", first.LogicalID)
	assert.Equal(t, "dotnet", first.Set)
	assert.Equal(t, "x86_64", first.Architecture)
	assert.Equal(t, functions.DotnetMemorySize, first.MemorySize)

	var text bytes.Buffer
	require.NoError(t, outputListResult(&text, result, "text"))
	assert.Contains(t, text.String(), "Functions (5):")
	assert.Contains(t, text.String(), "hello-world-aot-arm64")

	var js bytes.Buffer
	require.NoError(t, outputListResult(&js, result, "json"))
	var decoded wetwire.ListResult
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, result, decoded)

	assert.EqualError(t, outputListResult(&js, result, "xml"), "unknown format: xml")
}

func TestFilterArchitecture(t *testing.T) {
	p, err := loadProject(newTestProject(t))
	require.NoError(t, err)

	all, err := filterArchitecture(p.units, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	arm, err := filterArchitecture(p.units, "arm64")
	require.NoError(t, err)
	assert.Len(t, arm, 3)
	for _, u := range arm {
		assert.Equal(t, bundle.ARM64, u.Architecture)
	}

	_, err = filterArchitecture(p.units, "riscv64")
	assert.ErrorIs(t, err, bundle.ErrUnsupportedArchitecture)
}

func TestList_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, outputListResult(&out, wetwire.ListResult{}, "text"))
	assert.Equal(t, "No functions found.\n", out.String())
}

func TestManifest_RoundTrip(t *testing.T) {
	units := []functions.Unit{{ID: "a"}, {ID: "b"}}
	staged := []bundle.Asset{{Key: "1111.zip"}, {Key: "2222.zip"}}
	path := filepath.Join(t.TempDir(), "out", manifestFile)

	require.NoError(t, writeManifest(path, units, staged))

	keys, err := readManifest(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1111.zip", "b": "2222.zip"}, map[string]string(keys))

	r, err := resolver("")
	require.NoError(t, err)
	assert.Nil(t, r)

	_, err = readManifest(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

type failingRunner struct{}

func (failingRunner) Run(ctx context.Context, req bundle.RunRequest) error {
	return errors.New("exit status 1")
}

func TestBundleWith_RunnerError(t *testing.T) {
	p, err := loadProject(newTestProject(t))
	require.NoError(t, err)

	_, err = bundleWith(context.Background(), p, failingRunner{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 1")
	assert.NoFileExists(t, p.manifestPath())
}

func TestBundleOptions_Apply(t *testing.T) {
	p, err := loadProject(newTestProject(t))
	require.NoError(t, err)

	bundleOptions{}.apply(p)
	assert.Equal(t, 2, p.cfg.Bundling.Parallelism)
	assert.False(t, p.cfg.Bundling.Pull)

	bundleOptions{parallelism: 5, stageDir: "out", pull: true}.apply(p)
	assert.Equal(t, 5, p.cfg.Bundling.Parallelism)
	assert.Equal(t, "out", p.cfg.Bundling.StageDir)
	assert.True(t, p.cfg.Bundling.Pull)
}

type memStore struct {
	mu      sync.Mutex
	objects map[string]string
}

func (m *memStore) Stat(ctx context.Context, bucket, key string) (assets.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[bucket+"/"+key]; !ok {
		return assets.ObjectInfo{}, assets.ErrNotFound
	}
	return assets.ObjectInfo{Key: key}, nil
}

func (m *memStore) PutFile(ctx context.Context, bucket, key, path, contentType string) (assets.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = path
	return assets.ObjectInfo{Key: key}, nil
}

func TestRunPublish(t *testing.T) {
	p, err := loadProject(newTestProject(t))
	require.NoError(t, err)
	p.cfg.Assets.Bucket = "assets"
	p.cfg.Assets.Prefix = "examples/"

	store := &memStore{objects: map[string]string{"assets/examples/old.zip": "x"}}
	staged := []bundle.Asset{
		{Key: "old.zip", Path: "/stage/asset.old.zip"},
		{Key: "new.zip", Path: "/stage/asset.new.zip"},
	}

	var out bytes.Buffer
	require.NoError(t, runPublish(context.Background(), &out, p, store, staged))

	assert.Equal(t, "/stage/asset.new.zip", store.objects["assets/examples/new.zip"])
	assert.Contains(t, out.String(), "exists   examples/old.zip")
	assert.Contains(t, out.String(), "uploaded examples/new.zip")
}

func TestGraph(t *testing.T) {
	opts := newTestProject(t)

	var dot bytes.Buffer
	require.NoError(t, runGraph(&dot, opts, "dot", false, ""))
	assert.Contains(t, dot.String(), "digraph")
	assert.Contains(t, dot.String(), "HourlyRule")
	assert.Contains(t, dot.String(), "HelloWorldArm64ServiceRole")

	var mermaid bytes.Buffer
	require.NoError(t, runGraph(&mermaid, opts, "mermaid", true, ""))
	assert.NotContains(t, mermaid.String(), "digraph")
	assert.Contains(t, mermaid.String(), "HourlyRule")

	assert.Error(t, runGraph(&dot, opts, "svg", false, ""))
}

func TestDiff(t *testing.T) {
	opts := newTestProject(t)
	dir := t.TempDir()
	before := filepath.Join(dir, "before.json")
	after := filepath.Join(dir, "after.json")

	var stderr bytes.Buffer
	require.NoError(t, runSynth(&bytes.Buffer{}, &stderr, opts, synthOptions{format: "json", outputFile: before}))
	writeSource(t, opts, "class Function { int x; }\n")
	require.NoError(t, runSynth(&bytes.Buffer{}, &stderr, opts, synthOptions{format: "json", outputFile: after}))

	result, err := differ.CompareFiles(before, after, differ.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.Modified)

	var text bytes.Buffer
	require.NoError(t, outputDiff(&text, result, "text"))
	assert.Contains(t, text.String(), "~ HelloWorldAmd64 (AWS::Lambda::Function)")
	assert.Contains(t, text.String(), "Code.S3Key modified")
	assert.Contains(t, text.String(), "~ HelloWorldArm64 (AWS::Lambda::Function)")
	assert.NotContains(t, text.String(), "HelloWorldR2rArm64")
	assert.Contains(t, text.String(), "0 added, 0 removed, 2 modified")

	var js bytes.Buffer
	require.NoError(t, outputDiff(&js, result, "json"))
	var decoded diffOutput
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.Summary.Total)

	same, err := differ.CompareFiles(before, before, differ.Options{})
	require.NoError(t, err)
	text.Reset()
	require.NoError(t, outputDiff(&text, same, "text"))
	assert.Equal(t, "No differences.\n", text.String())
}

func TestNewDiffCmd(t *testing.T) {
	cmd := newDiffCmd()
	assert.Equal(t, "diff <template1> <template2>", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("format"))
	assert.NotNil(t, cmd.Flags().Lookup("ignore-order"))
}

func TestOutputValidateResult(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, outputValidateResult(&out, wetwire.ValidateResult{Success: true, Resources: 16}, "text"))
	assert.Equal(t, "Validation passed: 16 resources OK\n", out.String())

	out.Reset()
	err := outputValidateResult(&out, wetwire.ValidateResult{Errors: []string{"HourlyRule: 6 targets, the limit is 5"}}, "text")
	assert.EqualError(t, err, "validation failed")
	assert.Contains(t, out.String(), "ERROR: HourlyRule: 6 targets, the limit is 5")

	assert.Error(t, outputValidateResult(&out, wetwire.ValidateResult{Success: true}, "xml"))
}

func TestNewWatchCmd(t *testing.T) {
	cmd := newWatchCmd(&globalOptions{})
	assert.Equal(t, "watch", cmd.Use)

	flag := cmd.Flags().Lookup("debounce")
	require.NotNil(t, flag)
	assert.Equal(t, "500ms", flag.DefValue)
}

func TestSourceDirs(t *testing.T) {
	p, err := loadProject(newTestProject(t))
	require.NoError(t, err)

	dirs, err := sourceDirs(p.units)
	require.NoError(t, err)
	require.Len(t, dirs, 3)
	var bases []string
	for _, d := range dirs {
		assert.True(t, filepath.IsAbs(d))
		bases = append(bases, filepath.Base(d))
	}
	assert.Equal(t, []string{"hello-world", "hello-world-r2r", "hello-world-aot"}, bases)
}

func TestAssetKeys_IgnoresWrittenTemplate(t *testing.T) {
	opts := newTestProject(t, "dotnet", "scraper")
	p, err := loadProject(opts)
	require.NoError(t, err)

	before, err := assetKeys(p.units)
	require.NoError(t, err)
	require.Len(t, before, len(p.units))

	out := filepath.Join(filepath.Dir(opts.configPath), "template.json")
	require.NoError(t, os.WriteFile(out, []byte("{}"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(p.cfg.Bundling.StageDir, "bundling-1"), 0o755))

	after, err := assetKeys(p.units)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	writeSource(t, opts, "class Function { int x; }\n")
	edited, err := assetKeys(p.units)
	require.NoError(t, err)
	assert.NotEqual(t, before["hello-world-arm64"], edited["hello-world-arm64"])
	assert.Equal(t, before["runtime-scraper-arm64"], edited["runtime-scraper-arm64"])
}

func TestRelevant(t *testing.T) {
	assert.True(t, relevant(fsnotify.Event{Name: "src/Function.cs", Op: fsnotify.Write}))
	assert.True(t, relevant(fsnotify.Event{Name: "src/Function.cs", Op: fsnotify.Remove}))
	assert.False(t, relevant(fsnotify.Event{Name: "src/Function.cs", Op: fsnotify.Chmod}))
	assert.False(t, relevant(fsnotify.Event{Name: "src/.Function.cs.swp", Op: fsnotify.Write}))
}

func TestAddDirRecursive_SkipsBuildOutput(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"src", "bin/Release", "obj", ".git", "lambda.out"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, addDirRecursive(watcher, root, map[string]bool{"lambda.out": true}))
	assert.ElementsMatch(t, []string{root, filepath.Join(root, "src")}, watcher.WatchList())
}

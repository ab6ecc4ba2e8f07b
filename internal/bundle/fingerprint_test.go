package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func TestFingerprint_Stable(t *testing.T) {
	src := writeSource(t, map[string]string{
		"Function.cs":    "class Function {}",
		"hello.csproj":   "<Project/>",
		"sub/Handler.cs": "class Handler {}",
	})
	s, err := Dotnet(src, ARM64)
	require.NoError(t, err)

	a, err := Fingerprint(s)
	require.NoError(t, err)
	b, err := Fingerprint(s)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	require.NoError(t, a.Validate())
	assert.Equal(t, a.Encoded()+".zip", AssetKey(a))
}

func TestFingerprint_Changes(t *testing.T) {
	src := writeSource(t, map[string]string{"Function.cs": "class Function {}"})

	arm, err := Dotnet(src, ARM64)
	require.NoError(t, err)
	amd, err := Dotnet(src, X86_64)
	require.NoError(t, err)

	armDigest, err := Fingerprint(arm)
	require.NoError(t, err)
	amdDigest, err := Fingerprint(amd)
	require.NoError(t, err)
	assert.NotEqual(t, armDigest, amdDigest, "architecture is part of the fingerprint")

	require.NoError(t, os.WriteFile(filepath.Join(src, "Function.cs"), []byte("class Function { }"), 0o644))
	edited, err := Fingerprint(arm)
	require.NoError(t, err)
	assert.NotEqual(t, armDigest, edited, "source content is part of the fingerprint")
}

func TestFingerprint_IgnoresBuildOutput(t *testing.T) {
	src := writeSource(t, map[string]string{"Function.cs": "class Function {}"})
	s, err := Dotnet(src, ARM64)
	require.NoError(t, err)

	before, err := Fingerprint(s)
	require.NoError(t, err)

	for _, dir := range []string{"bin", "obj", ".git"} {
		require.NoError(t, os.MkdirAll(filepath.Join(src, dir), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(src, dir, "artifact"), []byte(dir), 0o644))
	}

	after, err := Fingerprint(s)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFingerprint_IgnoresHiddenDirs(t *testing.T) {
	src := writeSource(t, map[string]string{"Function.cs": "class Function {}"})
	s, err := Dotnet(src, ARM64)
	require.NoError(t, err)

	before, err := Fingerprint(s)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(src, ".idea"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, ".idea", "workspace.xml"), []byte("<x/>"), 0o644))

	after, err := Fingerprint(s)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFingerprint_Inputs(t *testing.T) {
	src := writeSource(t, map[string]string{
		"go.mod":                     "module example.com/m\n",
		"cmd/runtime-scraper/main.go": "package main",
		"internal/scraper/table.go":   "package scraper",
	})
	s, err := Go(src, "./cmd/runtime-scraper", ARM64,
		WithInputs("internal/scraper", "go.mod", "go.sum", "cmd/runtime-scraper/"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cmd/runtime-scraper", "go.mod", "go.sum", "internal/scraper"}, s.Inputs())

	before, err := Fingerprint(s)
	require.NoError(t, err)

	// Files outside the inputs do not move the fingerprint.
	require.NoError(t, os.MkdirAll(filepath.Join(src, "lambda.out"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "lambda.out", "asset.abc.zip"), []byte("zip"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "template.json"), []byte("{}"), 0o644))
	after, err := Fingerprint(s)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// Files inside them do, including a previously missing one.
	require.NoError(t, os.WriteFile(filepath.Join(src, "go.sum"), []byte("sum"), 0o644))
	withSum, err := Fingerprint(s)
	require.NoError(t, err)
	assert.NotEqual(t, after, withSum)

	require.NoError(t, os.WriteFile(filepath.Join(src, "internal", "scraper", "table.go"), []byte("package scraper // v2"), 0o644))
	edited, err := Fingerprint(s)
	require.NoError(t, err)
	assert.NotEqual(t, withSum, edited)
}

func TestFingerprint_MissingSource(t *testing.T) {
	s, err := Dotnet(filepath.Join(t.TempDir(), "missing"), ARM64)
	require.NoError(t, err)

	_, err = Fingerprint(s)
	assert.Error(t, err)
}

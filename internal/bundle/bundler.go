package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrOutputNotArchived is returned when an ARCHIVED recipe does not leave
// exactly one zip archive in the output directory.
var ErrOutputNotArchived = errors.New("bundling output is not a single archive")

// Mount binds a host directory into the build container.
type Mount struct {
	Source string
	Target string
}

// RunRequest describes one build container invocation.
type RunRequest struct {
	Name       string
	Image      string
	Command    []string
	User       string
	WorkingDir string
	Mounts     []Mount
	Stdout     io.Writer
	Stderr     io.Writer
}

// ContainerRunner runs a build container to completion.
// A non-zero exit status must be reported as an error.
type ContainerRunner interface {
	Run(ctx context.Context, req RunRequest) error
}

// Asset is a staged deployment archive.
type Asset struct {
	Spec   Spec
	Digest digest.Digest
	// Path is the staged archive on the host.
	Path string
	// Key is the object key the archive is published under.
	Key string
	// Cached is true when an archive with the same fingerprint was already staged.
	Cached bool
}

// Bundler runs build specifications and stages their archives.
type Bundler struct {
	Runner ContainerRunner
	// StageDir receives the archives, named asset.<digest>.zip.
	StageDir string
	// Logs receives build container output. Defaults to io.Discard.
	Logs   io.Writer
	Logger *zap.Logger
}

func (b *Bundler) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

// StagedPath returns where the archive for dgst is staged.
func (b *Bundler) StagedPath(dgst digest.Digest) string {
	return filepath.Join(b.StageDir, "asset."+dgst.Encoded()+".zip")
}

// Bundle builds one Spec. Archives already staged under the same fingerprint
// are reused without running the container.
func (b *Bundler) Bundle(ctx context.Context, s Spec) (Asset, error) {
	if s.IsZero() {
		return Asset{}, errors.New("empty build specification")
	}
	if !s.architecture.Valid() {
		return Asset{}, fmt.Errorf("%w: %q", ErrUnsupportedArchitecture, s.architecture)
	}

	dgst, err := Fingerprint(s)
	if err != nil {
		return Asset{}, err
	}
	asset := Asset{Spec: s, Digest: dgst, Path: b.StagedPath(dgst), Key: AssetKey(dgst)}
	log := b.logger().With(
		zap.String("source", s.sourcePath),
		zap.String("architecture", s.architecture.String()),
		zap.String("digest", dgst.Encoded()[:12]),
	)

	if _, err := os.Stat(asset.Path); err == nil {
		log.Debug("asset already staged")
		asset.Cached = true
		return asset, nil
	}

	// The daemon only accepts absolute bind mount sources.
	stageDir, err := filepath.Abs(b.StageDir)
	if err != nil {
		return Asset{}, err
	}
	source, err := filepath.Abs(s.sourcePath)
	if err != nil {
		return Asset{}, err
	}

	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		return Asset{}, fmt.Errorf("creating stage dir: %w", err)
	}
	outDir, err := os.MkdirTemp(stageDir, "bundling-")
	if err != nil {
		return Asset{}, fmt.Errorf("creating output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	logs := b.Logs
	if logs == nil {
		logs = io.Discard
	}

	log.Info("bundling asset", zap.String("image", s.image))
	err = b.Runner.Run(ctx, RunRequest{
		Name:       "lambda-examples-bundle-" + uuid.NewString(),
		Image:      s.image,
		Command:    s.Command(),
		User:       s.user,
		WorkingDir: InputDir,
		Mounts: []Mount{
			{Source: source, Target: InputDir},
			{Source: outDir, Target: OutputDir},
		},
		Stdout: logs,
		Stderr: logs,
	})
	if err != nil {
		return Asset{}, fmt.Errorf("bundling %s: %w", s, err)
	}

	tmp := asset.Path + ".tmp-" + uuid.NewString()
	if err := collect(s, outDir, tmp); err != nil {
		os.Remove(tmp)
		return Asset{}, fmt.Errorf("bundling %s: %w", s, err)
	}
	if err := os.Rename(tmp, asset.Path); err != nil {
		os.Remove(tmp)
		return Asset{}, fmt.Errorf("staging %s: %w", asset.Path, err)
	}

	log.Info("asset staged", zap.String("path", asset.Path))
	return asset, nil
}

// collect turns the contents of outDir into a single archive at dst.
func collect(s Spec, outDir, dst string) error {
	want := path.Base(s.outputPath)

	switch s.outputType {
	case Archived:
		entries, err := os.ReadDir(outDir)
		if err != nil {
			return err
		}
		var files []string
		for _, e := range entries {
			if e.Type().IsRegular() {
				files = append(files, e.Name())
			}
		}
		if len(files) != 1 || len(files) != len(entries) {
			return fmt.Errorf("%w: found %d entries in %s", ErrOutputNotArchived, len(entries), OutputDir)
		}
		if files[0] != want {
			return fmt.Errorf("%w: expected %s, found %s", ErrOutputNotArchived, want, files[0])
		}
		src := filepath.Join(outDir, files[0])
		if _, err := zipEntries(src); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrOutputNotArchived, files[0], err)
		}
		return os.Rename(src, dst)

	case NotArchived:
		if _, err := os.Stat(filepath.Join(outDir, filepath.FromSlash(want))); err != nil {
			return fmt.Errorf("expected %s in %s: %w", want, OutputDir, err)
		}
		n, err := zipDir(outDir, dst)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("no files in %s", OutputDir)
		}
		return nil

	default:
		return fmt.Errorf("unknown output type %q", s.outputType)
	}
}

// BundleAll builds specs with at most parallelism containers at a time.
// Results are returned in the order of specs. The first failure cancels the
// remaining builds.
func (b *Bundler) BundleAll(ctx context.Context, specs []Spec, parallelism int) ([]Asset, error) {
	if parallelism < 1 {
		parallelism = 1
	}

	assets := make([]Asset, len(specs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, s := range slices.Clone(specs) {
		g.Go(func() error {
			asset, err := b.Bundle(ctx, s)
			if err != nil {
				return err
			}
			assets[i] = asset
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}

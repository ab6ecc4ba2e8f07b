// Package bundle resolves and runs the recipes that turn a function's source
// project into a deployable Lambda archive.
//
// A Spec is produced per deployable unit. It describes the container image,
// the shell command sequence, the user and the expected output; the Bundler
// runs it with the source mounted at /asset-input and collects whatever the
// command writes to /asset-output.
package bundle

import (
	"fmt"
	"path"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
)

const (
	// InputDir is where the source directory is mounted in the build container.
	InputDir = "/asset-input"
	// OutputDir is where the build container writes its artifacts.
	OutputDir = "/asset-output"

	// DotnetImage is the SAM build image for the dotnet8 runtime.
	DotnetImage = "public.ecr.aws/sam/build-dotnet8"
	// RustImage is the cargo-lambda build image.
	RustImage = "ghcr.io/cargo-lambda/cargo-lambda:latest"
	// GoImage is the Go toolchain image used for Go functions.
	GoImage = "public.ecr.aws/docker/library/golang:1.24"
)

// OutputType says how the bundler treats the contents of OutputDir.
type OutputType string

const (
	// Archived means the command writes exactly one archive, used as-is.
	Archived OutputType = "ARCHIVED"
	// NotArchived means the output directory is zipped by the bundler.
	NotArchived OutputType = "NOT_ARCHIVED"
)

// Spec is an immutable build specification.
type Spec struct {
	sourcePath   string
	architecture Architecture
	image        string
	command      []string
	outputPath   string
	user         string
	outputType   OutputType
	inputs       []string
}

// SourcePath is the host directory mounted at InputDir.
func (s Spec) SourcePath() string { return s.sourcePath }

// Architecture is the target architecture of the artifact.
func (s Spec) Architecture() Architecture { return s.architecture }

// Image is the container image reference.
func (s Spec) Image() string { return s.image }

// Command returns a copy of the command sequence.
func (s Spec) Command() []string { return slices.Clone(s.command) }

// OutputPath is the container path of the artifact the command produces.
func (s Spec) OutputPath() string { return s.outputPath }

// User is the container user the command runs as.
func (s Spec) User() string { return s.user }

// Inputs are the paths under SourcePath that feed the fingerprint.
// Empty means the whole source directory.
func (s Spec) Inputs() []string { return slices.Clone(s.inputs) }

// OutputType is the packaging mode of the output.
func (s Spec) OutputType() OutputType { return s.outputType }

// IsZero reports whether s is the zero Spec.
func (s Spec) IsZero() bool { return s.image == "" && len(s.command) == 0 }

func (s Spec) String() string {
	return fmt.Sprintf("%s [%s] -> %s", s.sourcePath, s.architecture, s.outputPath)
}

// Option adjusts a recipe before the Spec is frozen.
type Option func(*Spec)

// SingleArchive names the archive function.zip instead of <architecture>.zip.
// Use it when a project is only ever built for one architecture.
func SingleArchive() Option {
	return func(s *Spec) {
		s.outputPath = path.Join(OutputDir, "function.zip")
	}
}

// WithImage overrides the build image.
func WithImage(image string) Option {
	return func(s *Spec) {
		s.image = image
	}
}

// WithInputs limits the fingerprint to the given slash-separated paths
// under the source directory. The whole directory is still mounted into the
// build container. Use it when the source directory also holds unrelated
// files, such as a module root that contains generated output.
func WithInputs(paths ...string) Option {
	return func(s *Spec) {
		inputs := make([]string, 0, len(paths))
		for _, p := range paths {
			inputs = append(inputs, path.Clean(p))
		}
		slices.Sort(inputs)
		s.inputs = slices.Compact(inputs)
	}
}

// Dotnet resolves the recipe for a .NET Lambda project built with
// Amazon.Lambda.Tools into a single archive named after the architecture.
func Dotnet(sourcePath string, arch Architecture, opts ...Option) (Spec, error) {
	if !arch.Valid() {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnsupportedArchitecture, arch)
	}

	s := Spec{
		sourcePath:   sourcePath,
		architecture: arch,
		image:        DotnetImage,
		outputPath:   path.Join(OutputDir, string(arch)+".zip"),
		user:         "root",
		outputType:   Archived,
	}
	for _, opt := range opts {
		opt(&s)
	}

	s.command = []string{
		"/bin/sh",
		"-c",
		" dotnet tool install -g Amazon.Lambda.Tools" +
			" && dotnet build -r linux-" + arch.DotnetRID() +
			" && dotnet lambda package --output-package " + s.outputPath +
			" --function-architecture " + string(arch),
	}
	return s, nil
}

// cargoManifest is the subset of Cargo.toml the Rust recipe reads.
type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Bin []struct {
		Name string `toml:"name"`
	} `toml:"bin"`
}

// BinaryName returns the binary cargo-lambda should package from a
// Cargo.toml: the first [[bin]] target, or the package name.
func BinaryName(manifestPath string) (string, error) {
	var m cargoManifest
	if _, err := toml.DecodeFile(manifestPath, &m); err != nil {
		return "", fmt.Errorf("reading %s: %w", manifestPath, err)
	}
	if len(m.Bin) > 0 && m.Bin[0].Name != "" {
		return m.Bin[0].Name, nil
	}
	if m.Package.Name == "" {
		return "", fmt.Errorf("%s: no package name", manifestPath)
	}
	return m.Package.Name, nil
}

// Rust resolves the cargo-lambda recipe for the crate at manifestPath.
// The binary is flattened to OutputDir/bootstrap and zipped by the bundler.
func Rust(manifestPath string, arch Architecture, opts ...Option) (Spec, error) {
	if !arch.Valid() {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnsupportedArchitecture, arch)
	}

	bin, err := BinaryName(manifestPath)
	if err != nil {
		return Spec{}, err
	}

	s := Spec{
		sourcePath:   filepath.Dir(manifestPath),
		architecture: arch,
		image:        RustImage,
		outputPath:   path.Join(OutputDir, "bootstrap"),
		user:         "root",
		outputType:   NotArchived,
	}
	for _, opt := range opts {
		opt(&s)
	}

	s.command = []string{
		"/bin/sh",
		"-c",
		"cargo lambda build --release" +
			" --manifest-path " + path.Join(InputDir, filepath.Base(manifestPath)) +
			" --target " + arch.RustTarget() +
			" --lambda-dir " + OutputDir +
			" --flatten " + bin,
	}
	return s, nil
}

// Go resolves the recipe for a Go Lambda whose main package is pkg, relative
// to the module root at sourcePath.
func Go(sourcePath, pkg string, arch Architecture, opts ...Option) (Spec, error) {
	if !arch.Valid() {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnsupportedArchitecture, arch)
	}

	s := Spec{
		sourcePath:   sourcePath,
		architecture: arch,
		image:        GoImage,
		outputPath:   path.Join(OutputDir, "bootstrap"),
		user:         "root",
		outputType:   NotArchived,
	}
	for _, opt := range opts {
		opt(&s)
	}

	s.command = []string{
		"/bin/sh",
		"-c",
		"CGO_ENABLED=0 GOOS=linux GOARCH=" + arch.GOARCH() +
			" go build -tags lambda.norpc -trimpath -o " + s.outputPath + " " + pkg,
	}
	return s, nil
}

package functions

import (
	"path/filepath"

	"github.com/lex00/wetwire-lambda-examples/internal/bundle"
)

// RustMemorySize is the memory of Rust functions.
const RustMemorySize = 128

// Rust is the cargo-lambda hello-world function set.
type Rust struct {
	Root string
}

var rustMatrix = []struct {
	id   string
	arch bundle.Architecture
}{
	{"hello-world-arm", bundle.ARM64},
	{"hello-world-amd", bundle.X86_64},
}

// Name implements Builder.
func (Rust) Name() string { return "rust" }

// Manifest returns the path of the hello-world Cargo.toml.
func (r Rust) Manifest() string {
	if r.Root == "" {
		return "./rust/hello-world/Cargo.toml"
	}
	return filepath.Join(r.Root, "rust", "hello-world", "Cargo.toml")
}

// Functions implements Builder. It reads the crate manifest to name the
// packaged binary.
func (r Rust) Functions() ([]Unit, error) {
	units := make([]Unit, 0, len(rustMatrix))
	for _, row := range rustMatrix {
		spec, err := bundle.Rust(r.Manifest(), row.arch)
		if err != nil {
			return nil, err
		}
		units = append(units, Unit{
			ID:           row.id,
			Set:          r.Name(),
			Runtime:      RuntimeProvidedAL2023,
			Handler:      HandlerBootstrap,
			MemorySize:   RustMemorySize,
			Architecture: row.arch,
			Variant:      bundle.Plain,
			Build:        spec,
		})
	}
	return units, nil
}

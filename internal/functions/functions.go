// Package functions enumerates the deployable units of the example stack.
//
// Each function set is a static, hand-written matrix of project,
// architecture and variant. Adding a combination means adding a row; nothing
// is discovered from the filesystem.
package functions

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/lex00/wetwire-lambda-examples/internal/bundle"
)

const (
	// RuntimeProvidedAL2023 is the OS-only Lambda runtime every unit uses.
	RuntimeProvidedAL2023 = "provided.al2023"
	// HandlerBootstrap is the entry point of custom-runtime functions.
	HandlerBootstrap = "bootstrap"
)

// Unit is one deployable Lambda function.
type Unit struct {
	ID           string
	Set          string
	Runtime      string
	Handler      string
	MemorySize   int
	Timeout      int // seconds; zero keeps the Lambda default
	Environment  map[string]string
	Architecture bundle.Architecture
	Variant      bundle.Variant
	Build        bundle.Spec
}

// Validate checks that the unit's build targets the unit's architecture.
func (u Unit) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("unit has no id")
	}
	if u.Build.IsZero() {
		return fmt.Errorf("unit %s has no build specification", u.ID)
	}
	if u.Build.Architecture() != u.Architecture {
		return fmt.Errorf("unit %s: architecture %s, build targets %s",
			u.ID, u.Architecture, u.Build.Architecture())
	}
	return nil
}

// Builder produces the units of one function set.
type Builder interface {
	Name() string
	Functions() ([]Unit, error)
}

// Registry maps function set names to their builders.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry returns a registry holding builders.
func NewRegistry(builders ...Builder) *Registry {
	r := &Registry{builders: make(map[string]Builder)}
	for _, b := range builders {
		r.Register(b)
	}
	return r
}

// DefaultRegistry holds every function set rooted at root.
func DefaultRegistry(root string) *Registry {
	return NewRegistry(
		Dotnet{Root: root},
		Rust{Root: root},
		Scraper{Root: root},
	)
}

// Register adds or replaces a builder.
func (r *Registry) Register(b Builder) {
	r.builders[b.Name()] = b
}

// Names returns the registered set names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the builder for a set name.
func (r *Registry) Get(name string) (Builder, bool) {
	b, ok := r.builders[name]
	return b, ok
}

// Resolve concatenates the units of the named sets, in the order given.
// Every unit is validated and ids must be unique across sets.
func (r *Registry) Resolve(sets ...string) ([]Unit, error) {
	var units []Unit
	seen := make(map[string]string)

	for _, name := range sets {
		b, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown function set %q (available: %v)", name, r.Names())
		}
		set, err := b.Functions()
		if err != nil {
			return nil, fmt.Errorf("function set %s: %w", name, err)
		}
		for _, u := range set {
			if err := u.Validate(); err != nil {
				return nil, err
			}
			if prev, dup := seen[u.ID]; dup {
				return nil, fmt.Errorf("duplicate unit %s in sets %s and %s", u.ID, prev, name)
			}
			seen[u.ID] = name
			units = append(units, u)
		}
	}
	return units, nil
}

// sourcePath joins a project directory onto root. An empty root keeps the
// "./dir/" form relative to the working directory.
func sourcePath(root string, elem ...string) string {
	if root == "" {
		return "./" + filepath.ToSlash(filepath.Join(elem...)) + "/"
	}
	return filepath.Join(append([]string{root}, elem...)...)
}

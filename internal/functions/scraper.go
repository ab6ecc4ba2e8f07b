package functions

import (
	"github.com/lex00/wetwire-lambda-examples/internal/bundle"
	"github.com/lex00/wetwire-lambda-examples/internal/scraper"
)

const (
	// ScraperPackage is the main package of the runtime scraper function.
	ScraperPackage = "./cmd/runtime-scraper"
	// ScraperMemorySize is the memory of the runtime scraper function.
	ScraperMemorySize = 128
	// ScraperTimeout leaves room for fetching the documentation page.
	ScraperTimeout = 30
)

// ScraperInputs are the module paths the runtime scraper is built from.
// Only these feed its asset key, so stage directories and synthesized
// templates written to the module root leave the key unchanged.
var ScraperInputs = []string{"go.mod", "go.sum", "cmd/runtime-scraper", "internal/scraper"}

// Scraper is the runtime-scraper function, built from this module.
type Scraper struct {
	// Root is the module root. Empty means the working directory.
	Root string
}

// Name implements Builder.
func (Scraper) Name() string { return "scraper" }

// Functions implements Builder.
func (s Scraper) Functions() ([]Unit, error) {
	root := s.Root
	if root == "" {
		root = "."
	}
	spec, err := bundle.Go(root, ScraperPackage, bundle.ARM64, bundle.WithInputs(ScraperInputs...))
	if err != nil {
		return nil, err
	}
	return []Unit{{
		ID:           "runtime-scraper-arm64",
		Set:          s.Name(),
		Runtime:      RuntimeProvidedAL2023,
		Handler:      HandlerBootstrap,
		MemorySize:   ScraperMemorySize,
		Timeout:      ScraperTimeout,
		Environment:  map[string]string{scraper.URLEnv: scraper.RuntimesURL},
		Architecture: bundle.ARM64,
		Variant:      bundle.Plain,
		Build:        spec,
	}}, nil
}

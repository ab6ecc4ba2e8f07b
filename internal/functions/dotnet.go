package functions

import "github.com/lex00/wetwire-lambda-examples/internal/bundle"

// DotnetMemorySize is the memory of .NET functions, one full vCPU.
const DotnetMemorySize = 1769

// Dotnet is the .NET hello-world function set.
type Dotnet struct {
	// Root is the directory holding dotnet/. Empty means the working directory.
	Root string
}

type dotnetRow struct {
	id      string
	project string
	arch    bundle.Architecture
	variant bundle.Variant
}

// dotnetMatrix lists the .NET units in deployment order.
// hello-world-aot-amd64 is absent: native AOT cannot cross-compile to
// x86_64 on the arm64 build host.
var dotnetMatrix = []dotnetRow{
	{"hello-world-amd64", "hello-world", bundle.X86_64, bundle.Plain},
	{"hello-world-r2r-amd64", "hello-world-r2r", bundle.X86_64, bundle.R2R},
	{"hello-world-arm64", "hello-world", bundle.ARM64, bundle.Plain},
	{"hello-world-r2r-arm64", "hello-world-r2r", bundle.ARM64, bundle.R2R},
	{"hello-world-aot-arm64", "hello-world-aot", bundle.ARM64, bundle.AOT},
}

// Name implements Builder.
func (Dotnet) Name() string { return "dotnet" }

// Functions implements Builder.
func (d Dotnet) Functions() ([]Unit, error) {
	units := make([]Unit, 0, len(dotnetMatrix))
	for _, row := range dotnetMatrix {
		spec, err := bundle.Dotnet(sourcePath(d.Root, "dotnet", row.project), row.arch)
		if err != nil {
			return nil, err
		}
		units = append(units, Unit{
			ID:           row.id,
			Set:          d.Name(),
			Runtime:      RuntimeProvidedAL2023,
			Handler:      HandlerBootstrap,
			MemorySize:   DotnetMemorySize,
			Architecture: row.arch,
			Variant:      row.variant,
			Build:        spec,
		})
	}
	return units, nil
}

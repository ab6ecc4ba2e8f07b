package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-lambda-examples"
	"github.com/lex00/wetwire-lambda-examples/internal/bundle"
	"github.com/lex00/wetwire-lambda-examples/internal/functions"
	"github.com/lex00/wetwire-lambda-examples/internal/stack"
)

func newListCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		arch         string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the deployable functions",
		Long: `List prints every function of the configured sets with its architecture,
memory size and build source.

Examples:
    lambda-examples list
    lambda-examples list --format json
    lambda-examples list --arch arm64`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(opts)
			if err != nil {
				return err
			}
			units, err := filterArchitecture(p.units, arch)
			if err != nil {
				return err
			}
			return outputListResult(cmd.OutOrStdout(), listFunctions(units), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&arch, "arch", "", "Only list functions for this architecture: x86_64 or arm64")

	return cmd
}

// filterArchitecture keeps the units built for arch. An empty arch keeps all.
func filterArchitecture(units []functions.Unit, arch string) ([]functions.Unit, error) {
	if arch == "" {
		return units, nil
	}
	want, err := bundle.ParseArchitecture(arch)
	if err != nil {
		return nil, err
	}
	var out []functions.Unit
	for _, u := range units {
		if u.Architecture == want {
			out = append(out, u)
		}
	}
	return out, nil
}

func listFunctions(units []functions.Unit) wetwire.ListResult {
	result := wetwire.ListResult{Functions: make([]wetwire.ListFunction, 0, len(units))}
	for _, u := range units {
		result.Functions = append(result.Functions, wetwire.ListFunction{
			ID:           u.ID,
			LogicalID:    stack.FunctionLogicalID(u),
			Set:          u.Set,
			Architecture: string(u.Architecture),
			MemorySize:   u.MemorySize,
			Source:       u.Build.SourcePath(),
			Output:       u.Build.OutputPath(),
		})
	}
	return result
}

func outputListResult(w io.Writer, result wetwire.ListResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Functions) == 0 {
			fmt.Fprintln(w, "No functions found.")
			return nil
		}

		fmt.Fprintf(w, "Functions (%d):\n\n", len(result.Functions))
		for _, f := range result.Functions {
			fmt.Fprintf(w, "  %-24s %-7s %-7s %5d MB  %s\n",
				f.ID, f.Set, f.Architecture, f.MemorySize, f.Source)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}

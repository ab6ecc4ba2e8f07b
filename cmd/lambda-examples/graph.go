package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-lambda-examples/internal/graph"
)

func newGraphCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat  string
		clusterByType bool
		manifest      string
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate DOT graph of resource dependencies",
		Long: `Generate a DOT or Mermaid format graph showing the stack's resource
dependencies.

The output can be rendered with Graphviz:
    lambda-examples graph | dot -Tpng -o deps.png

Or used in GitHub markdown (Mermaid format):
    lambda-examples graph -f mermaid

Examples:
    lambda-examples graph
    lambda-examples graph -c              # cluster by service
    lambda-examples graph -f mermaid      # mermaid format`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd.OutOrStdout(), opts, outputFormat, clusterByType, manifest)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&clusterByType, "cluster", "c", false, "Cluster resources by AWS service type")
	cmd.Flags().StringVar(&manifest, "manifest", "", "Asset manifest written by bundle")

	return cmd
}

func runGraph(w io.Writer, opts *globalOptions, format string, cluster bool, manifest string) error {
	var graphFormat graph.Format
	switch format {
	case "dot":
		graphFormat = graph.FormatDOT
	case "mermaid":
		graphFormat = graph.FormatMermaid
	default:
		return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", format)
	}

	p, err := loadProject(opts)
	if err != nil {
		return err
	}
	assets, err := resolver(manifest)
	if err != nil {
		return err
	}
	st, err := p.stack(assets)
	if err != nil {
		return err
	}
	builder, err := st.Register()
	if err != nil {
		return err
	}

	gen := &graph.Generator{
		Format:        graphFormat,
		ClusterByType: cluster,
	}
	return gen.Generate(builder, w)
}

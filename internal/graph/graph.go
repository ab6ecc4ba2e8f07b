// Package graph generates DOT and Mermaid format dependency graphs of a stack.
package graph

import (
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Source is a set of named resources and the dependencies between them.
// *template.Builder implements it.
type Source interface {
	// Dependencies maps each resource to the resources it depends on.
	Dependencies() map[string][]string
	// References lists the dependencies of name that come from Ref or
	// Fn::GetAtt rather than an explicit DependsOn.
	References(name string) []string
	// Type returns the CloudFormation type of a resource.
	Type(name string) string
}

// Generator creates dependency graphs.
type Generator struct {
	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByType groups resources by AWS service.
	ClusterByType bool
}

// Generate creates a dependency graph and writes it to w.
func (g *Generator) Generate(src Source, w io.Writer) error {
	graph := g.buildGraph(src)

	var output string
	if g.Format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := io.WriteString(w, output)
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(src Source) (string, error) {
	var sb strings.Builder
	if err := g.Generate(src, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (g *Generator) buildGraph(src Source) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	deps := src.Dependencies()
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	nodes := make(map[string]dot.Node, len(names))
	if g.ClusterByType {
		g.addClusteredNodes(graph, src, names, nodes)
	} else {
		for _, name := range names {
			nodes[name] = addNode(graph, src, name)
		}
	}

	for _, name := range names {
		refs := make(map[string]bool)
		for _, r := range src.References(name) {
			refs[r] = true
		}
		for _, dep := range deps[name] {
			to, ok := nodes[dep]
			if !ok {
				continue
			}
			e := graph.Edge(nodes[name], to)
			if refs[dep] {
				e.Attr("color", "blue")
			} else {
				e.Attr("style", "dashed")
			}
		}
	}

	return graph
}

func addNode(graph *dot.Graph, src Source, name string) dot.Node {
	n := graph.Node(name)
	n.Label(name + "\\n[" + src.Type(name) + "]")
	return n
}

// addClusteredNodes groups nodes of the same service into a cluster when
// the service has more than one resource.
func (g *Generator) addClusteredNodes(graph *dot.Graph, src Source, names []string, nodes map[string]dot.Node) {
	byService := make(map[string][]string)
	var services []string
	for _, name := range names {
		service := extractService(src.Type(name))
		if _, ok := byService[service]; !ok {
			services = append(services, service)
		}
		byService[service] = append(byService[service], name)
	}
	sort.Strings(services)

	for _, service := range services {
		members := byService[service]
		if len(members) == 1 {
			nodes[members[0]] = addNode(graph, src, members[0])
			continue
		}

		cluster := graph.Subgraph("cluster_"+service, dot.ClusterOption{})
		cluster.Attr("label", service)
		cluster.Attr("style", "rounded")
		cluster.Attr("bgcolor", "lightyellow")
		for _, name := range members {
			nodes[name] = addNode(cluster, src, name)
		}
	}
}

// extractService returns the service part of a CloudFormation type.
// e.g., "AWS::Lambda::Function" -> "Lambda"
func extractService(cfType string) string {
	parts := strings.Split(cfType, "::")
	if len(parts) == 3 {
		return parts[1]
	}
	return "Other"
}

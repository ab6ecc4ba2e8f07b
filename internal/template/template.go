// Package template provides CloudFormation template building from registered resources.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/wetwire-lambda-examples"
	"github.com/lex00/wetwire-lambda-examples/internal/serialize"
)

// Builder constructs CloudFormation templates from registered resources.
type Builder struct {
	description string
	resources   map[string]*entry
	outputs     map[string]wetwire.Output
}

type entry struct {
	value     wetwire.Resource
	props     map[string]any
	dependsOn []string
	metadata  map[string]any
	refs      []string
}

// Option customizes a registered resource.
type Option func(*entry)

// DependsOn adds explicit DependsOn entries for the resource.
func DependsOn(names ...string) Option {
	return func(e *entry) {
		e.dependsOn = append(e.dependsOn, names...)
	}
}

// WithMetadata sets a Metadata key on the resource.
func WithMetadata(key string, value any) Option {
	return func(e *entry) {
		if e.metadata == nil {
			e.metadata = make(map[string]any)
		}
		e.metadata[key] = value
	}
}

// NewBuilder creates an empty template builder.
func NewBuilder(description string) *Builder {
	return &Builder{
		description: description,
		resources:   make(map[string]*entry),
		outputs:     make(map[string]wetwire.Output),
	}
}

// Add registers a resource under a logical name.
// The resource is serialized immediately; Ref and Fn::GetAtt references to
// other names become ordering dependencies.
func (b *Builder) Add(name string, res wetwire.Resource, opts ...Option) error {
	if name == "" {
		return errors.New("resource name is empty")
	}
	if _, exists := b.resources[name]; exists {
		return fmt.Errorf("duplicate resource: %s", name)
	}

	props, err := serialize.Resource(res)
	if err != nil {
		return fmt.Errorf("serializing %s: %w", name, err)
	}

	e := &entry{value: res, props: props}
	for _, opt := range opts {
		opt(e)
	}
	e.refs = collectRefs(props)

	b.resources[name] = e
	return nil
}

// AddOutput registers a template output.
func (b *Builder) AddOutput(name string, out wetwire.Output) {
	b.outputs[name] = out
}

// Has reports whether a resource is registered under name.
func (b *Builder) Has(name string) bool {
	_, ok := b.resources[name]
	return ok
}

// Type returns the CloudFormation type of a registered resource.
func (b *Builder) Type(name string) string {
	if e, ok := b.resources[name]; ok {
		return e.value.ResourceType()
	}
	return ""
}

// Dependencies returns, for every registered resource, the registered
// resources it depends on (references plus explicit DependsOn), sorted.
func (b *Builder) Dependencies() map[string][]string {
	deps := make(map[string][]string, len(b.resources))
	for name, e := range b.resources {
		deps[name] = b.dependencies(e)
	}
	return deps
}

func (b *Builder) dependencies(e *entry) []string {
	seen := make(map[string]bool)
	var deps []string
	for _, d := range append(append([]string{}, e.refs...), e.dependsOn...) {
		if _, ok := b.resources[d]; !ok || seen[d] {
			continue
		}
		seen[d] = true
		deps = append(deps, d)
	}
	sort.Strings(deps)
	return deps
}

// References returns the registered resources that name refers to through
// Ref or Fn::GetAtt, sorted. Explicit DependsOn entries are not included.
func (b *Builder) References(name string) []string {
	e, ok := b.resources[name]
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var refs []string
	for _, r := range e.refs {
		if _, ok := b.resources[r]; ok && !seen[r] {
			seen[r] = true
			refs = append(refs, r)
		}
	}
	sort.Strings(refs)
	return refs
}

// Order returns the registered resources in dependency order.
func (b *Builder) Order() ([]string, error) {
	return b.topologicalSort()
}

// Build constructs the CloudFormation template.
func (b *Builder) Build() (*wetwire.Template, error) {
	order, err := b.topologicalSort()
	if err != nil {
		return nil, err
	}

	for _, e := range b.resources {
		for _, d := range e.dependsOn {
			if _, ok := b.resources[d]; !ok {
				return nil, fmt.Errorf("DependsOn references unknown resource: %s", d)
			}
		}
	}

	template := &wetwire.Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              b.description,
		Resources:                make(map[string]wetwire.ResourceDef, len(order)),
	}

	for _, name := range order {
		e := b.resources[name]

		var dependsOn []string
		if len(e.dependsOn) > 0 {
			dependsOn = append(dependsOn, e.dependsOn...)
			sort.Strings(dependsOn)
		}

		template.Resources[name] = wetwire.ResourceDef{
			Type:       e.value.ResourceType(),
			Properties: e.props,
			DependsOn:  dependsOn,
			Metadata:   e.metadata,
		}
	}

	if len(b.outputs) > 0 {
		template.Outputs = make(map[string]wetwire.Output, len(b.outputs))
		for name, out := range b.outputs {
			template.Outputs[name] = out
		}
	}

	return template, nil
}

// collectRefs returns the logical names referenced via Ref or Fn::GetAtt.
func collectRefs(value any) []string {
	var refs []string
	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case map[string]any:
			if ref, ok := val["Ref"].(string); ok && len(val) == 1 {
				refs = append(refs, ref)
				return
			}
			if getAtt, ok := val["Fn::GetAtt"].([]any); ok && len(getAtt) > 0 {
				if name, ok := getAtt[0].(string); ok {
					refs = append(refs, name)
				}
				return
			}
			for _, child := range val {
				walk(child)
			}
		case []any:
			for _, child := range val {
				walk(child)
			}
		}
	}
	walk(value)
	return refs
}

// topologicalSort returns resources in dependency order.
func (b *Builder) topologicalSort() ([]string, error) {
	graph := make(map[string][]string)
	inDegree := make(map[string]int)

	for name := range b.resources {
		graph[name] = nil
		inDegree[name] = 0
	}

	for name, e := range b.resources {
		for _, dep := range b.dependencies(e) {
			graph[dep] = append(graph[dep], name)
			inDegree[name]++
		}
	}

	// Kahn's algorithm
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range graph[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(b.resources) {
		return nil, b.detectCycle()
	}

	return result, nil
}

// detectCycle finds and reports a cycle in the dependency graph.
func (b *Builder) detectCycle() error {
	visited := make(map[string]bool)
	path := make(map[string]bool)

	names := make([]string, 0, len(b.resources))
	for name := range b.resources {
		names = append(names, name)
	}
	sort.Strings(names)

	var cycle []string
	var findCycle func(node string) bool
	findCycle = func(node string) bool {
		visited[node] = true
		path[node] = true

		for _, dep := range b.dependencies(b.resources[node]) {
			if !visited[dep] {
				if findCycle(dep) {
					cycle = append([]string{node}, cycle...)
					return true
				}
			} else if path[dep] {
				cycle = append([]string{dep, node}, cycle...)
				return true
			}
		}

		path[node] = false
		return false
	}

	for _, name := range names {
		if !visited[name] && findCycle(name) {
			break
		}
	}

	if len(cycle) > 0 {
		msg := "circular dependency detected:\n"
		for i, name := range cycle {
			msg += fmt.Sprintf("  %s (%s)", name, b.resources[name].value.ResourceType())
			if i < len(cycle)-1 {
				msg += "\n    → "
			}
		}
		return errors.New(msg)
	}

	return errors.New("circular dependency detected")
}

// ToJSON serializes the template to JSON.
func ToJSON(t *wetwire.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *wetwire.Template) ([]byte, error) {
	return yaml.Marshal(t)
}

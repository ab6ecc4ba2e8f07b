// Package differ compares two synthesized stack templates resource by
// resource.
package differ

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/wetwire-lambda-examples"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder ignores array element order in comparisons.
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    wetwire.TemplateDiff
	Summary wetwire.DiffSummary
	// Outputs lists the output names that were added, removed or changed.
	Outputs []string
}

// Compare compares two templates. A new asset key on a function shows up as
// a modified Code.S3Key, which is how code changes surface.
func Compare(before, after *wetwire.Template, opts Options) (*Result, error) {
	result := &Result{}

	for name, def := range after.Resources {
		if _, exists := before.Resources[name]; !exists {
			result.Diff.Added = append(result.Diff.Added, wetwire.DiffEntry{Resource: name, Type: def.Type})
		}
	}

	for name, def := range before.Resources {
		def2, exists := after.Resources[name]
		if !exists {
			result.Diff.Removed = append(result.Diff.Removed, wetwire.DiffEntry{Resource: name, Type: def.Type})
			continue
		}
		if changes := compareResources(def, def2, opts); len(changes) > 0 {
			result.Diff.Modified = append(result.Diff.Modified, wetwire.DiffEntry{
				Resource: name,
				Type:     def.Type,
				Changes:  changes,
			})
		}
	}

	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)

	result.Outputs = compareOutputs(before.Outputs, after.Outputs, opts)

	result.Summary = wetwire.DiffSummary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified

	return result, nil
}

// CompareFiles compares two template files.
func CompareFiles(file1, file2 string, opts Options) (*Result, error) {
	t1, err := LoadTemplate(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}

	t2, err := LoadTemplate(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}

	return Compare(t1, t2, opts)
}

// LoadTemplate loads a template from a JSON or YAML file.
func LoadTemplate(path string) (*wetwire.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var template wetwire.Template
	if err := json.Unmarshal(data, &template); err != nil {
		if err := yaml.Unmarshal(data, &template); err != nil {
			return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
		}
	}

	return &template, nil
}

func compareResources(def1, def2 wetwire.ResourceDef, opts Options) []string {
	var changes []string

	if def1.Type != def2.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s -> %s", def1.Type, def2.Type))
	}

	changes = append(changes, compareMaps("", def1.Properties, def2.Properties, opts)...)
	changes = append(changes, compareMaps("Metadata", def1.Metadata, def2.Metadata, opts)...)

	if !cmp.Equal(def1.DependsOn, def2.DependsOn, cmpopts.EquateEmpty()) {
		changes = append(changes, "DependsOn changed")
	}

	return changes
}

// compareMaps reports added, removed and modified keys. Nested maps are
// walked so that changes carry their full path, e.g. "Code.S3Key modified".
func compareMaps(prefix string, m1, m2 map[string]any, opts Options) []string {
	var changes []string
	join := func(key string) string {
		if prefix == "" {
			return key
		}
		return prefix + "." + key
	}

	for key, val2 := range m2 {
		val1, exists := m1[key]
		if !exists {
			changes = append(changes, join(key)+" added")
			continue
		}
		sub1, ok1 := val1.(map[string]any)
		sub2, ok2 := val2.(map[string]any)
		if ok1 && ok2 && !isIntrinsic(sub1) && !isIntrinsic(sub2) {
			changes = append(changes, compareMaps(join(key), sub1, sub2, opts)...)
			continue
		}
		if !equal(val1, val2, opts) {
			changes = append(changes, join(key)+" modified")
		}
	}

	for key := range m1 {
		if _, exists := m2[key]; !exists {
			changes = append(changes, join(key)+" removed")
		}
	}

	sort.Strings(changes)
	return changes
}

func compareOutputs(o1, o2 map[string]wetwire.Output, opts Options) []string {
	var changed []string
	for name, out2 := range o2 {
		out1, ok := o1[name]
		if !ok || !equal(normalize(out1.Value), normalize(out2.Value), opts) {
			changed = append(changed, name)
		}
	}
	for name := range o1 {
		if _, ok := o2[name]; !ok {
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	return changed
}

// isIntrinsic reports whether m is a single-key intrinsic such as Ref or
// Fn::GetAtt, which compares as one value.
func isIntrinsic(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	for k := range m {
		return k == "Ref" || len(k) > 4 && k[:4] == "Fn::"
	}
	return false
}

func equal(a, b any, opts Options) bool {
	cmpOpts := []cmp.Option{cmpopts.EquateEmpty()}
	if opts.IgnoreOrder {
		cmpOpts = append(cmpOpts, cmpopts.SortSlices(func(x, y any) bool {
			return fmt.Sprint(x) < fmt.Sprint(y)
		}))
	}
	return cmp.Equal(a, b, cmpOpts...)
}

// normalize round-trips v through JSON so that typed values built in memory
// compare equal to values loaded from a file.
func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

func sortEntries(entries []wetwire.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Resource < entries[j].Resource
	})
}

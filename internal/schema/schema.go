// Package schema checks synthesized resources against the CloudFormation
// schemas of the resource types the stack emits. It runs offline.
package schema

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	wetwire "github.com/lex00/wetwire-lambda-examples"
)

// Options configures schema validation.
type Options struct {
	// Strict reports properties the schema does not know as warnings.
	Strict bool
}

// Issue is one schema violation.
type Issue struct {
	Resource string
	Property string
	Message  string
}

func (i Issue) String() string {
	if i.Property == "" {
		return i.Resource + ": " + i.Message
	}
	return i.Resource + "." + i.Property + ": " + i.Message
}

// Result contains schema validation results.
type Result struct {
	Valid    bool
	Errors   []Issue
	Warnings []Issue
}

// ValidateTemplate checks every resource of t. Resources are visited in name
// order so the issues are stable.
func ValidateTemplate(t *wetwire.Template, opts Options) *Result {
	result := &Result{Valid: true}

	names := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		errs, warnings := validateResource(name, t.Resources[name], opts)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warnings...)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func validateResource(name string, resource wetwire.ResourceDef, opts Options) ([]Issue, []Issue) {
	var errs, warnings []Issue

	if !isValidResourceType(resource.Type) {
		errs = append(errs, Issue{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("invalid resource type format: %s", resource.Type),
		})
		return errs, warnings
	}

	schema, ok := resourceSchemas[resource.Type]
	if !ok {
		warnings = append(warnings, Issue{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("no schema for %s", resource.Type),
		})
		return errs, warnings
	}

	for _, required := range schema.Required {
		if _, exists := resource.Properties[required]; !exists {
			errs = append(errs, Issue{
				Resource: name,
				Property: required,
				Message:  "missing required property",
			})
		}
	}

	props := make([]string, 0, len(resource.Properties))
	for p := range resource.Properties {
		props = append(props, p)
	}
	sort.Strings(props)

	for _, propName := range props {
		propSchema, ok := schema.Properties[propName]
		if !ok {
			if opts.Strict {
				warnings = append(warnings, Issue{
					Resource: name,
					Property: propName,
					Message:  "unknown property",
				})
			}
			continue
		}
		errs = append(errs, validateProperty(name, propName, resource.Properties[propName], propSchema)...)
	}

	return errs, warnings
}

// isValidResourceType checks the AWS::Service::Resource shape.
func isValidResourceType(resourceType string) bool {
	if strings.HasPrefix(resourceType, "Custom::") {
		return true
	}
	parts := strings.Split(resourceType, "::")
	if len(parts) != 3 {
		return false
	}
	return parts[0] == "AWS"
}

func validateProperty(resource, property string, value any, schema PropertySchema) []Issue {
	var errs []Issue

	if !isValidType(value, schema.Type) {
		return append(errs, Issue{
			Resource: resource,
			Property: property,
			Message:  fmt.Sprintf("expected type %s", schema.Type),
		})
	}

	if len(schema.AllowedValues) > 0 {
		values := []any{value}
		if list, ok := value.([]any); ok {
			values = list
		}
		for _, v := range values {
			s, ok := v.(string)
			if ok && !slices.Contains(schema.AllowedValues, s) {
				errs = append(errs, Issue{
					Resource: resource,
					Property: property,
					Message:  fmt.Sprintf("value %q not in allowed values: %v", s, schema.AllowedValues),
				})
			}
		}
	}

	if schema.MaxItems > 0 {
		if list, ok := value.([]any); ok && len(list) > schema.MaxItems {
			errs = append(errs, Issue{
				Resource: resource,
				Property: property,
				Message:  fmt.Sprintf("%d items, at most %d allowed", len(list), schema.MaxItems),
			})
		}
	}

	if schema.Min != 0 || schema.Max != 0 {
		if n, ok := toInt(value); ok && (n < schema.Min || n > schema.Max) {
			errs = append(errs, Issue{
				Resource: resource,
				Property: property,
				Message:  fmt.Sprintf("%d is outside %d..%d", n, schema.Min, schema.Max),
			})
		}
	}

	return errs
}

// isValidType checks if a value matches the expected type. Intrinsic
// functions are accepted for every type.
func isValidType(value any, expectedType string) bool {
	if m, ok := value.(map[string]any); ok {
		for key := range m {
			if strings.HasPrefix(key, "Fn::") || key == "Ref" {
				return true
			}
		}
	}

	switch expectedType {
	case "String":
		_, ok := value.(string)
		return ok
	case "Integer":
		_, ok := toInt(value)
		return ok
	case "Boolean":
		_, ok := value.(bool)
		return ok
	case "List":
		_, ok := value.([]any)
		return ok
	case "Map":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

// Package validation checks a synthesized stack template.
//
// Three passes are run:
//   - stack checks: the schedule rule targets every function exactly once
//     with the fixed retry policy, within the EventBridge target limit
//   - schema: property types and allowed values of the emitted resource types
//   - cfn-lint-go: CloudFormation schema and best-practice rules
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"

	wetwire "github.com/lex00/wetwire-lambda-examples"
	"github.com/lex00/wetwire-lambda-examples/internal/schema"
	"github.com/lex00/wetwire-lambda-examples/internal/template"
)

const (
	functionType = "AWS::Lambda::Function"
	ruleType     = "AWS::Events::Rule"
)

// CfnLintResult contains the result of running cfn-lint.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// Limits are the values the stack checks enforce.
type Limits struct {
	MaxTargets    int
	RetryAttempts int
}

// Validate runs the stack checks and cfn-lint on t.
func Validate(t *wetwire.Template, limits Limits) (*wetwire.ValidateResult, error) {
	result := &wetwire.ValidateResult{Resources: len(t.Resources)}
	result.Errors = append(result.Errors, CheckStack(t, limits)...)

	schemaResult := schema.ValidateTemplate(t, schema.Options{})
	for _, issue := range schemaResult.Errors {
		result.Errors = append(result.Errors, issue.String())
	}
	for _, issue := range schemaResult.Warnings {
		result.Warnings = append(result.Warnings, issue.String())
	}

	lintResult, err := LintTemplate(t)
	if err != nil {
		return nil, err
	}
	result.Errors = append(result.Errors, lintResult.Errors...)
	result.Warnings = append(result.Warnings, lintResult.Warnings...)

	result.Success = len(result.Errors) == 0
	return result, nil
}

// CheckStack verifies the wiring between the schedule rules and the
// functions of t. It returns one message per problem.
func CheckStack(t *wetwire.Template, limits Limits) []string {
	var problems []string
	targeted := make(map[string]int)

	for _, name := range sortedNames(t, ruleType) {
		targets, _ := t.Resources[name].Properties["Targets"].([]any)
		if limits.MaxTargets > 0 && len(targets) > limits.MaxTargets {
			problems = append(problems, fmt.Sprintf("%s: %d targets, the limit is %d", name, len(targets), limits.MaxTargets))
		}

		for i, raw := range targets {
			target, _ := raw.(map[string]any)
			if fn := getAttResource(target["Arn"]); fn != "" {
				targeted[fn]++
			} else {
				problems = append(problems, fmt.Sprintf("%s: target %d is not a function ARN", name, i))
			}

			retry, _ := target["RetryPolicy"].(map[string]any)
			if got, ok := toInt(retry["MaximumRetryAttempts"]); !ok || got != limits.RetryAttempts {
				problems = append(problems, fmt.Sprintf("%s: target %d retries %v times, want %d",
					name, i, retry["MaximumRetryAttempts"], limits.RetryAttempts))
			}
		}
	}

	for _, name := range sortedNames(t, functionType) {
		props := t.Resources[name].Properties
		if archs, _ := props["Architectures"].([]any); len(archs) != 1 {
			problems = append(problems, fmt.Sprintf("%s: expected exactly one architecture, got %d", name, len(archs)))
		}
		switch n := targeted[name]; {
		case n == 0:
			problems = append(problems, fmt.Sprintf("%s: not targeted by any rule", name))
		case n > 1:
			problems = append(problems, fmt.Sprintf("%s: targeted %d times", name, n))
		}
	}

	return problems
}

// LintTemplate writes t to a temporary file and runs cfn-lint-go on it.
func LintTemplate(t *wetwire.Template) (*CfnLintResult, error) {
	data, err := template.ToJSON(t)
	if err != nil {
		return nil, fmt.Errorf("serializing template: %w", err)
	}

	dir, err := os.MkdirTemp("", "lambda-examples-lint-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "template.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing template: %w", err)
	}
	return RunCfnLint(path)
}

// RunCfnLint runs cfn-lint-go on the given template file.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
		}, nil
	}

	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}

	for _, match := range matches {
		formatted := formatMatch(match)

		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	// Warnings are acceptable.
	result.Passed = len(result.Errors) == 0
	return result, nil
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match lint.Match) string {
	if len(match.Location.Path) == 0 {
		return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
	}

	parts := make([]string, len(match.Location.Path))
	for i, p := range match.Location.Path {
		parts[i] = fmt.Sprintf("%v", p)
	}
	return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, strings.Join(parts, "/"))
}

func sortedNames(t *wetwire.Template, resourceType string) []string {
	var names []string
	for name, def := range t.Resources {
		if def.Type == resourceType {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// getAttResource returns the resource of an Fn::GetAtt value, or "".
func getAttResource(v any) string {
	m, _ := v.(map[string]any)
	args, _ := m["Fn::GetAtt"].([]any)
	if len(args) != 2 {
		return ""
	}
	name, _ := args[0].(string)
	return name
}

// toInt accepts the numeric types produced by the serializer and by JSON.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), n == float64(int(n))
	default:
		return 0, false
	}
}

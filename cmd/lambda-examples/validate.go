package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-lambda-examples"
	"github.com/lex00/wetwire-lambda-examples/internal/differ"
	"github.com/lex00/wetwire-lambda-examples/internal/stack"
	"github.com/lex00/wetwire-lambda-examples/internal/validation"
)

// newValidateCmd creates the "validate" subcommand.
func newValidateCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		manifest     string
	)

	cmd := &cobra.Command{
		Use:   "validate [template]",
		Short: "Check the stack template",
		Long: `Validate synthesizes the stack, or loads the given template file, and
checks it.

Checks performed:
  - Every function is the target of exactly one schedule rule
  - Rules have at most 5 targets, each retried 2 times
  - Every function declares exactly one architecture
  - cfn-lint rules

Examples:
    lambda-examples validate
    lambda-examples validate template.json --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tmpl *wetwire.Template
			if len(args) == 1 {
				t, err := differ.LoadTemplate(args[0])
				if err != nil {
					return err
				}
				tmpl = t
			} else {
				t, result, err := synthesizeProject(opts, manifest)
				if err != nil {
					return err
				}
				if !result.Success {
					return outputValidateResult(cmd.OutOrStdout(), wetwire.ValidateResult{Errors: result.Errors}, outputFormat)
				}
				tmpl = t
			}

			result, err := validation.Validate(tmpl, validation.Limits{
				MaxTargets:    stack.MaxTargetsPerRule,
				RetryAttempts: stack.RetryAttempts,
			})
			if err != nil {
				return err
			}
			return outputValidateResult(cmd.OutOrStdout(), *result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&manifest, "manifest", "", "Asset manifest written by bundle")

	return cmd
}

// synthesizeProject loads the project and renders its stack.
func synthesizeProject(opts *globalOptions, manifest string) (*wetwire.Template, wetwire.BuildResult, error) {
	p, err := loadProject(opts)
	if err != nil {
		return nil, wetwire.BuildResult{}, err
	}
	defer func() { _ = p.logger.Sync() }()

	assets, err := resolver(manifest)
	if err != nil {
		return nil, wetwire.BuildResult{}, err
	}
	st, err := p.stack(assets)
	if err != nil {
		return nil, wetwire.BuildResult{}, err
	}
	result := synthesize(st)
	return &result.Template, result, nil
}

func outputValidateResult(w io.Writer, result wetwire.ValidateResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Success {
			fmt.Fprintf(w, "Validation passed: %d resources OK\n", result.Resources)
			for _, warnMsg := range result.Warnings {
				fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
			}
			return nil
		}

		fmt.Fprintln(w, "Validation FAILED:")
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range result.Warnings {
			fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return errors.New("validation failed")
	}
	return nil
}

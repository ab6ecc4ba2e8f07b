package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-lambda-examples"
	"github.com/lex00/wetwire-lambda-examples/internal/template"
)

type synthOptions struct {
	format     string
	outputFile string
	manifest   string
}

func newSynthCmd(opts *globalOptions) *cobra.Command {
	var sOpts synthOptions

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Generate the CloudFormation template",
		Long: `Synth binds every function of the configured sets to the hourly rule and
prints the CloudFormation template.

Archive keys are the build fingerprints of the function sources. Pass the
manifest written by bundle to use recorded keys instead.

Examples:
    lambda-examples synth
    lambda-examples synth -f yaml -o template.yaml
    lambda-examples synth --manifest lambda.out/manifest.json
    lambda-examples synth -f result`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynth(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, sOpts)
		},
	}

	cmd.Flags().StringVarP(&sOpts.format, "format", "f", "json", "Output format: json, yaml or result")
	cmd.Flags().StringVarP(&sOpts.outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&sOpts.manifest, "manifest", "", "Asset manifest written by bundle")

	return cmd
}

func runSynth(stdout, stderr io.Writer, opts *globalOptions, sOpts synthOptions) error {
	_, result, err := synthesizeProject(opts, sOpts.manifest)
	if err != nil {
		return err
	}
	return outputResult(stdout, stderr, result, sOpts.format, sOpts.outputFile)
}

func outputResult(stdout, stderr io.Writer, result wetwire.BuildResult, format, outputFile string) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case "result":
		data, err = json.MarshalIndent(result, "", "  ")
	case "json", "yaml":
		if !result.Success {
			for _, e := range result.Errors {
				fmt.Fprintln(stderr, e)
			}
			return errors.New("synth failed")
		}
		if format == "json" {
			data, err = template.ToJSON(&result.Template)
		} else {
			data, err = template.ToYAML(&result.Template)
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return err
	}

	if outputFile == "" {
		if _, err := fmt.Fprintln(stdout, string(data)); err != nil {
			return err
		}
	} else if err := os.WriteFile(outputFile, data, 0o644); err != nil {
		return err
	}

	if !result.Success {
		return errors.New("synth failed")
	}
	return nil
}

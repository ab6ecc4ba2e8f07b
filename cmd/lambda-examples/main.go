// Command lambda-examples synthesizes, bundles and publishes the Lambda
// runtime examples stack.
//
// Usage:
//
//	lambda-examples synth             Generate the CloudFormation template
//	lambda-examples list              List the deployable functions
//	lambda-examples bundle            Build every function archive
//	lambda-examples publish           Build and upload the archives
//	lambda-examples validate          Check the synthesized template
//	lambda-examples graph             Render the resource dependency graph
//	lambda-examples diff <a> <b>      Compare two templates
//	lambda-examples watch             Resynthesize when function sources change
//	lambda-examples version           Show version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-lambda-examples/internal/config"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "lambda-examples",
		Short: "Build and deploy the Lambda runtime examples",
		Long: `lambda-examples declares the Lambda runtime example functions as Go values.

Each function set (dotnet, rust, scraper) expands to a fixed matrix of
architectures and build variants. Every function is invoked by one hourly
EventBridge rule with two retry attempts.

    lambda-examples bundle
    lambda-examples synth -o template.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultFile, "Config file")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging and build output")

	rootCmd.AddCommand(
		newSynthCmd(opts),
		newListCmd(opts),
		newBundleCmd(opts),
		newPublishCmd(opts),
		newValidateCmd(opts),
		newGraphCmd(opts),
		newDiffCmd(),
		newWatchCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lambda-examples %s\n", getVersion())
		},
	}
}

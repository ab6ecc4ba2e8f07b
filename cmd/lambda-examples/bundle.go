package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lex00/wetwire-lambda-examples/internal/bundle"
)

type bundleOptions struct {
	parallelism int
	stageDir    string
	pull        bool
}

func (o bundleOptions) apply(p *project) {
	if o.parallelism > 0 {
		p.cfg.Bundling.Parallelism = o.parallelism
	}
	if o.stageDir != "" {
		p.cfg.Bundling.StageDir = o.stageDir
	}
	if o.pull {
		p.cfg.Bundling.Pull = true
	}
}

func addBundleFlags(cmd *cobra.Command, o *bundleOptions) {
	cmd.Flags().IntVarP(&o.parallelism, "parallelism", "j", 0, "Concurrent build containers (default from config)")
	cmd.Flags().StringVar(&o.stageDir, "stage-dir", "", "Directory receiving the archives (default from config)")
	cmd.Flags().BoolVar(&o.pull, "pull", false, "Pull build images before every run")
}

func newBundleCmd(opts *globalOptions) *cobra.Command {
	var bOpts bundleOptions

	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Build every function archive",
		Long: `Bundle runs each function's build recipe in a container and stages the
resulting zip archive under the stage directory. Archives whose fingerprint
is already staged are reused.

The object key of every archive is recorded in manifest.json next to them.

Examples:
    lambda-examples bundle
    lambda-examples bundle -j 4 --pull`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(opts)
			if err != nil {
				return err
			}
			defer func() { _ = p.logger.Sync() }()
			bOpts.apply(p)

			assets, err := runBundle(cmd.Context(), p, logWriter(opts, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			printAssets(cmd.OutOrStdout(), p, assets)
			return nil
		},
	}

	addBundleFlags(cmd, &bOpts)

	return cmd
}

// runBundle builds every unit with Docker and writes the manifest.
func runBundle(ctx context.Context, p *project, logs io.Writer) ([]bundle.Asset, error) {
	runner, err := bundle.NewDockerRunner(p.cfg.Bundling.DockerHost)
	if err != nil {
		return nil, err
	}
	defer func() { _ = runner.Close() }()
	runner.Pull = p.cfg.Bundling.Pull

	return bundleWith(ctx, p, runner, logs)
}

func bundleWith(ctx context.Context, p *project, runner bundle.ContainerRunner, logs io.Writer) ([]bundle.Asset, error) {
	b := &bundle.Bundler{
		Runner:   runner,
		StageDir: p.cfg.Bundling.StageDir,
		Logs:     logs,
		Logger:   p.logger,
	}

	p.logger.Info("bundling functions",
		zap.Int("functions", len(p.units)),
		zap.Int("parallelism", p.cfg.Bundling.Parallelism))

	assets, err := b.BundleAll(ctx, p.specs(), p.cfg.Bundling.Parallelism)
	if err != nil {
		return nil, err
	}
	if err := writeManifest(p.manifestPath(), p.units, assets); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}
	return assets, nil
}

func printAssets(w io.Writer, p *project, assets []bundle.Asset) {
	fmt.Fprintf(w, "Bundled %d functions into %s:\n\n", len(assets), p.cfg.Bundling.StageDir)
	for i, a := range assets {
		suffix := ""
		if a.Cached {
			suffix = " (cached)"
		}
		fmt.Fprintf(w, "  %-24s %s%s\n", p.units[i].ID, a.Key, suffix)
	}
}

// logWriter is where build container output goes: stderr when verbose.
func logWriter(opts *globalOptions, stderr io.Writer) io.Writer {
	if opts.verbose {
		return stderr
	}
	return io.Discard
}

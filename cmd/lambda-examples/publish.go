package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-lambda-examples/internal/assets"
	"github.com/lex00/wetwire-lambda-examples/internal/bundle"
)

func newPublishCmd(opts *globalOptions) *cobra.Command {
	var bOpts bundleOptions

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Build and upload the function archives",
		Long: `Publish bundles every function, then uploads each archive to the asset
bucket under its content-addressed key. Keys already in the bucket are left
untouched.

The bucket is read from the assets section of the config or from the
LAMBDA_EXAMPLES_ASSETS_* environment variables.

Examples:
    lambda-examples publish
    LAMBDA_EXAMPLES_ASSETS_BUCKET=my-assets lambda-examples publish`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(opts)
			if err != nil {
				return err
			}
			defer func() { _ = p.logger.Sync() }()
			bOpts.apply(p)

			if err := p.cfg.Assets.Validate(); err != nil {
				return err
			}
			store, err := assets.NewMinioStore(p.cfg.Assets)
			if err != nil {
				return err
			}
			if err := store.CheckBucket(cmd.Context(), p.cfg.Assets.Bucket); err != nil {
				return err
			}

			staged, err := runBundle(cmd.Context(), p, logWriter(opts, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			return runPublish(cmd.Context(), cmd.OutOrStdout(), p, store, staged)
		},
	}

	addBundleFlags(cmd, &bOpts)

	return cmd
}

func runPublish(ctx context.Context, w io.Writer, p *project, store assets.ObjectStore, staged []bundle.Asset) error {
	publisher := &assets.Publisher{
		Store:       store,
		Bucket:      p.cfg.Assets.Bucket,
		Prefix:      p.cfg.Assets.Prefix,
		Logger:      p.logger,
		Parallelism: p.cfg.Bundling.Parallelism,
	}

	published, err := publisher.Publish(ctx, staged)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Published to s3://%s:\n\n", p.cfg.Assets.Bucket)
	for _, pub := range published {
		status := "uploaded"
		if pub.Skipped {
			status = "exists"
		}
		fmt.Fprintf(w, "  %-8s %s\n", status, pub.Key)
	}
	return nil
}

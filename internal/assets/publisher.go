package assets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lex00/wetwire-lambda-examples/internal/bundle"
)

// Published is the outcome of publishing one asset.
type Published struct {
	Asset bundle.Asset
	Key   string
	// Skipped is true when the object already existed.
	Skipped bool
}

// Publisher uploads staged archives under their content-addressed keys.
type Publisher struct {
	Store  ObjectStore
	Bucket string
	Prefix string
	Logger *zap.Logger
	// Parallelism bounds concurrent uploads. Defaults to 4.
	Parallelism int
}

// Publish uploads every asset not already present in the bucket. Keys are
// content addresses, so an existing object is never overwritten.
func (p *Publisher) Publish(ctx context.Context, assets []bundle.Asset) ([]Published, error) {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	limit := p.Parallelism
	if limit < 1 {
		limit = 4
	}

	results := make([]Published, len(assets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, asset := range assets {
		g.Go(func() error {
			key := p.Prefix + asset.Key
			result := Published{Asset: asset, Key: key}

			_, err := p.Store.Stat(ctx, p.Bucket, key)
			switch {
			case err == nil:
				log.Debug("asset already published", zap.String("key", key))
				result.Skipped = true
				results[i] = result
				return nil
			case !errors.Is(err, ErrNotFound):
				return fmt.Errorf("checking %s: %w", key, err)
			}

			info, err := p.Store.PutFile(ctx, p.Bucket, key, asset.Path, "application/zip")
			if err != nil {
				return fmt.Errorf("uploading %s: %w", key, err)
			}
			log.Info("asset published",
				zap.String("bucket", p.Bucket),
				zap.String("key", key),
				zap.Int64("size", info.Size),
			)
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-lambda-examples/internal/functions"
	"github.com/lex00/wetwire-lambda-examples/internal/stack"
)

// skipDirs are build output directories that never hold sources.
var skipDirs = map[string]bool{
	"bin":          true,
	"obj":          true,
	"target":       true,
	"vendor":       true,
	"node_modules": true,
}

// newWatchCmd creates the "watch" subcommand for re-synthesizing on source changes.
func newWatchCmd(opts *globalOptions) *cobra.Command {
	var (
		debounce     time.Duration
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-synthesize when function sources change",
		Long: `Watch monitors the source directory of every function and synthesizes the
template again after each change. Archive keys follow the source
fingerprints, so edited functions show a new Code.S3Key.

Examples:
    lambda-examples watch -o template.json
    lambda-examples watch --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, watchOptions{
				debounce: debounce,
				synth:    synthOptions{format: outputFormat, outputFile: outputFile},
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

type watchOptions struct {
	debounce time.Duration
	synth    synthOptions
}

func runWatch(ctx context.Context, stdout, stderr io.Writer, opts *globalOptions, wOpts watchOptions) error {
	p, err := loadProject(opts)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	dirs, err := sourceDirs(p.units)
	if err != nil {
		return err
	}
	skip := map[string]bool{filepath.Base(p.cfg.Bundling.StageDir): true}
	for _, dir := range dirs {
		if err := addDirRecursive(watcher, dir, skip); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		fmt.Fprintf(stderr, "Watching: %s\n", dir)
	}

	resynth := func() {
		if err := runSynth(stdout, stderr, opts, wOpts.synth); err != nil {
			fmt.Fprintf(stderr, "Synth error: %v\n", err)
		}
	}

	// Only fingerprint changes resynthesize, so writing the template into a
	// watched directory does not loop.
	last, _ := assetKeys(p.units)
	resynth()

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	fmt.Fprintln(stderr, "\nWatching for changes... (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(wOpts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			keys, err := assetKeys(p.units)
			if err == nil && maps.Equal(keys, last) {
				continue
			}
			last = keys
			fmt.Fprintf(stderr, "\n[%s] Change detected, synthesizing...\n", time.Now().Format("15:04:05"))
			resynth()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(stderr, "Watch error: %v\n", err)

		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			fmt.Fprintln(stderr, "\nStopping watch...")
			return nil
		}
	}
}

// sourceDirs returns the absolute build source directories of units, once each.
func sourceDirs(units []functions.Unit) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)

	for _, u := range units {
		abs, err := filepath.Abs(u.Build.SourcePath())
		if err != nil {
			return nil, err
		}
		if !seen[abs] {
			seen[abs] = true
			dirs = append(dirs, abs)
		}
	}

	return dirs, nil
}

// assetKeys maps unit IDs to the keys their archives are published under.
func assetKeys(units []functions.Unit) (map[string]string, error) {
	keys := make(map[string]string, len(units))
	for _, u := range units {
		key, err := stack.FingerprintAssets{}.AssetKey(u)
		if err != nil {
			return nil, err
		}
		keys[u.ID] = key
	}
	return keys, nil
}

// relevant reports whether an event may change a fingerprint.
func relevant(event fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}

// addDirRecursive adds a directory and its source subdirectories to the watcher.
func addDirRecursive(watcher *fsnotify.Watcher, dir string, skip map[string]bool) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != dir {
			base := filepath.Base(path)
			if strings.HasPrefix(base, ".") || skipDirs[base] || skip[base] {
				return filepath.SkipDir
			}
		}
		return watcher.Add(path)
	})
}

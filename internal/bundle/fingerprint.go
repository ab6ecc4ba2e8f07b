package bundle

import (
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
)

// ignoredDirs are build outputs left out of fingerprints. Hidden directories
// are skipped as well.
var ignoredDirs = map[string]bool{
	"bin":          true,
	"obj":          true,
	"target":       true,
	"node_modules": true,
	"vendor":       true,
}

// Fingerprint computes the content digest of a Spec: the recipe itself plus
// every file under its inputs. Two specs with equal fingerprints produce
// interchangeable artifacts.
func Fingerprint(s Spec) (digest.Digest, error) {
	d := digest.Canonical.Digester()
	h := d.Hash()

	fmt.Fprintf(h, "image=%s\nuser=%s\narch=%s\noutput=%s\ntype=%s\n",
		s.image, s.user, s.architecture, s.outputPath, s.outputType)
	for _, c := range s.command {
		fmt.Fprintf(h, "cmd=%s\n", c)
	}

	root := s.sourcePath
	if len(s.inputs) == 0 {
		if err := hashTree(h, root, root); err != nil {
			return "", fmt.Errorf("fingerprinting %s: %w", root, err)
		}
		return d.Digest(), nil
	}

	if _, err := os.Stat(root); err != nil {
		return "", fmt.Errorf("fingerprinting %s: %w", root, err)
	}
	for _, in := range s.inputs {
		fmt.Fprintf(h, "input=%s\n", in)
		err := hashTree(h, root, filepath.Join(root, filepath.FromSlash(in)))
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(h, "missing=%s\n", in)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("fingerprinting %s: %w", root, err)
		}
	}
	return d.Digest(), nil
}

// hashTree writes every regular file under start into h, named relative to
// root. start may be a single file.
func hashTree(h hash.Hash, root, start string) error {
	return filepath.WalkDir(start, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if p != start && (ignoredDirs[entry.Name()] || strings.HasPrefix(entry.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		fmt.Fprintf(h, "file=%s mode=%o size=%d\n", filepath.ToSlash(rel), info.Mode().Perm(), info.Size())

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(h, f)
		return err
	})
}

// AssetKey returns the object key of an artifact: "<hex digest>.zip".
func AssetKey(dgst digest.Digest) string {
	return dgst.Encoded() + ".zip"
}

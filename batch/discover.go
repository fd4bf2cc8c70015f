package batch

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/pkg/errors"
)

// DefaultPattern matches every bitmap file produced by the fuzzing harness.
const DefaultPattern = "res*_*.bin"

// Discover returns regular files in dir whose names match the glob pattern,
// sorted by path.
func Discover(dir, pattern string) ([]string, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "bitmap directory not found: %s", dir)
	}
	if !st.IsDir() {
		return nil, errors.Errorf("bitmap directory is not a directory: %s", dir)
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid pattern %q", pattern)
	}
	files := matches[:0]
	for _, m := range matches {
		st, err := os.Stat(m)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", m)
		}
		if st.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	slices.Sort(files)
	return files, nil
}

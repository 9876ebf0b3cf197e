package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// LocateRequiredFiles globs each pattern inside dir and returns the matching
// base name per pattern. When several files match, the first in lexical order
// is used.
func LocateRequiredFiles(dir string, patterns []string) (map[string]string, error) {
	found := make(map[string]string, len(patterns))
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, &MissingArtifactError{Dir: dir, Pattern: pattern}
		}
		sort.Strings(matches)
		found[pattern] = filepath.Base(matches[0])
	}
	return found, nil
}

// LocateRequiredFiles is a convenience wrapper around the package function.
func (p *Pipeline) LocateRequiredFiles(dir string, patterns []string) (map[string]string, error) {
	return LocateRequiredFiles(dir, patterns)
}

// Cleanup removes the files in dir and then dir itself. Errors are ignored.
func Cleanup(dir string) {
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		_ = os.RemoveAll(filepath.Join(dir, e.Name()))
	}
	_ = os.Remove(dir)
}

// Cleanup is a convenience wrapper around the package function.
func (p *Pipeline) Cleanup(dir string) {
	Cleanup(dir)
}

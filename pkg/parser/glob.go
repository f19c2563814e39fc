package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ExpandGlobs expands a list of file paths, directories and glob patterns into a
// deduplicated, sorted list of log file paths. A directory contributes the regular
// files directly inside it. Patterns that don't match anything are returned as-is
// so that opening them later produces a useful file-not-found error.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			result = append(result, path)
		}
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			add(pattern)
			continue
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || !info.IsDir() {
				add(match)
				continue
			}

			entries, err := os.ReadDir(match)
			if err != nil {
				return nil, fmt.Errorf("reading log directory %s: %w", match, err)
			}
			for _, entry := range entries {
				if entry.Type().IsRegular() {
					add(filepath.Join(match, entry.Name()))
				}
			}
		}
	}

	// Sort for deterministic ordering
	sort.Strings(result)

	return result, nil
}

package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
	"github.com/bmatcuk/doublestar/v4"
)

// DirectoryPattern selects documents when a directory is given.
const DirectoryPattern = "**/*.md"

// ResolveFiles takes user-provided paths/globs and returns matching files.
// Relative patterns are resolved against root. Directories expand to every
// markdown file beneath them, skipping hidden directories.
// If patterns is empty, returns nil (caller should use default behavior).
func ResolveFiles(patterns []string, root string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	var files []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		resolved, err := resolvePattern(pattern, root)
		if err != nil {
			return nil, err
		}

		for _, f := range resolved {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrNoFilesFound, strings.Join(patterns, ", "))
	}

	return files, nil
}

func resolvePattern(pattern string, root string) ([]string, error) {
	absPattern := pattern
	if !filepath.IsAbs(pattern) {
		absPattern = filepath.Join(root, pattern)
	}

	info, err := os.Stat(absPattern)
	if err == nil && info.IsDir() {
		return findFilesInDir(absPattern)
	}

	if strings.ContainsAny(pattern, "*?[{") {
		return expandGlob(absPattern, pattern)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, pattern)
	}

	return []string{absPattern}, nil
}

func expandGlob(absPattern, pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(absPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}

	var filtered []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		filtered = append(filtered, m)
	}

	return filtered, nil
}

func findFilesInDir(dir string) ([]string, error) {
	var files []string

	err := doublestar.GlobWalk(os.DirFS(dir), DirectoryPattern, func(path string, d os.DirEntry) error {
		if d.IsDir() || !d.Type().IsRegular() || inHiddenDir(path) {
			return nil
		}
		files = append(files, filepath.Join(dir, filepath.FromSlash(path)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	return files, nil
}

func inHiddenDir(path string) bool {
	parts := strings.Split(path, "/")
	for _, part := range parts[:len(parts)-1] {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

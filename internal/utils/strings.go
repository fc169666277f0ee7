package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/sealnote/internal/ui"
)

// FormatPaths formats a slice of paths into a readable string.
func FormatPaths(paths []string) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, path := range paths {
		b.WriteString("    - ")
		b.WriteString(ui.Path.Sprint(DisplayPath(path)))
		b.WriteString("\n")
	}
	return b.String()
}

// DisplayPath shortens path relative to the working directory when it lies beneath it.
func DisplayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

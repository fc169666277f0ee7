package document

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
)

// writeTestFile is a helper to write test files with 0644 permissions.
// #nosec G306 -- Test files are temporary and don't contain sensitive data.
func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil { // #nosec G306
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func TestResolveFiles_EmptyPatterns(t *testing.T) {
	files, err := ResolveFiles([]string{}, t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if files != nil {
		t.Errorf("Expected nil, got: %v", files)
	}
}

func TestResolveFiles_SingleFile(t *testing.T) {
	tmpDir := t.TempDir()
	note := filepath.Join(tmpDir, "note.md")
	writeTestFile(t, note, "hello")

	files, err := ResolveFiles([]string{"note.md"}, tmpDir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(files) != 1 || files[0] != note {
		t.Errorf("Expected [%s], got: %v", note, files)
	}
}

func TestResolveFiles_LiteralNonMarkdown(t *testing.T) {
	tmpDir := t.TempDir()
	txt := filepath.Join(tmpDir, "notes.txt")
	writeTestFile(t, txt, "hello")

	files, err := ResolveFiles([]string{"notes.txt"}, tmpDir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(files) != 1 || files[0] != txt {
		t.Errorf("Expected explicitly named file, got: %v", files)
	}
}

func TestResolveFiles_Directory(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestFile(t, filepath.Join(tmpDir, "journal", "a.md"), "a")
	writeTestFile(t, filepath.Join(tmpDir, "journal", "2024", "b.md"), "b")
	writeTestFile(t, filepath.Join(tmpDir, "journal", "image.png"), "png")
	writeTestFile(t, filepath.Join(tmpDir, "journal", ".git", "c.md"), "hidden")

	files, err := ResolveFiles([]string{"journal"}, tmpDir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	sort.Strings(files)

	want := []string{
		filepath.Join(tmpDir, "journal", "2024", "b.md"),
		filepath.Join(tmpDir, "journal", "a.md"),
	}
	if len(files) != len(want) {
		t.Fatalf("Expected %v, got: %v", want, files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("Expected %s, got: %s", want[i], files[i])
		}
	}
}

func TestResolveFiles_DoubleStarGlob(t *testing.T) {
	tmpDir := t.TempDir()
	for _, p := range []string{"a.md", "x/b.md", "x/y/c.md", "x/y/d.txt"} {
		writeTestFile(t, filepath.Join(tmpDir, filepath.FromSlash(p)), "content")
	}

	files, err := ResolveFiles([]string{"**/*.md"}, tmpDir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("Expected 3 files, got: %v", files)
	}
}

func TestResolveFiles_Deduplication(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestFile(t, filepath.Join(tmpDir, "a.md"), "a")

	files, err := ResolveFiles([]string{"a.md", "*.md", "."}, tmpDir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(files) != 1 {
		t.Errorf("Expected 1 file (deduplicated), got: %v", files)
	}
}

func TestResolveFiles_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := ResolveFiles([]string{"missing.md"}, tmpDir); !errors.Is(err, kerrors.ErrFileNotFound) {
		t.Errorf("Expected ErrFileNotFound, got: %v", err)
	}
	if _, err := ResolveFiles([]string{"*.md"}, tmpDir); !errors.Is(err, kerrors.ErrNoFilesFound) {
		t.Errorf("Expected ErrNoFilesFound, got: %v", err)
	}
}

func TestInHiddenDir(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"a.md", false},
		{".hidden.md", false},
		{"x/y/a.md", false},
		{".git/a.md", true},
		{"x/.obsidian/a.md", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := inHiddenDir(tt.path); got != tt.expected {
				t.Errorf("inHiddenDir(%q) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestFileService(t *testing.T) *FileService {
	t.Helper()
	dir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(dir, "reports"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"notes.md":           "# Notes\nhello\n",
		".hidden":            "secret",
		"reports/latest.txt": "all green",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return NewFileService(dir)
}

func TestFileServiceList(t *testing.T) {
	svc := newTestFileService(t)

	entries, err := svc.List("")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	// Hidden files are excluded
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	for _, entry := range entries {
		if entry.Name == ".hidden" {
			t.Error("hidden file leaked into listing")
		}
	}
}

func TestFileServiceListSubdirectory(t *testing.T) {
	svc := newTestFileService(t)

	entries, err := svc.List("reports")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "latest.txt" {
		t.Errorf("entries = %+v", entries)
	}
	if entries[0].Path != filepath.Join("reports", "latest.txt") {
		t.Errorf("Path = %q", entries[0].Path)
	}
}

func TestFileServiceListMissing(t *testing.T) {
	svc := newTestFileService(t)
	if _, err := svc.List("nope"); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFileServiceContent(t *testing.T) {
	svc := newTestFileService(t)

	content, err := svc.Content("notes.md")
	if err != nil {
		t.Fatalf("Content failed: %v", err)
	}
	if content.Content != "# Notes\nhello\n" {
		t.Errorf("Content = %q", content.Content)
	}
	if content.Truncated {
		t.Error("small file must not be truncated")
	}
}

func TestFileServiceContentRejectsDirectory(t *testing.T) {
	svc := newTestFileService(t)
	if _, err := svc.Content("reports"); err == nil {
		t.Error("expected error when reading a directory")
	}
}

func TestFileServiceContentRejectsBinary(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "blob.bin"), []byte{0xff, 0xfe, 0x00, 0x01}, 0o644); err != nil {
		t.Fatal(err)
	}
	svc := NewFileService(dir)
	if _, err := svc.Content("blob.bin"); err == nil {
		t.Error("expected error for non-text file")
	}
}

func TestFileServiceConfinesTraversal(t *testing.T) {
	svc := newTestFileService(t)

	// Rooting the path before joining clamps every traversal attempt
	// inside the data dir.
	for _, rel := range []string{"..", "../../etc", "reports/../../etc/passwd", "/etc/passwd"} {
		full, err := svc.resolve(rel)
		if err != nil {
			continue
		}
		if full != svc.root && !strings.HasPrefix(full, svc.root+string(filepath.Separator)) {
			t.Errorf("resolve(%q) escaped the root: %q", rel, full)
		}
	}

	// A traversal that lands on a real path outside the root must not
	// reach it: /etc exists, but the request resolves under the data dir.
	if _, err := svc.List("../../etc"); err == nil {
		t.Error("List(\"../../etc\") unexpectedly succeeded")
	}
}

func TestFileServiceContentEmptyFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "empty.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	svc := NewFileService(dir)

	content, err := svc.Content("empty.txt")
	if err != nil {
		t.Fatalf("Content failed on empty file: %v", err)
	}
	if content.Content != "" || content.Truncated {
		t.Errorf("content = %+v", content)
	}
}

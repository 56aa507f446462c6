package textindex

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestIndexTextAndSearch(t *testing.T) {
	ix := New()
	ix.IndexText("doc1", "the authentication service validates user passwords", 50)
	ix.IndexText("doc2", "the billing service charges credit cards", 50)

	results := ix.Search("authenticate user password", 5)
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].SourceID != "doc1" {
		t.Errorf("expected doc1 first, got %s", results[0].SourceID)
	}
	if results[0].Score <= 0 {
		t.Errorf("expected positive score, got %f", results[0].Score)
	}
}

func TestSearchNoSharedTerms(t *testing.T) {
	ix := New()
	ix.IndexText("doc1", "kernel scheduler preemption", 50)

	results := ix.Search("gardening tulips watering", 5)
	if len(results) != 0 {
		t.Errorf("expected no results for disjoint query, got %d", len(results))
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	ix := New()
	ix.IndexText("doc1", "some indexed content", 50)

	if results := ix.Search("", 5); len(results) != 0 {
		t.Errorf("expected empty result for empty query, got %d", len(results))
	}
	if results := ix.Search("... !!!", 5); len(results) != 0 {
		t.Errorf("expected empty result for tokenless query, got %d", len(results))
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	ix := New()
	if results := ix.Search("anything", 5); len(results) != 0 {
		t.Errorf("expected empty result on empty index, got %d", len(results))
	}
}

func TestIndexTextChunkOverlap(t *testing.T) {
	// 10 lines with chunk size 4 should produce overlapping chunks
	// starting at 0, 2, 4, 6, 8.
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, "line content number")
	}
	ix := New()
	ix.IndexText("doc", strings.Join(lines, "\n"), 4)

	if ix.Len() != 5 {
		t.Errorf("expected 5 overlapping chunks, got %d", ix.Len())
	}
}

func TestIndexTextSkipsBlankChunks(t *testing.T) {
	ix := New()
	ix.IndexText("doc", "\n\n\n\n", 2)
	if ix.Len() != 0 {
		t.Errorf("expected 0 chunks for blank text, got %d", ix.Len())
	}
}

func TestSearchDedupBySourceChunk(t *testing.T) {
	ix := New()
	ix.IndexText("doc1", "alpha beta gamma", 50)
	ix.IndexText("doc2", "alpha beta delta", 50)

	results := ix.Search("alpha beta", 10)
	seen := make(map[string]bool)
	for _, r := range results {
		key := r.SourceID + ":" + strconv.Itoa(r.Chunk)
		if seen[key] {
			t.Errorf("duplicate result for %s chunk %d", r.SourceID, r.Chunk)
		}
		seen[key] = true
	}
}

func writeTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestIndexFolder(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "auth.go", "func authenticateUser(password string) error {\n\treturn checkPassword(password)\n}")
	writeTestFile(t, dir, "billing.go", "func chargeCard(amount int) error {\n\treturn nil\n}")
	writeTestFile(t, dir, "readme.md", "# Project\nA sample project for testing.")

	ix := New()
	n := ix.IndexFolder(dir, DefaultFolderOptions())
	if n == 0 {
		t.Fatal("expected chunks indexed")
	}

	results := ix.Search("authenticate user password", 3)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].SourceID != "auth.go" {
		t.Errorf("expected auth.go ranked first, got %s", results[0].SourceID)
	}
}

func TestIndexFolderReturnsChunkCount(t *testing.T) {
	dir := t.TempDir()
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, fmt.Sprintf("line %d content", i))
	}
	writeTestFile(t, dir, "one.go", strings.Join(lines, "\n"))

	opts := DefaultFolderOptions()
	opts.ChunkLines = 10

	// 30 lines at chunk size 10 with 50% overlap: starts 0,5,...,25.
	ix := New()
	n := ix.IndexFolder(dir, opts)
	if n != ix.Len() {
		t.Errorf("IndexFolder returned %d, want chunk count %d", n, ix.Len())
	}
	if n != 6 {
		t.Errorf("expected 6 overlapping chunks, got %d", n)
	}
}

func TestIndexFolderNonexistent(t *testing.T) {
	ix := New()
	if n := ix.IndexFolder("/nonexistent/path/for/test", DefaultFolderOptions()); n != 0 {
		t.Errorf("expected 0 chunks for nonexistent folder, got %d", n)
	}
}

func TestIndexFolderEmpty(t *testing.T) {
	ix := New()
	if n := ix.IndexFolder(t.TempDir(), DefaultFolderOptions()); n != 0 {
		t.Errorf("expected 0 chunks for empty folder, got %d", n)
	}
}

func TestIndexFolderSkipsHiddenAndUnrecognized(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, ".hidden.go", "func hiddenSecret() {}")
	writeTestFile(t, dir, "binary.exe", "hiddenSecret content")
	writeTestFile(t, dir, "code.go", "func visible() {}")

	ix := New()
	ix.IndexFolder(dir, DefaultFolderOptions())

	if results := ix.Search("hiddenSecret", 5); len(results) != 0 {
		t.Errorf("hidden/unrecognized files should not be indexed, got %d results", len(results))
	}
	if results := ix.Search("visible", 5); len(results) == 0 {
		t.Error("expected code.go to be indexed")
	}
}

func TestIndexFolderSkipsSymlinks(t *testing.T) {
	outside := t.TempDir()
	writeTestFile(t, outside, "secret.go", "func escapedViaSymlink() {}")

	dir := t.TempDir()
	writeTestFile(t, dir, "code.go", "func normal() {}")
	if err := os.Symlink(filepath.Join(outside, "secret.go"), filepath.Join(dir, "link.go")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	ix := New()
	ix.IndexFolder(dir, DefaultFolderOptions())

	if results := ix.Search("escapedViaSymlink", 5); len(results) != 0 {
		t.Error("symlinked file should not be indexed")
	}
}

func TestIndexFolderSkipsDependencyDirs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "node_modules")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, sub, "dep.js", "function vendoredDependency() {}")
	writeTestFile(t, dir, "app.js", "function application() {}")

	ix := New()
	ix.IndexFolder(dir, DefaultFolderOptions())

	if results := ix.Search("vendoredDependency", 5); len(results) != 0 {
		t.Error("node_modules should be skipped")
	}
}

func TestIndexFolderResetsPriorContent(t *testing.T) {
	dir1 := t.TempDir()
	writeTestFile(t, dir1, "first.go", "func firstFolderMarker() {}")
	dir2 := t.TempDir()
	writeTestFile(t, dir2, "second.go", "func secondFolderMarker() {}")

	ix := New()
	ix.IndexFolder(dir1, DefaultFolderOptions())
	ix.IndexFolder(dir2, DefaultFolderOptions())

	if results := ix.Search("firstFolderMarker", 5); len(results) != 0 {
		t.Error("re-indexing a folder should replace prior folder content")
	}
}

func TestIndexFolderProgressCallback(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.go", "package a")
	writeTestFile(t, dir, "b.go", "package b")

	var seen []string
	opts := DefaultFolderOptions()
	opts.Progress = func(path string) { seen = append(seen, path) }

	ix := New()
	ix.IndexFolder(dir, opts)
	if len(seen) != 2 {
		t.Errorf("expected 2 progress callbacks, got %d (%v)", len(seen), seen)
	}
}

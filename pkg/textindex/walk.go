package textindex

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// codeExtensions is the set of file extensions recognized during folder
// indexing. Everything else is skipped.
var codeExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".java": true, ".c": true, ".cpp": true, ".h": true, ".cs": true,
	".go": true, ".rs": true, ".rb": true, ".php": true,
	".html": true, ".css": true, ".scss": true,
	".json": true, ".yaml": true, ".yml": true, ".toml": true,
	".md": true, ".txt": true, ".sh": true, ".bat": true,
}

// skipDirs is the set of build/dependency directories skipped during
// folder indexing.
var skipDirs = map[string]bool{
	"__pycache__":   true,
	".git":          true,
	"node_modules":  true,
	".venv":         true,
	"venv":          true,
	"env":           true,
	".mypy_cache":   true,
	".pytest_cache": true,
	".ruff_cache":   true,
	"dist":          true,
	"build":         true,
	".tox":          true,
	".eggs":         true,
	"vendor":        true,
	"target":        true,
}

// FolderOptions control folder indexing.
type FolderOptions struct {
	// MaxDepth bounds directory recursion. Default: 4.
	MaxDepth int

	// ChunkLines is the chunk length for indexed files. Default: 50.
	ChunkLines int

	// MaxFiles caps how many files are read. Default: 500.
	MaxFiles int

	// Progress, if set, is called once per file read. Used by the CLI to
	// drive a progress bar.
	Progress func(path string)
}

// DefaultFolderOptions returns the standard folder indexing parameters.
func DefaultFolderOptions() FolderOptions {
	return FolderOptions{
		MaxDepth:   4,
		ChunkLines: 50,
		MaxFiles:   500,
	}
}

// IndexFolder resets the index and indexes every recognized code/text file
// under root, returning the total number of chunks indexed. Hidden entries,
// build/dependency directories, and symlinks are skipped — symlinks in
// particular so an untrusted tree cannot pull in files outside root.
// A nonexistent or empty folder yields 0; unreadable files are skipped.
func (ix *Index) IndexFolder(root string, opts FolderOptions) int {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 4
	}
	if opts.ChunkLines <= 0 {
		opts.ChunkLines = 50
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = 500
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return 0
	}

	ix.docs = ix.docs[:0]
	ix.built = false

	files := 0
	for _, path := range walkFiles(root, opts.MaxDepth, 0) {
		if files >= opts.MaxFiles {
			break
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		files++

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		if opts.Progress != nil {
			opts.Progress(rel)
		}
		ix.addChunks(rel, string(data), opts.ChunkLines)
	}

	ix.buildIDF()
	return len(ix.docs)
}

// walkFiles collects indexable files under dir, depth-first, entries sorted
// case-insensitively for deterministic output.
func walkFiles(dir string, maxDepth, depth int) []string {
	if depth > maxDepth {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			continue
		}
		path := filepath.Join(dir, name)
		if entry.IsDir() {
			if skipDirs[name] {
				continue
			}
			files = append(files, walkFiles(path, maxDepth, depth+1)...)
			continue
		}
		if entry.Type().IsRegular() && codeExtensions[filepath.Ext(name)] {
			files = append(files, path)
		}
	}
	return files
}

package filesystem

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultIgnoreDirs are directories of build output, dependencies and
// tooling state that never hold project sources.
var DefaultIgnoreDirs = []string{
	"node_modules", ".git", ".svn", ".hg",
	"dist", "build", "out", "coverage",
	".next", ".turbo", ".cache",
	".idea", ".vscode", ".vs",
}

// WalkOptions configures directory traversal behavior
type WalkOptions struct {
	IgnoreDirs     []string // Directory names to skip (default: DefaultIgnoreDirs)
	IgnorePatterns []string // File name patterns to skip (e.g., "*.d.ts")
	IncludeHidden  bool     // Include hidden files/dirs (default: false)
}

// Walk traverses a directory tree with configurable ignore rules.
// The visitor is called for each file and directory that is not ignored.
// Return filepath.SkipDir from visitor to skip a directory.
func Walk(rootPath string, opts WalkOptions, visitor func(path string, d fs.DirEntry) error) error {
	ignoreDirs := opts.IgnoreDirs
	if ignoreDirs == nil {
		ignoreDirs = DefaultIgnoreDirs
	}

	return filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !opts.IncludeHidden && strings.HasPrefix(d.Name(), ".") && path != rootPath {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != rootPath {
				for _, ignore := range ignoreDirs {
					if d.Name() == ignore {
						return filepath.SkipDir
					}
				}
			}
			return visitor(path, d)
		}

		for _, pattern := range opts.IgnorePatterns {
			if matched, _ := filepath.Match(pattern, d.Name()); matched {
				return nil
			}
		}

		return visitor(path, d)
	})
}

// FindFiles returns the files under rootPath whose extension is one of
// exts, sorted.
func FindFiles(rootPath string, opts WalkOptions, exts ...string) ([]string, error) {
	var files []string
	err := Walk(rootPath, opts, func(path string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		for _, want := range exts {
			if ext == want {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

package project

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/simonhull/firebird-suite/wren/pkg/filesystem"
)

var (
	tsExtensions = []string{".ts", ".tsx", ".mts", ".cts"}
	jsExtensions = []string{".js", ".jsx", ".mjs", ".cjs"}
)

// Extensions returns the source extensions the project compiles.
func (p *Project) Extensions() []string {
	if p.Config.AllowJS {
		return append(append([]string{}, tsExtensions...), jsExtensions...)
	}
	return tsExtensions
}

// SourceFiles lists the project's source files: files entries plus
// everything matched by include and not by exclude, without declaration
// files. The result is sorted.
func (p *Project) SourceFiles() ([]string, error) {
	set := make(map[string]bool)
	for _, f := range p.Config.Files {
		if fileExists(f) {
			set[f] = true
		}
	}

	exts := p.Extensions()
	walked := make(map[string]bool)
	for _, include := range p.Config.Include {
		base, _ := doublestar.SplitPattern(include)
		base = filepath.FromSlash(base)
		if walked[base] {
			continue
		}
		walked[base] = true

		err := filesystem.Walk(base, filesystem.WalkOptions{
			IgnoreDirs:     []string{"node_modules", ".git"},
			IgnorePatterns: []string{"*.d.ts", "*.d.mts", "*.d.cts"},
		}, func(path string, d fs.DirEntry) error {
			if d.IsDir() || !hasExtension(path, exts) {
				return nil
			}
			if p.included(path) {
				set[path] = true
			}
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	files := make([]string, 0, len(set))
	for f := range set {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

func (p *Project) included(path string) bool {
	slash := filepath.ToSlash(path)
	matched := false
	for _, pattern := range p.Config.Include {
		if ok, _ := doublestar.Match(pattern, slash); ok {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, pattern := range p.Config.Exclude {
		if ok, _ := doublestar.Match(pattern, slash); ok {
			return false
		}
	}
	return true
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range exts {
		if ext == want {
			return true
		}
	}
	return false
}

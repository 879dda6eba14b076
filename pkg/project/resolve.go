package project

import (
	"path/filepath"
	"sort"
	"strings"
)

// probe order when a specifier has no usable extension
var probeExtensions = []string{".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"}

// emitted JavaScript extensions and the sources they come from
var sourceFor = map[string][]string{
	".js":  {".ts", ".tsx"},
	".jsx": {".tsx"},
	".mjs": {".mts"},
	".cjs": {".cts"},
}

// Resolve maps an import specifier written in fromFile to a source file
// path. Bare package imports that no paths mapping or baseUrl covers
// are not resolved.
func (p *Project) Resolve(fromFile, specifier string) (string, bool) {
	if isRelative(specifier) || filepath.IsAbs(specifier) {
		target := specifier
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(fromFile), filepath.FromSlash(specifier))
		}
		return probe(target)
	}

	for _, pattern := range p.sortedPathPatterns() {
		capture, ok := matchPathPattern(pattern, specifier)
		if !ok {
			continue
		}
		for _, target := range p.Config.Paths[pattern] {
			if path, ok := probe(strings.Replace(target, "*", capture, 1)); ok {
				return path, true
			}
		}
	}

	if p.Config.BaseURL != "" {
		return probe(filepath.Join(p.Config.BaseURL, filepath.FromSlash(specifier)))
	}
	return "", false
}

func isRelative(spec string) bool {
	return spec == "." || spec == ".." || strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// sortedPathPatterns orders paths keys by longest prefix before the
// wildcard, so the most specific mapping wins.
func (p *Project) sortedPathPatterns() []string {
	patterns := make([]string, 0, len(p.Config.Paths))
	for pattern := range p.Config.Paths {
		patterns = append(patterns, pattern)
	}
	sort.Slice(patterns, func(i, j int) bool {
		pi, pj := prefixLen(patterns[i]), prefixLen(patterns[j])
		if pi != pj {
			return pi > pj
		}
		return patterns[i] < patterns[j]
	})
	return patterns
}

func prefixLen(pattern string) int {
	if i := strings.IndexByte(pattern, '*'); i >= 0 {
		return i
	}
	return len(pattern)
}

// matchPathPattern matches a specifier against a paths key holding at
// most one wildcard and returns the text the wildcard captured.
func matchPathPattern(pattern, specifier string) (string, bool) {
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		return "", pattern == specifier
	}
	prefix, suffix := pattern[:star], pattern[star+1:]
	if len(specifier) < len(prefix)+len(suffix) ||
		!strings.HasPrefix(specifier, prefix) || !strings.HasSuffix(specifier, suffix) {
		return "", false
	}
	return specifier[len(prefix) : len(specifier)-len(suffix)], true
}

// probe finds the file a module path refers to, trying the path as
// written, source files for emitted extensions, extension probing and
// index files.
func probe(path string) (string, bool) {
	ext := filepath.Ext(path)
	if sources, ok := sourceFor[ext]; ok {
		stem := strings.TrimSuffix(path, ext)
		for _, src := range sources {
			if fileExists(stem + src) {
				return stem + src, true
			}
		}
	}
	if hasExtension(path, probeExtensions) && fileExists(path) {
		return path, true
	}
	for _, ext := range probeExtensions {
		if fileExists(path + ext) {
			return path + ext, true
		}
	}
	for _, ext := range probeExtensions {
		index := filepath.Join(path, "index"+ext)
		if fileExists(index) {
			return index, true
		}
	}
	return "", false
}

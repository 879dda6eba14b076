package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

const maxExtendsDepth = 16

// TSConfig is the part of tsconfig.json that decides which files belong
// to a project and how its imports resolve. All paths are absolute and
// slash-separated globs are absolute patterns.
type TSConfig struct {
	Path    string
	AllowJS bool
	BaseURL string
	Paths   map[string][]string
	OutDir  string

	Files   []string
	Include []string
	Exclude []string
}

type rawConfig struct {
	Extends         json.RawMessage `json:"extends"`
	CompilerOptions struct {
		AllowJS *bool               `json:"allowJs"`
		BaseURL *string             `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
		OutDir  *string             `json:"outDir"`
	} `json:"compilerOptions"`
	Files   []string `json:"files"`
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
}

// LoadTSConfig reads a tsconfig.json (comments and trailing commas
// allowed), following its extends chain.
func LoadTSConfig(path string) (*TSConfig, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg, err := loadTSConfig(abs, 0)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(abs)
	if cfg.Files == nil && cfg.Include == nil {
		cfg.Include = []string{globPath(dir, "**/*")}
	}
	if cfg.Exclude == nil {
		cfg.Exclude = []string{
			globPath(dir, "node_modules"),
			globPath(dir, "bower_components"),
			globPath(dir, "jspm_packages"),
		}
		if cfg.OutDir != "" {
			cfg.Exclude = append(cfg.Exclude, globPath(cfg.OutDir, "."))
		}
	}
	cfg.Path = abs
	return cfg, nil
}

func loadTSConfig(path string, depth int) (*TSConfig, error) {
	if depth > maxExtendsDepth {
		return nil, fmt.Errorf("tsconfig extends chain too deep at %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	var raw rawConfig
	if err := json.Unmarshal(std, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	cfg := &TSConfig{}

	parents, err := extendsList(raw.Extends)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, parent := range parents {
		parentPath, err := resolveExtends(dir, parent)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		base, err := loadTSConfig(parentPath, depth+1)
		if err != nil {
			return nil, err
		}
		cfg.merge(base)
	}

	opts := raw.CompilerOptions
	if opts.AllowJS != nil {
		cfg.AllowJS = *opts.AllowJS
	}
	if opts.BaseURL != nil {
		cfg.BaseURL = filepath.Join(dir, *opts.BaseURL)
	}
	if opts.OutDir != nil {
		cfg.OutDir = filepath.Join(dir, *opts.OutDir)
	}
	if opts.Paths != nil {
		// paths are relative to baseUrl, or to this file without one
		root := dir
		if cfg.BaseURL != "" {
			root = cfg.BaseURL
		}
		cfg.Paths = make(map[string][]string, len(opts.Paths))
		for pattern, targets := range opts.Paths {
			abs := make([]string, len(targets))
			for i, target := range targets {
				abs[i] = filepath.Join(root, target)
			}
			cfg.Paths[pattern] = abs
		}
	}

	if raw.Files != nil {
		cfg.Files = make([]string, len(raw.Files))
		for i, f := range raw.Files {
			cfg.Files[i] = filepath.Join(dir, f)
		}
	}
	if raw.Include != nil {
		cfg.Include = globPaths(dir, raw.Include)
	}
	if raw.Exclude != nil {
		cfg.Exclude = globPaths(dir, raw.Exclude)
	}
	return cfg, nil
}

func (c *TSConfig) merge(base *TSConfig) {
	if base.AllowJS {
		c.AllowJS = true
	}
	if base.BaseURL != "" {
		c.BaseURL = base.BaseURL
	}
	if base.OutDir != "" {
		c.OutDir = base.OutDir
	}
	if base.Paths != nil {
		c.Paths = base.Paths
	}
	if base.Files != nil {
		c.Files = base.Files
	}
	if base.Include != nil {
		c.Include = base.Include
	}
	if base.Exclude != nil {
		c.Exclude = base.Exclude
	}
}

// extendsList accepts both "extends": "x" and "extends": ["x", "y"].
func extendsList(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("extends must be a string or an array of strings")
	}
	return many, nil
}

// resolveExtends finds the file an extends entry points to: a path
// relative to the extending config, or a config shipped in a package
// under node_modules.
func resolveExtends(dir, spec string) (string, error) {
	if strings.HasPrefix(spec, ".") || filepath.IsAbs(spec) {
		p := spec
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, spec)
		}
		if fileExists(p) {
			return p, nil
		}
		if fileExists(p + ".json") {
			return p + ".json", nil
		}
		return "", fmt.Errorf("extends %q: file not found", spec)
	}

	for d := dir; ; d = filepath.Dir(d) {
		base := filepath.Join(d, "node_modules", filepath.FromSlash(spec))
		for _, candidate := range []string{base, base + ".json", filepath.Join(base, "tsconfig.json")} {
			if fileExists(candidate) {
				return candidate, nil
			}
		}
		if filepath.Dir(d) == d {
			break
		}
	}
	return "", fmt.Errorf("extends %q: package config not found", spec)
}

func globPaths(dir string, patterns []string) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = globPath(dir, p)
	}
	return out
}

// globPath makes a tsconfig include/exclude pattern absolute. A pattern
// whose last segment has neither a wildcard nor an extension names a
// directory and matches everything below it.
func globPath(dir, pattern string) string {
	p := filepath.ToSlash(filepath.Join(dir, pattern))
	last := p[strings.LastIndex(p, "/")+1:]
	if !strings.ContainsAny(last, "*?") && !strings.Contains(last, ".") {
		p += "/**/*"
	}
	return p
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigName is the file DetectProject looks for.
const DefaultConfigName = "tsconfig.json"

// ErrNoProject is returned when no tsconfig.json is found.
var ErrNoProject = errors.New("no TypeScript project found")

// Project is a TypeScript project rooted at the directory of its
// tsconfig.json.
type Project struct {
	Root       string
	ConfigPath string
	Config     *TSConfig

	Name       string // package.json name, if any
	TypeScript string // typescript version from package.json, if any
}

// DetectProject walks up from start to the nearest directory holding a
// config named configName (DefaultConfigName when empty) and opens it.
func DetectProject(start, configName string) (*Project, error) {
	if configName == "" {
		configName = DefaultConfigName
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	for dir := abs; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, configName)
		if fileExists(candidate) {
			return Open(candidate)
		}
		if filepath.Dir(dir) == dir {
			break
		}
	}
	return nil, fmt.Errorf("%w: no %s in %s or any parent directory", ErrNoProject, configName, abs)
}

// Open loads the project described by a tsconfig file.
func Open(configPath string) (*Project, error) {
	cfg, err := LoadTSConfig(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrNoProject, err)
		}
		return nil, err
	}

	p := &Project{
		Root:       filepath.Dir(cfg.Path),
		ConfigPath: cfg.Path,
		Config:     cfg,
	}
	if err := p.readPackageJSON(); err != nil {
		return nil, err
	}
	return p, nil
}

// readPackageJSON fills Name and TypeScript from the nearest
// package.json at or above the project root.
func (p *Project) readPackageJSON() error {
	for dir := p.Root; ; dir = filepath.Dir(dir) {
		data, err := os.ReadFile(filepath.Join(dir, "package.json"))
		if err == nil {
			var pkg struct {
				Name            string            `json:"name"`
				Dependencies    map[string]string `json:"dependencies"`
				DevDependencies map[string]string `json:"devDependencies"`
			}
			if err := json.Unmarshal(data, &pkg); err != nil {
				return fmt.Errorf("failed to parse %s: %w", filepath.Join(dir, "package.json"), err)
			}
			p.Name = pkg.Name
			p.TypeScript = pkg.DevDependencies["typescript"]
			if p.TypeScript == "" {
				p.TypeScript = pkg.Dependencies["typescript"]
			}
			return nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read package.json: %w", err)
		}
		if filepath.Dir(dir) == dir {
			return nil
		}
	}
}

package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/simonhull/firebird-suite/wren/pkg/logger"
)

// MatchMode selects how call sites are matched to a function.
type MatchMode string

const (
	// MatchSymbol matches calls whose callee resolves to the declaration.
	MatchSymbol MatchMode = "symbol"
	// MatchName matches calls whose first identifier equals the function
	// name, without resolving scopes or imports.
	MatchName MatchMode = "name"
)

// ParseMatchMode validates a configured match mode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(s) {
	case "", MatchSymbol:
		return MatchSymbol, nil
	case MatchName:
		return MatchName, nil
	default:
		return "", fmt.Errorf("unknown match mode %q (want %q or %q)", s, MatchSymbol, MatchName)
	}
}

// Resolver maps an import specifier to a file path.
type Resolver interface {
	Resolve(fromFile, specifier string) (string, bool)
}

// LoadOptions configures Load.
type LoadOptions struct {
	Workers int
	Match   MatchMode
	Logger  logger.Logger
}

// Model is the parsed project. It implements inference.Provider.
type Model struct {
	files  map[string]*File
	order  []*File
	match  MatchMode
	logger logger.Logger
}

type parseJob struct {
	path string
}

type parseResult struct {
	file *File
	err  error
}

// Load parses the given files with a pool of workers and links their
// imports through resolver. Files that fail to read or parse are logged
// and left out of the model.
func Load(ctx context.Context, resolver Resolver, paths []string, opts LoadOptions) (*Model, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	match, err := ParseMatchMode(string(opts.Match))
	if err != nil {
		return nil, err
	}

	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	log.Info("Loading source files", logger.F("files", len(paths)), logger.F("workers", numWorkers))

	jobs := make(chan parseJob, len(paths))
	results := make(chan parseResult, len(paths))
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go parseWorker(ctx, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for _, p := range paths {
			select {
			case <-ctx.Done():
				return
			case jobs <- parseJob{path: p}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	m := &Model{
		files:  make(map[string]*File, len(paths)),
		match:  match,
		logger: log,
	}
	for result := range results {
		if result.err != nil {
			log.Warn("Failed to load source file", logger.F("error", result.err))
			continue
		}
		if result.file.HasErrors() {
			log.Debug("Source file has syntax errors", logger.F("file", result.file.Path))
		}
		m.files[result.file.Path] = result.file
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, f := range m.files {
		m.order = append(m.order, f)
	}
	sort.Slice(m.order, func(i, j int) bool { return m.order[i].Path < m.order[j].Path })

	if resolver != nil {
		m.link(resolver)
	}

	log.Info("Source files loaded", logger.F("files", len(m.order)))
	return m, nil
}

func parseWorker(ctx context.Context, jobs <-chan parseJob, results chan<- parseResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		path, err := filepath.Abs(job.path)
		if err != nil {
			results <- parseResult{err: err}
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			results <- parseResult{err: fmt.Errorf("reading %s: %w", path, err)}
			continue
		}
		f, err := Parse(ctx, path, content)
		results <- parseResult{file: f, err: err}
	}
}

// link resolves every import and re-export specifier to a loaded file.
func (m *Model) link(resolver Resolver) {
	for _, f := range m.order {
		var specs []string
		for _, sym := range f.scope {
			if sym.Kind == SymImport {
				specs = append(specs, sym.Module)
			}
		}
		for _, e := range f.exports {
			if e.module != "" {
				specs = append(specs, e.module)
			}
		}
		specs = append(specs, f.stars...)

		for _, spec := range specs {
			if _, done := f.imports[spec]; done {
				continue
			}
			target, ok := resolver.Resolve(f.Path, spec)
			if !ok {
				f.imports[spec] = nil
				continue
			}
			f.imports[spec] = m.files[filepath.Clean(target)]
		}
	}
}

// File returns a loaded file by path.
func (m *Model) File(path string) (*File, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}
	f, ok := m.files[abs]
	return f, ok
}

// Files returns the loaded files sorted by path.
func (m *Model) Files() []*File {
	return m.order
}

const maxAliasDepth = 32

// follow chases imports and re-exports to the declaring symbol. It
// returns nil when the chain leaves the loaded files.
func (m *Model) follow(sym *Symbol) *Symbol {
	for depth := 0; sym != nil && sym.Kind == SymImport; depth++ {
		if depth > maxAliasDepth {
			return nil
		}
		target := sym.File.imports[sym.Module]
		if target == nil {
			return nil
		}
		if sym.Imported == "" {
			return &Symbol{Kind: SymNamespace, Name: sym.Name, File: sym.File, Decl: sym.Decl, Binding: sym.Binding, Target: target}
		}
		sym = m.resolveExport(target, sym.Imported, 0)
	}
	return sym
}

// resolveExport finds what a module exports under name.
func (m *Model) resolveExport(f *File, name string, depth int) *Symbol {
	if f == nil || depth > maxAliasDepth {
		return nil
	}
	if e, ok := f.exports[name]; ok {
		if e.local != nil {
			return m.follow(e.local)
		}
		target := f.imports[e.module]
		if target == nil {
			return nil
		}
		if e.name == "" {
			return &Symbol{Kind: SymNamespace, Name: name, File: f, Target: target}
		}
		return m.resolveExport(target, e.name, depth+1)
	}
	if name == "default" {
		return nil
	}
	for _, spec := range f.stars {
		if sym := m.resolveExport(f.imports[spec], name, depth+1); sym != nil {
			return sym
		}
	}
	return nil
}

// resolve looks up an identifier and follows it to its declaration.
func (m *Model) resolve(ident *Node) *Symbol {
	return m.follow(ident.file.lookup(ident))
}

// resolveMember resolves ns.name where ns is a namespace binding.
func (m *Model) resolveMember(member *Node) *Symbol {
	object := unwrapParens(member.Child("object"))
	property := member.Child("property")
	if object == nil || property == nil || object.Kind != "identifier" {
		return nil
	}
	ns := m.resolve(object)
	if ns == nil || ns.Kind != SymNamespace {
		return nil
	}
	return m.resolveExport(ns.Target, property.Text(), 0)
}

func sameSymbol(a, b *Symbol) bool {
	return a != nil && b != nil && a.Decl == b.Decl && a.Binding == b.Binding
}

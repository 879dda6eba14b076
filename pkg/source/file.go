package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/zeebo/xxh3"
)

// Language identifies the grammar a file is parsed with.
type Language int

const (
	TypeScript Language = iota
	TSX
	JavaScript
)

func (l Language) String() string {
	switch l {
	case TypeScript:
		return "typescript"
	case TSX:
		return "tsx"
	case JavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// Annotatable reports whether files in this language can carry type
// annotations.
func (l Language) Annotatable() bool {
	return l == TypeScript || l == TSX
}

func (l Language) grammar() *sitter.Language {
	switch l {
	case TSX:
		return tsx.GetLanguage()
	case JavaScript:
		return javascript.GetLanguage()
	default:
		return typescript.GetLanguage()
	}
}

// LanguageFor picks the grammar from a file extension.
func LanguageFor(path string) (Language, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return TypeScript, true
	case ".tsx":
		return TSX, true
	case ".js", ".mjs", ".cjs", ".jsx":
		return JavaScript, true
	default:
		return 0, false
	}
}

// File is one parsed source file. The syntax tree and symbol tables are
// built once at load and never mutated; pending edits are guarded by mu.
type File struct {
	Path    string
	Lang    Language
	Content []byte
	Hash    uint64
	Root    *Node

	scope    map[string]*Symbol
	exports  map[string]*export
	stars    []string
	imports  map[string]*File
	declared []*Function

	mu    sync.Mutex
	edits map[uint32]edit
}

// Parse parses content as the language implied by path.
func Parse(ctx context.Context, path string, content []byte) (*File, error) {
	lang, ok := LanguageFor(path)
	if !ok {
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang.grammar())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	f := &File{
		Path:    path,
		Lang:    lang,
		Content: content,
		Hash:    xxh3.Hash(content),
		edits:   make(map[uint32]edit),
	}

	cursor := sitter.NewTreeCursor(tree.RootNode())
	defer cursor.Close()
	f.Root = copyTree(cursor, nil, f)

	f.index()
	return f, nil
}

// HasErrors reports whether tree-sitter recovered from syntax errors
// anywhere in the file.
func (f *File) HasErrors() bool {
	bad := false
	f.Root.Walk(func(n *Node) bool {
		if bad {
			return false
		}
		if n.Kind == "ERROR" {
			bad = true
			return false
		}
		return true
	})
	return bad
}

// Functions returns the top-level and exported function declarations
// of the file in declaration order.
func (f *File) Functions() []*Function {
	return f.declared
}

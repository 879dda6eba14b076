package source

import "strings"

// SymbolKind classifies what a name is bound to.
type SymbolKind int

const (
	SymVariable SymbolKind = iota
	SymParameter
	SymFunction
	SymClass
	SymEnum
	SymImport
	SymNamespace
)

// Symbol is a name binding.
type Symbol struct {
	Kind    SymbolKind
	Name    string
	File    *File
	Decl    *Node // declarator, parameter, declaration or import specifier
	Binding *Node // the binding identifier

	Const        bool
	Destructured bool

	// Imports and namespaces.
	Module   string // module specifier as written
	Imported string // exported name, "default", or "" for a namespace
	Target   *File  // namespace re-export target
}

type export struct {
	local  *Symbol
	module string // re-export source specifier
	name   string // name in the source module, "" for a namespace
}

// index builds the module scope, the export table and the list of
// top-level functions.
func (f *File) index() {
	f.scope = make(map[string]*Symbol)
	f.exports = make(map[string]*export)
	f.imports = make(map[string]*File)

	// export { a as b } may precede the declaration of a.
	deferred := make(map[string]string)

	for _, stmt := range f.Root.NamedChildren() {
		switch stmt.Kind {
		case "import_statement":
			for _, sym := range f.importSymbols(stmt) {
				f.scope[sym.Name] = sym
			}

		case "export_statement":
			f.indexExport(stmt, deferred)

		default:
			for _, sym := range f.declarations(stmt) {
				f.scope[sym.Name] = sym
				f.addFunction(stmt, sym)
			}
		}
	}

	for exported, local := range deferred {
		if sym, ok := f.scope[local]; ok {
			f.exports[exported] = &export{local: sym}
		}
	}
}

func (f *File) indexExport(stmt *Node, deferred map[string]string) {
	source := stringValue(stmt.Child("source"))
	isDefault := stmt.ChildOfKind("default") != nil

	if decl := stmt.Child("declaration"); decl != nil {
		for _, sym := range f.declarations(decl) {
			f.scope[sym.Name] = sym
			f.addFunction(decl, sym)
			if isDefault {
				f.exports["default"] = &export{local: sym}
			} else {
				f.exports[sym.Name] = &export{local: sym}
			}
		}
		return
	}

	if value := stmt.Child("value"); value != nil {
		if value.Kind == "identifier" {
			deferred["default"] = value.Text()
		}
		return
	}

	if clause := stmt.ChildOfKind("export_clause"); clause != nil {
		for _, spec := range clause.NamedChildren() {
			if spec.Kind != "export_specifier" {
				continue
			}
			name := spec.Child("name").Text()
			exported := name
			if alias := spec.Child("alias"); alias != nil {
				exported = alias.Text()
			}
			if source != "" {
				f.exports[exported] = &export{module: source, name: name}
			} else {
				deferred[exported] = name
			}
		}
		return
	}

	if source == "" {
		return
	}
	if ns := stmt.ChildOfKind("namespace_export"); ns != nil {
		if id := ns.FirstNamed(); id != nil {
			f.exports[id.Text()] = &export{module: source}
		}
		return
	}
	f.stars = append(f.stars, source)
}

func (f *File) importSymbols(stmt *Node) []*Symbol {
	source := stringValue(stmt.Child("source"))
	clause := stmt.ChildOfKind("import_clause")
	if source == "" || clause == nil {
		return nil
	}

	var out []*Symbol
	for _, c := range clause.NamedChildren() {
		switch c.Kind {
		case "identifier":
			out = append(out, &Symbol{Kind: SymImport, Name: c.Text(), File: f, Decl: c, Binding: c, Module: source, Imported: "default"})
		case "namespace_import":
			if id := c.FirstNamed(); id != nil {
				out = append(out, &Symbol{Kind: SymImport, Name: id.Text(), File: f, Decl: c, Binding: id, Module: source})
			}
		case "named_imports":
			for _, spec := range c.NamedChildren() {
				if spec.Kind != "import_specifier" {
					continue
				}
				name := spec.Child("name")
				binding := name
				if alias := spec.Child("alias"); alias != nil {
					binding = alias
				}
				if name == nil || binding == nil {
					continue
				}
				out = append(out, &Symbol{Kind: SymImport, Name: binding.Text(), File: f, Decl: spec, Binding: binding, Module: source, Imported: name.Text()})
			}
		}
	}
	return out
}

func (f *File) addFunction(stmt *Node, sym *Symbol) {
	if sym.Kind != SymFunction || stmt.Parent == nil || stmt.Kind == "ambient_declaration" {
		return
	}
	// only declarations directly in the program or under export
	p := stmt.Parent
	if p.Kind == "export_statement" {
		p = p.Parent
	}
	if p == nil || p.Kind != "program" {
		return
	}
	f.declared = append(f.declared, newFunction(f, sym))
}

// declarations returns the symbols a statement declares.
func (f *File) declarations(stmt *Node) []*Symbol {
	switch stmt.Kind {
	case "function_declaration", "generator_function_declaration":
		if name := stmt.Child("name"); name != nil {
			return []*Symbol{{Kind: SymFunction, Name: name.Text(), File: f, Decl: stmt, Binding: name}}
		}
	case "class_declaration", "abstract_class_declaration":
		if name := stmt.Child("name"); name != nil {
			return []*Symbol{{Kind: SymClass, Name: name.Text(), File: f, Decl: stmt, Binding: name}}
		}
	case "enum_declaration":
		if name := stmt.Child("name"); name != nil {
			return []*Symbol{{Kind: SymEnum, Name: name.Text(), File: f, Decl: stmt, Binding: name}}
		}
	case "ambient_declaration":
		// declare const/let/var/function/class/enum
		var out []*Symbol
		for _, d := range stmt.NamedChildren() {
			if d.Kind == "function_signature" {
				if name := d.Child("name"); name != nil {
					out = append(out, &Symbol{Kind: SymFunction, Name: name.Text(), File: f, Decl: d, Binding: name})
				}
				continue
			}
			out = append(out, f.declarations(d)...)
		}
		return out
	case "lexical_declaration", "variable_declaration":
		isConst := false
		if kind := stmt.Child("kind"); kind != nil && kind.Text() == "const" {
			isConst = true
		}
		var out []*Symbol
		for _, d := range stmt.NamedChildren() {
			if d.Kind != "variable_declarator" {
				continue
			}
			pattern := d.Child("name")
			for _, id := range bindings(pattern) {
				out = append(out, &Symbol{
					Kind:         SymVariable,
					Name:         id.Text(),
					File:         f,
					Decl:         d,
					Binding:      id,
					Const:        isConst,
					Destructured: pattern != id,
				})
			}
		}
		return out
	}
	return nil
}

// bindings returns the identifiers a binding pattern introduces.
func bindings(pattern *Node) []*Node {
	if pattern == nil {
		return nil
	}
	switch pattern.Kind {
	case "identifier", "shorthand_property_identifier_pattern":
		return []*Node{pattern}
	case "rest_pattern":
		return bindings(pattern.FirstNamed())
	case "assignment_pattern", "object_assignment_pattern":
		return bindings(pattern.Child("left"))
	case "pair_pattern":
		return bindings(pattern.Child("value"))
	case "object_pattern", "array_pattern":
		var out []*Node
		for _, c := range pattern.NamedChildren() {
			out = append(out, bindings(c)...)
		}
		return out
	}
	return nil
}

// lookup resolves an identifier to its binding by walking the enclosing
// scopes outwards. It returns nil for globals and unknown names.
func (f *File) lookup(ident *Node) *Symbol {
	name := ident.Text()
	for n := ident.Parent; n != nil; n = n.Parent {
		switch {
		case n.Kind == "program":
			return f.scope[name]

		case n.Is("statement_block", "switch_case", "switch_default", "class_static_block"):
			for _, stmt := range n.NamedChildren() {
				for _, sym := range f.declarations(stmt) {
					if sym.Name == name {
						return sym
					}
				}
			}

		case isFunctionLike(n):
			if sym := f.parameterSymbol(n, name); sym != nil {
				return sym
			}
			if n.Is("function_expression", "function", "generator_function") {
				if id := n.Child("name"); id != nil && id.Text() == name {
					return &Symbol{Kind: SymFunction, Name: name, File: f, Decl: n, Binding: id}
				}
			}

		case n.Kind == "for_statement":
			if init := n.Child("initializer"); init != nil {
				for _, sym := range f.declarations(init) {
					if sym.Name == name {
						return sym
					}
				}
			}

		case n.Kind == "for_in_statement":
			for _, id := range bindings(n.Child("left")) {
				if id.Text() == name {
					return &Symbol{Kind: SymVariable, Name: name, File: f, Decl: n, Binding: id, Destructured: true}
				}
			}

		case n.Kind == "catch_clause":
			for _, id := range bindings(n.Child("parameter")) {
				if id.Text() == name {
					return &Symbol{Kind: SymVariable, Name: name, File: f, Decl: n, Binding: id, Destructured: true}
				}
			}
		}
	}
	return nil
}

func (f *File) parameterSymbol(fn *Node, name string) *Symbol {
	if p := fn.Child("parameter"); p != nil && p.Kind == "identifier" && p.Text() == name {
		return &Symbol{Kind: SymParameter, Name: name, File: f, Decl: p, Binding: p}
	}
	for _, slot := range parameterSlots(fn) {
		for _, id := range bindings(slot.pattern) {
			if id.Text() == name {
				return &Symbol{
					Kind:         SymParameter,
					Name:         name,
					File:         f,
					Decl:         slot.node,
					Binding:      id,
					Destructured: id != slot.pattern && slot.pattern.Kind != "rest_pattern",
				}
			}
		}
	}
	return nil
}

// stringValue returns the contents of a string literal node.
func stringValue(n *Node) string {
	if n == nil {
		return ""
	}
	text := n.Text()
	if len(text) >= 2 && (text[0] == '"' || text[0] == '\'' || text[0] == '`') {
		return unescape(text[1 : len(text)-1])
	}
	return text
}

// unescape resolves the common escape sequences of a string literal body.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case '\n':
			// line continuation
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

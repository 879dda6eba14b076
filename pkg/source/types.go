package source

import (
	"regexp"
	"strings"

	"github.com/simonhull/firebird-suite/wren/pkg/inference"
)

// TypeKind classifies a Type.
type TypeKind int

const (
	KindAny TypeKind = iota
	KindUnknown
	KindPrimitive
	KindLiteral
	KindNamed
	KindArray
	KindObject
	KindFunction
	KindUnion
)

// Type is a static TypeScript type as far as the source model can tell.
// Values are immutable.
type Type struct {
	kind    TypeKind
	name    string // primitive name, literal text or named type text
	base    *Type  // widened type of a literal
	elem    *Type
	props   []Property
	params  []Param
	result  *Type
	members []*Type

	typeParams string // "<T>" of a generic function
}

// Property is a member of an object type.
type Property struct {
	Name string
	Type *Type
}

// Param is a parameter of a function type.
type Param struct {
	Name string
	Type *Type
	Rest bool
}

var (
	Any       = &Type{kind: KindAny, name: "any"}
	Unknown   = &Type{kind: KindUnknown, name: "unknown"}
	String    = Primitive("string")
	Number    = Primitive("number")
	Boolean   = Primitive("boolean")
	BigInt    = Primitive("bigint")
	Null      = Primitive("null")
	Undefined = Primitive("undefined")
	Void      = Primitive("void")
	Never     = Primitive("never")
)

// Primitive returns a primitive type such as string or number.
func Primitive(name string) *Type {
	return &Type{kind: KindPrimitive, name: name}
}

// Literal returns a literal type with the given printed text and base.
func Literal(text string, base *Type) *Type {
	return &Type{kind: KindLiteral, name: text, base: base}
}

// Named returns a type known only by its printed text.
func Named(text string) *Type {
	return &Type{kind: KindNamed, name: normalizeSpace(text)}
}

// ArrayOf returns elem[].
func ArrayOf(elem *Type) *Type {
	return &Type{kind: KindArray, elem: elem}
}

// ObjectOf returns an object type with the given properties in order.
func ObjectOf(props []Property) *Type {
	return &Type{kind: KindObject, props: props}
}

// FuncOf returns a function type.
func FuncOf(params []Param, result *Type) *Type {
	return &Type{kind: KindFunction, params: params, result: result}
}

// UnionOf flattens nested unions, drops duplicates by printed text and
// folds true | false into boolean. A single member is returned as is.
func UnionOf(types ...*Type) *Type {
	var flat []*Type
	seen := make(map[string]bool)
	for _, t := range types {
		if t == nil {
			continue
		}
		for _, m := range t.union() {
			text := m.String()
			if seen[text] {
				continue
			}
			seen[text] = true
			flat = append(flat, m)
		}
	}

	if seen["true"] && seen["false"] {
		folded := make([]*Type, 0, len(flat))
		placed := false
		for _, m := range flat {
			if m.kind == KindLiteral && (m.name == "true" || m.name == "false") {
				if !placed && !seen["boolean"] {
					folded = append(folded, Boolean)
					placed = true
				}
				continue
			}
			folded = append(folded, m)
		}
		flat = folded
	}

	switch len(flat) {
	case 0:
		return Never
	case 1:
		return flat[0]
	}
	for _, m := range flat {
		if m.kind == KindAny {
			return Any
		}
	}
	return &Type{kind: KindUnion, members: flat}
}

func (t *Type) union() []*Type {
	if t.kind == KindUnion {
		return t.members
	}
	return []*Type{t}
}

// Kind returns the type's classification.
func (t *Type) Kind() TypeKind { return t.kind }

// Elem returns the element type of an array, or nil.
func (t *Type) Elem() *Type { return t.elem }

// Result returns the return type of a function type, or nil.
func (t *Type) Result() *Type { return t.result }

// Property looks up a property of an object type.
func (t *Type) Property(name string) (*Type, bool) {
	for _, p := range t.props {
		if p.Name == name {
			return p.Type, true
		}
	}
	return nil, false
}

// Text implements inference.Type.
func (t *Type) Text() string { return t.String() }

// Members implements inference.Type.
func (t *Type) Members() []inference.Type {
	ms := t.union()
	out := make([]inference.Type, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}

func (t *Type) String() string {
	switch t.kind {
	case KindArray:
		elem := t.elem.String()
		if t.elem.kind == KindUnion || t.elem.kind == KindFunction {
			elem = "(" + elem + ")"
		}
		return elem + "[]"
	case KindObject:
		if len(t.props) == 0 {
			return "{}"
		}
		var b strings.Builder
		b.WriteString("{ ")
		for _, p := range t.props {
			b.WriteString(propertyName(p.Name))
			b.WriteString(": ")
			b.WriteString(p.Type.String())
			b.WriteString("; ")
		}
		b.WriteString("}")
		return b.String()
	case KindFunction:
		if t.result == nil {
			return t.name
		}
		parts := make([]string, len(t.params))
		for i, p := range t.params {
			prefix := ""
			if p.Rest {
				prefix = "..."
			}
			parts[i] = prefix + p.Name + ": " + p.Type.String()
		}
		return t.typeParams + "(" + strings.Join(parts, ", ") + ") => " + t.result.String()
	case KindUnion:
		parts := make([]string, len(t.members))
		for i, m := range t.members {
			s := m.String()
			if m.kind == KindFunction {
				s = "(" + s + ")"
			}
			parts[i] = s
		}
		return strings.Join(parts, inference.UnionSeparator)
	default:
		return t.name
	}
}

var identRE = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func propertyName(name string) string {
	if identRE.MatchString(name) {
		return name
	}
	return quote(name)
}

// Widen maps literal types to their base type, recursively through
// unions. true and false widen to boolean.
func Widen(t *Type) *Type {
	switch t.kind {
	case KindLiteral:
		if t.base == nil {
			return t
		}
		return t.base
	case KindUnion:
		widened := make([]*Type, len(t.members))
		for i, m := range t.members {
			widened[i] = Widen(m)
		}
		return UnionOf(widened...)
	default:
		return t
	}
}

// withoutNullish removes null and undefined members.
func withoutNullish(t *Type) *Type {
	if t.kind != KindUnion {
		return t
	}
	var kept []*Type
	for _, m := range t.members {
		if m.kind == KindPrimitive && (m.name == "null" || m.name == "undefined") {
			continue
		}
		kept = append(kept, m)
	}
	return UnionOf(kept...)
}

// quote prints s as a double-quoted TypeScript string literal.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

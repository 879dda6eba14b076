package source

import (
	"context"
	"fmt"

	"github.com/simonhull/firebird-suite/wren/pkg/inference"
)

var _ inference.Provider = (*Model)(nil)

// Functions returns the top-level function declarations of file.
func (m *Model) Functions(ctx context.Context, file string) ([]inference.Function, error) {
	f, ok := m.File(file)
	if !ok {
		return nil, fmt.Errorf("%s is not part of the loaded project", file)
	}
	out := make([]inference.Function, len(f.declared))
	for i, fn := range f.declared {
		out[i] = fn
	}
	return out, nil
}

// References returns every use of fn across the loaded files, starting
// with the declaring file.
func (m *Model) References(ctx context.Context, fn inference.Function) ([]inference.Reference, error) {
	target, err := m.function(fn)
	if err != nil {
		return nil, err
	}

	var refs []inference.Reference
	for _, f := range m.searchOrder(target.file) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f.Root.Walk(func(n *Node) bool {
			switch n.Kind {
			case "identifier", "shorthand_property_identifier":
				if !m.mayName(f, n.Text(), target) {
					return true
				}
				if n.Parent != nil && n.Parent.Kind == "member_expression" && n.Field == "property" {
					return true
				}
				if sameSymbol(m.resolve(n), target.sym) {
					refs = append(refs, reference(n, isCallee(n)))
				}
			case "member_expression":
				property := n.Child("property")
				if property == nil {
					return true
				}
				if sameSymbol(m.resolveMember(n), target.sym) {
					refs = append(refs, reference(property, isCallee(n)))
				}
			}
			return true
		})
	}
	return refs, nil
}

// Calls returns the call expressions in file that invoke fn.
func (m *Model) Calls(ctx context.Context, file string, fn inference.Function) ([]inference.Call, error) {
	target, err := m.function(fn)
	if err != nil {
		return nil, err
	}
	f, ok := m.File(file)
	if !ok {
		return nil, fmt.Errorf("%s is not part of the loaded project", file)
	}

	var calls []inference.Call
	f.Root.Walk(func(n *Node) bool {
		if n.Kind != "call_expression" {
			return true
		}
		if m.invokes(n, target) {
			calls = append(calls, inference.Call{
				File:   f.Path,
				Line:   n.Line(),
				Column: n.Col(),
				Args:   arguments(n),
			})
		}
		return true
	})
	return calls, ctx.Err()
}

// TypeOf returns the static type of an argument expression.
func (m *Model) TypeOf(ctx context.Context, expr inference.Expression) (inference.Type, error) {
	n, ok := expr.(*Node)
	if !ok {
		return nil, fmt.Errorf("expression %q does not come from this model", expr.Text())
	}
	t, err := m.typeOf(ctx, n)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// BaseTypeOfLiteral widens literal types to their base types.
func (m *Model) BaseTypeOfLiteral(t inference.Type) inference.Type {
	typ, ok := t.(*Type)
	if !ok {
		return t
	}
	return Widen(typ)
}

func (m *Model) function(fn inference.Function) (*Function, error) {
	target, ok := fn.(*Function)
	if !ok {
		return nil, fmt.Errorf("function %s does not come from this model", fn.Name())
	}
	return target, nil
}

// searchOrder lists the declaring file first, then the rest by path.
func (m *Model) searchOrder(first *File) []*File {
	out := make([]*File, 0, len(m.order))
	out = append(out, first)
	for _, f := range m.order {
		if f != first {
			out = append(out, f)
		}
	}
	return out
}

// mayName reports whether name could refer to target in f: either the
// declared name or a local import alias of it.
func (m *Model) mayName(f *File, name string, target *Function) bool {
	if name == target.name {
		return true
	}
	sym, ok := f.scope[name]
	return ok && sym.Kind == SymImport && sameSymbol(m.follow(sym), target.sym)
}

// invokes reports whether call invokes target under the model's match
// mode.
func (m *Model) invokes(call *Node, target *Function) bool {
	if m.match == MatchName {
		id := call.FirstDescendant("identifier")
		return id != nil && id.Text() == target.name
	}

	callee := unwrapParens(call.Child("function"))
	switch {
	case callee == nil:
		return false
	case callee.Kind == "identifier":
		return m.mayName(call.file, callee.Text(), target) && sameSymbol(m.resolve(callee), target.sym)
	case callee.Kind == "member_expression":
		return sameSymbol(m.resolveMember(callee), target.sym)
	}
	return false
}

func isCallee(n *Node) bool {
	p := n.Parent
	for p != nil && p.Kind == "parenthesized_expression" {
		n, p = p, p.Parent
	}
	return p != nil && p.Kind == "call_expression" && n.Field == "function"
}

func reference(n *Node, call bool) inference.Reference {
	return inference.Reference{File: n.file.Path, Line: n.Line(), Column: n.Col(), Call: call}
}

// arguments returns the positional arguments of a call. Tagged
// templates have none.
func arguments(call *Node) []inference.Argument {
	args := call.Child("arguments")
	if args == nil || args.Kind != "arguments" {
		return nil
	}
	var out []inference.Argument
	for _, a := range args.NamedChildren() {
		if a.Kind == "spread_element" {
			out = append(out, inference.Argument{Expr: a, Spread: true})
			continue
		}
		out = append(out, inference.Argument{Expr: a})
	}
	return out
}

package source

import "github.com/simonhull/firebird-suite/wren/pkg/inference"

// Function is a top-level function declaration. It implements
// inference.Function.
type Function struct {
	name  string
	file  *File
	decl  *Node
	sym   *Symbol
	slots []paramSlot
}

type paramSlot struct {
	node    *Node // the parameter as it appears in formal_parameters
	pattern *Node // its binding pattern
	name    string
	rest    bool
}

func newFunction(f *File, sym *Symbol) *Function {
	return &Function{
		name:  sym.Name,
		file:  f,
		decl:  sym.Decl,
		sym:   sym,
		slots: parameterSlots(sym.Decl),
	}
}

func (fn *Function) Name() string { return fn.name }
func (fn *Function) File() string { return fn.file.Path }

// Decl returns the declaration node.
func (fn *Function) Decl() *Node { return fn.decl }

func (fn *Function) Parameters() []inference.Parameter {
	out := make([]inference.Parameter, len(fn.slots))
	for i, s := range fn.slots {
		out[i] = inference.Parameter{Name: s.name, Index: i, Rest: s.rest}
	}
	return out
}

// parameterSlots lists the runtime parameters of a function-like node.
// A TypeScript this-parameter is not passed at call sites and is left
// out.
func parameterSlots(fn *Node) []paramSlot {
	params := fn.Child("parameters")
	if params == nil {
		if p := fn.Child("parameter"); p != nil {
			return []paramSlot{{node: p, pattern: p, name: p.Text()}}
		}
		return nil
	}

	var out []paramSlot
	for _, p := range params.NamedChildren() {
		pattern := p
		switch p.Kind {
		case "required_parameter", "optional_parameter":
			pattern = p.Child("pattern")
		case "assignment_pattern":
			pattern = p.Child("left")
		}
		if pattern == nil || pattern.Kind == "this" {
			continue
		}

		slot := paramSlot{node: p, pattern: pattern, name: pattern.Text()}
		if pattern.Kind == "rest_pattern" {
			slot.rest = true
			if inner := pattern.FirstNamed(); inner != nil {
				slot.name = inner.Text()
			}
		}
		out = append(out, slot)
	}
	return out
}

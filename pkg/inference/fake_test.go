package inference

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// fakeType is a test type: a plain type, a literal with a base, or a union.
type fakeType struct {
	text    string
	base    *fakeType
	members []fakeType
}

func (t fakeType) Text() string {
	if len(t.members) > 0 {
		parts := make([]string, len(t.members))
		for i, m := range t.members {
			parts[i] = m.Text()
		}
		return strings.Join(parts, " | ")
	}
	return t.text
}

func (t fakeType) Members() []Type {
	if len(t.members) == 0 {
		return []Type{t}
	}
	out := make([]Type, len(t.members))
	for i, m := range t.members {
		out[i] = m
	}
	return out
}

var (
	tString  = fakeType{text: "string"}
	tNumber  = fakeType{text: "number"}
	tBoolean = fakeType{text: "boolean"}
)

func strLit(v string) fakeType { return fakeType{text: fmt.Sprintf("%q", v), base: &tString} }
func numLit(v int) fakeType    { return fakeType{text: fmt.Sprint(v), base: &tNumber} }
func boolLit(v bool) fakeType  { return fakeType{text: fmt.Sprint(v), base: &tBoolean} }
func named(text string) fakeType {
	return fakeType{text: text}
}
func union(ms ...fakeType) fakeType { return fakeType{members: ms} }

type fakeExpr struct {
	text string
	typ  Type
	err  error
}

func (e fakeExpr) Text() string { return e.text }

func arg(text string, t Type) Argument {
	return Argument{Expr: fakeExpr{text: text, typ: t}}
}

func unresolvedArg(text string) Argument {
	return Argument{Expr: fakeExpr{text: text, err: ErrUnresolved}}
}

func spreadArg(text string) Argument {
	return Argument{Expr: fakeExpr{text: text, typ: named("any[]")}, Spread: true}
}

type fakeFunc struct {
	name   string
	file   string
	params []Parameter
}

func (f *fakeFunc) Name() string            { return f.name }
func (f *fakeFunc) File() string            { return f.file }
func (f *fakeFunc) Parameters() []Parameter { return f.params }

func newFunc(file, name string, params ...string) *fakeFunc {
	fn := &fakeFunc{name: name, file: file}
	for i, p := range params {
		rest := strings.HasPrefix(p, "...")
		fn.params = append(fn.params, Parameter{Name: strings.TrimPrefix(p, "..."), Index: i, Rest: rest})
	}
	return fn
}

// fakeProvider is an in-memory Provider. Calls registered for a function
// also produce one reference per call.
type fakeProvider struct {
	mu sync.Mutex

	functions map[string][]Function
	refs      map[string][]Reference
	calls     map[string]map[string][]Call

	written        map[string]map[int]string
	notAnnotatable map[string]bool
	callLookups    map[string]int
	setErr         error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		functions:      make(map[string][]Function),
		refs:           make(map[string][]Reference),
		calls:          make(map[string]map[string][]Call),
		written:        make(map[string]map[int]string),
		notAnnotatable: make(map[string]bool),
		callLookups:    make(map[string]int),
	}
}

func (p *fakeProvider) declare(fn *fakeFunc) *fakeFunc {
	p.functions[fn.file] = append(p.functions[fn.file], fn)
	p.refs[fn.name] = append(p.refs[fn.name], Reference{File: fn.file, Line: 1})
	return fn
}

func (p *fakeProvider) call(fn *fakeFunc, file string, args ...Argument) {
	if p.calls[fn.name] == nil {
		p.calls[fn.name] = make(map[string][]Call)
	}
	p.calls[fn.name][file] = append(p.calls[fn.name][file], Call{File: file, Args: args})
	p.refs[fn.name] = append(p.refs[fn.name], Reference{File: file, Call: true})
}

func (p *fakeProvider) Functions(ctx context.Context, file string) ([]Function, error) {
	return p.functions[file], nil
}

func (p *fakeProvider) References(ctx context.Context, fn Function) ([]Reference, error) {
	return p.refs[fn.Name()], nil
}

func (p *fakeProvider) Calls(ctx context.Context, file string, fn Function) ([]Call, error) {
	p.mu.Lock()
	p.callLookups[fn.Name()+"@"+file]++
	p.mu.Unlock()
	return p.calls[fn.Name()][file], nil
}

func (p *fakeProvider) TypeOf(ctx context.Context, expr Expression) (Type, error) {
	e := expr.(fakeExpr)
	if e.err != nil {
		return nil, e.err
	}
	return e.typ, nil
}

func (p *fakeProvider) BaseTypeOfLiteral(t Type) Type {
	ft := t.(fakeType)
	if len(ft.members) > 0 {
		out := fakeType{}
		for _, m := range ft.members {
			out.members = append(out.members, p.BaseTypeOfLiteral(m).(fakeType))
		}
		return out
	}
	if ft.base != nil {
		return *ft.base
	}
	return ft
}

func (p *fakeProvider) SetParameterType(fn Function, index int, typeText string) error {
	if p.setErr != nil {
		return p.setErr
	}
	if p.notAnnotatable[fn.File()] {
		return fmt.Errorf("%s: %w", fn.File(), ErrNotAnnotatable)
	}
	if p.written[fn.Name()] == nil {
		p.written[fn.Name()] = make(map[int]string)
	}
	p.written[fn.Name()][index] = typeText
	return nil
}

package source

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/simonhull/firebird-suite/wren/pkg/inference"
)

const maxEvalDepth = 64

func unresolved(format string, args ...any) error {
	return fmt.Errorf("%w: %s", inference.ErrUnresolved, fmt.Sprintf(format, args...))
}

// hard reports whether err must abort typing rather than mark the
// expression as unresolved.
func hard(err error) bool {
	return err != nil && !errors.Is(err, inference.ErrUnresolved)
}

// evaluator computes static types for one TypeOf request. visiting
// guards against declarations whose types depend on themselves.
type evaluator struct {
	m        *Model
	ctx      context.Context
	visiting map[*Node]bool
	depth    int
}

func (m *Model) typeOf(ctx context.Context, n *Node) (*Type, error) {
	ev := &evaluator{m: m, ctx: ctx, visiting: make(map[*Node]bool)}
	return ev.expr(n)
}

func (ev *evaluator) expr(n *Node) (*Type, error) {
	if n == nil {
		return nil, unresolved("missing expression")
	}
	if err := ev.ctx.Err(); err != nil {
		return nil, err
	}
	if ev.depth >= maxEvalDepth {
		return nil, unresolved("expression nested too deeply")
	}
	ev.depth++
	defer func() { ev.depth-- }()

	switch n.Kind {
	case "string":
		return Literal(quote(stringValue(n)), String), nil
	case "template_string":
		if n.ChildOfKind("template_substitution") != nil {
			return String, nil
		}
		return Literal(quote(stringValue(n)), String), nil
	case "number":
		return numberLiteral(n.Text()), nil
	case "true", "false":
		return Literal(n.Kind, Boolean), nil
	case "null":
		return Null, nil
	case "undefined":
		return Undefined, nil
	case "regex":
		return Named("RegExp"), nil
	case "identifier", "shorthand_property_identifier":
		return ev.identifier(n)
	case "parenthesized_expression":
		return ev.expr(n.FirstNamed())
	case "sequence_expression":
		if right := n.Child("right"); right != nil {
			return ev.expr(right)
		}
		named := n.NamedChildren()
		if len(named) == 0 {
			return nil, unresolved("empty sequence")
		}
		return ev.expr(named[len(named)-1])
	case "array":
		return ev.array(n)
	case "object":
		return ev.object(n)
	case "arrow_function", "function_expression", "function", "generator_function":
		return ev.function(n)
	case "call_expression":
		return ev.call(n)
	case "new_expression":
		return ev.construct(n)
	case "member_expression":
		return ev.member(n)
	case "subscript_expression":
		return ev.subscript(n)
	case "unary_expression":
		return ev.unary(n)
	case "update_expression":
		return Number, nil
	case "binary_expression":
		return ev.binary(n)
	case "ternary_expression":
		a, err := ev.expr(n.Child("consequence"))
		if err != nil {
			return nil, err
		}
		b, err := ev.expr(n.Child("alternative"))
		if err != nil {
			return nil, err
		}
		return UnionOf(a, b), nil
	case "assignment_expression":
		return ev.expr(n.Child("right"))
	case "as_expression", "satisfies_expression":
		return ev.assertion(n)
	case "type_assertion":
		if targs := n.ChildOfKind("type_arguments"); targs != nil {
			return typeNode(targs.FirstNamed()), nil
		}
		return nil, unresolved("type assertion without a type")
	case "non_null_expression":
		t, err := ev.expr(n.FirstNamed())
		if err != nil {
			return nil, err
		}
		return withoutNullish(t), nil
	case "await_expression":
		t, err := ev.expr(n.FirstNamed())
		if err != nil {
			return nil, err
		}
		return awaited(t), nil
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return Named("JSX.Element"), nil
	}
	return nil, unresolved("cannot type %s", n.Kind)
}

func (ev *evaluator) identifier(n *Node) (*Type, error) {
	sym := n.file.lookup(n)
	if sym == nil {
		if t, ok := globalValues[n.Text()]; ok {
			return t, nil
		}
		return nil, unresolved("unknown identifier %s", n.Text())
	}
	return ev.symbol(sym)
}

func (ev *evaluator) symbol(sym *Symbol) (*Type, error) {
	if sym.Kind == SymImport {
		resolved := ev.m.follow(sym)
		if resolved == nil {
			return nil, unresolved("%s is imported from outside the project", sym.Name)
		}
		sym = resolved
	}

	switch sym.Kind {
	case SymVariable:
		return ev.variable(sym)
	case SymParameter:
		return ev.parameter(sym)
	case SymFunction:
		return ev.function(sym.Decl)
	case SymClass, SymEnum:
		return Named("typeof " + sym.Name), nil
	}
	return nil, unresolved("%s has no value type", sym.Name)
}

func (ev *evaluator) variable(sym *Symbol) (*Type, error) {
	decl := sym.Decl
	if sym.Destructured || decl.Kind != "variable_declarator" {
		return nil, unresolved("%s is bound by a pattern", sym.Name)
	}
	if ann := decl.Child("type"); ann != nil {
		return typeNode(ann), nil
	}
	value := decl.Child("value")
	if value == nil {
		return nil, unresolved("%s has no initializer", sym.Name)
	}
	if ev.visiting[decl] {
		return nil, unresolved("%s depends on itself", sym.Name)
	}
	ev.visiting[decl] = true
	defer delete(ev.visiting, decl)

	t, err := ev.expr(value)
	if err != nil {
		return nil, err
	}
	if !sym.Const {
		t = Widen(t)
	}
	return t, nil
}

func (ev *evaluator) parameter(sym *Symbol) (*Type, error) {
	p := sym.Decl
	if sym.Destructured {
		return nil, unresolved("%s is bound by a pattern", sym.Name)
	}
	if ann := p.Child("type"); ann != nil {
		t := typeNode(ann)
		if p.Kind == "optional_parameter" {
			t = UnionOf(t, Undefined)
		}
		return t, nil
	}
	if def := defaultValue(p); def != nil {
		if ev.visiting[p] {
			return nil, unresolved("%s depends on itself", sym.Name)
		}
		ev.visiting[p] = true
		defer delete(ev.visiting, p)

		t, err := ev.expr(def)
		if err != nil {
			return nil, err
		}
		return Widen(t), nil
	}
	if pattern := p.Child("pattern"); pattern != nil && pattern.Kind == "rest_pattern" || p.Kind == "rest_pattern" {
		return ArrayOf(Any), nil
	}
	return Any, nil
}

func defaultValue(param *Node) *Node {
	if param.Kind == "assignment_pattern" {
		return param.Child("right")
	}
	return param.Child("value")
}

// function types a function-like node. Parameters without annotations
// are any; an uninferable return type is any.
func (ev *evaluator) function(n *Node) (*Type, error) {
	if ev.visiting[n] {
		return nil, unresolved("recursive function")
	}
	ev.visiting[n] = true
	defer delete(ev.visiting, n)

	var params []Param
	for _, slot := range parameterSlots(n) {
		pt := Any
		switch {
		case slot.node.Child("type") != nil:
			pt = typeNode(slot.node.Child("type"))
		case defaultValue(slot.node) != nil:
			t, err := ev.expr(defaultValue(slot.node))
			if hard(err) {
				return nil, err
			}
			if err == nil {
				pt = Widen(t)
			}
		case slot.rest:
			pt = ArrayOf(Any)
		}

		name := slot.name
		if slot.pattern.Kind == "object_pattern" || slot.pattern.Kind == "array_pattern" {
			name = normalizeSpace(slot.pattern.Text())
		}
		if slot.node.Kind == "optional_parameter" {
			name += "?"
		}
		params = append(params, Param{Name: name, Type: pt, Rest: slot.rest})
	}

	result, err := ev.returnType(n)
	if err != nil {
		return nil, err
	}

	t := FuncOf(params, result)
	if tp := n.Child("type_parameters"); tp != nil {
		t.typeParams = normalizeSpace(tp.Text())
	}
	return t, nil
}

func (ev *evaluator) returnType(n *Node) (*Type, error) {
	if rt := n.Child("return_type"); rt != nil {
		switch rt.Kind {
		case "type_predicate_annotation":
			return Boolean, nil
		case "asserts_annotation":
			return Void, nil
		}
		return typeNode(rt), nil
	}

	async := n.ChildOfKind("async") != nil
	if n.Is("generator_function_declaration", "generator_function") || n.ChildOfKind("*") != nil {
		return Any, nil
	}

	body := n.Child("body")
	var result *Type
	switch {
	case body == nil:
		result = Void
	case body.Kind != "statement_block":
		t, err := ev.expr(body)
		if hard(err) {
			return nil, err
		}
		if err != nil {
			result = Any
		} else {
			result = Widen(t)
		}
	default:
		t, err := ev.returns(body)
		if hard(err) {
			return nil, err
		}
		if err != nil {
			result = Any
		} else {
			result = t
		}
	}

	if async {
		return Named("Promise<" + awaited(result).String() + ">"), nil
	}
	return result, nil
}

// returns unions the widened types of the return statements in a body,
// not descending into nested functions.
func (ev *evaluator) returns(body *Node) (*Type, error) {
	var stmts []*Node
	body.Walk(func(n *Node) bool {
		if n != body && isFunctionLike(n) || n.Is("class_declaration", "class") {
			return false
		}
		if n.Kind == "return_statement" {
			stmts = append(stmts, n)
			return false
		}
		return true
	})

	var types []*Type
	bare := false
	for _, r := range stmts {
		value := r.FirstNamed()
		if value == nil {
			bare = true
			continue
		}
		t, err := ev.expr(value)
		if err != nil {
			return nil, err
		}
		types = append(types, Widen(t))
	}
	if len(types) == 0 {
		return Void, nil
	}
	if bare {
		types = append(types, Undefined)
	}
	return UnionOf(types...), nil
}

func (ev *evaluator) call(n *Node) (*Type, error) {
	callee := unwrapParens(n.Child("function"))
	if callee == nil {
		return nil, unresolved("call without callee")
	}

	switch callee.Kind {
	case "identifier":
		sym := callee.file.lookup(callee)
		if sym == nil {
			if t, ok := globalCalls[callee.Text()]; ok {
				return t, nil
			}
			return nil, unresolved("unknown function %s", callee.Text())
		}
		t, err := ev.symbol(sym)
		if err != nil {
			return nil, err
		}
		return callResult(t, callee.Text())

	case "member_expression":
		return ev.method(callee)

	case "arrow_function", "function_expression", "function":
		t, err := ev.function(callee)
		if err != nil {
			return nil, err
		}
		return callResult(t, "function expression")
	}
	return nil, unresolved("cannot type call of %s", callee.Kind)
}

var wordRE = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*`)

// callResult returns what calling a value of type t produces. Results
// that mention the function's own type parameters depend on the call
// and are left unresolved.
func callResult(t *Type, name string) (*Type, error) {
	if t.kind == KindAny {
		return Any, nil
	}
	if t.kind != KindFunction || t.result == nil {
		return nil, unresolved("%s is not a known function", name)
	}
	if t.typeParams != "" {
		params := make(map[string]bool)
		for _, part := range strings.Split(strings.Trim(t.typeParams, "<>"), ",") {
			if w := wordRE.FindString(part); w != "" {
				params[w] = true
			}
		}
		for _, w := range wordRE.FindAllString(t.result.String(), -1) {
			if params[w] {
				return nil, unresolved("%s returns a generic type", name)
			}
		}
	}
	return t.result, nil
}

func (ev *evaluator) method(member *Node) (*Type, error) {
	if sym := ev.m.resolveMember(member); sym != nil {
		t, err := ev.symbol(sym)
		if err != nil {
			return nil, err
		}
		return callResult(t, sym.Name)
	}

	object := unwrapParens(member.Child("object"))
	property := member.Child("property").Text()

	if object.Kind == "identifier" && object.file.lookup(object) == nil {
		if t, ok := staticCalls[object.Text()+"."+property]; ok {
			return t, nil
		}
	}

	recv, err := ev.expr(object)
	if hard(err) {
		return nil, err
	}
	if err == nil {
		w := Widen(recv)
		switch {
		case isPrimitive(w, "string"):
			if t, ok := stringMethods[property]; ok {
				return t, nil
			}
		case w.kind == KindArray:
			if t, ok := arrayMethods[property]; ok {
				return t, nil
			}
			if arraySelfMethods[property] {
				return w, nil
			}
		case w.kind == KindObject:
			if pt, ok := w.Property(property); ok {
				return callResult(pt, property)
			}
		}
	}

	if t, ok := anyMethods[property]; ok {
		return t, nil
	}
	return nil, unresolved("unknown method %s", property)
}

func (ev *evaluator) member(n *Node) (*Type, error) {
	if sym := ev.m.resolveMember(n); sym != nil {
		return ev.symbol(sym)
	}

	object := unwrapParens(n.Child("object"))
	property := n.Child("property").Text()

	if object.Kind == "identifier" {
		if sym := ev.m.follow(object.file.lookup(object)); sym != nil && sym.Kind == SymEnum {
			return Literal(sym.Name+"."+property, Named(sym.Name)), nil
		}
	}

	recv, err := ev.expr(object)
	if err != nil {
		return nil, err
	}
	w := Widen(recv)
	if property == "length" && (isPrimitive(w, "string") || w.kind == KindArray) {
		return Number, nil
	}
	if w.kind == KindObject {
		if pt, ok := w.Property(property); ok {
			return pt, nil
		}
	}
	return nil, unresolved("unknown property %s", property)
}

func (ev *evaluator) subscript(n *Node) (*Type, error) {
	recv, err := ev.expr(n.Child("object"))
	if err != nil {
		return nil, err
	}
	w := Widen(recv)
	switch {
	case w.kind == KindArray:
		return w.elem, nil
	case isPrimitive(w, "string"):
		return String, nil
	}
	return nil, unresolved("cannot index %s", w)
}

func (ev *evaluator) construct(n *Node) (*Type, error) {
	ctor := n.Child("constructor")
	if ctor == nil {
		return nil, unresolved("new without constructor")
	}
	name := normalizeSpace(ctor.Text())
	if targs := n.ChildOfKind("type_arguments"); targs != nil {
		return Named(name + normalizeSpace(targs.Text())), nil
	}

	if ctor.Kind == "identifier" {
		sym := ctor.file.lookup(ctor)
		if sym == nil {
			if t, ok := constructors[name]; ok {
				return t, nil
			}
			return Named(name), nil
		}
		if resolved := ev.m.follow(sym); resolved != nil && resolved.Kind == SymClass {
			return Named(resolved.Name), nil
		}
	}
	return Named(name), nil
}

func (ev *evaluator) unary(n *Node) (*Type, error) {
	op := n.Child("operator")
	arg := n.Child("argument")
	if op == nil {
		return nil, unresolved("unary without operator")
	}

	switch op.Text() {
	case "!", "delete":
		return Boolean, nil
	case "typeof":
		return String, nil
	case "void":
		return Undefined, nil
	case "-", "+", "~":
		if arg != nil && arg.Kind == "number" && op.Text() == "-" {
			lit := numberLiteral(arg.Text())
			return Literal("-"+lit.name, lit.base), nil
		}
		t, err := ev.expr(arg)
		if hard(err) {
			return nil, err
		}
		if err == nil && isPrimitive(Widen(t), "bigint") && op.Text() != "+" {
			return BigInt, nil
		}
		return Number, nil
	}
	return nil, unresolved("unknown operator %s", op.Text())
}

func (ev *evaluator) binary(n *Node) (*Type, error) {
	op := n.Child("operator")
	if op == nil {
		return nil, unresolved("binary without operator")
	}

	switch op.Text() {
	case "==", "!=", "===", "!==", "<", ">", "<=", ">=", "instanceof", "in":
		return Boolean, nil

	case "&&":
		return ev.expr(n.Child("right"))

	case "||", "??":
		left, err := ev.expr(n.Child("left"))
		if err != nil {
			return nil, err
		}
		right, err := ev.expr(n.Child("right"))
		if err != nil {
			return nil, err
		}
		return UnionOf(withoutNullish(left), right), nil

	case "+":
		left, err := ev.expr(n.Child("left"))
		if hard(err) {
			return nil, err
		}
		right, rerr := ev.expr(n.Child("right"))
		if hard(rerr) {
			return nil, rerr
		}
		if (err == nil && isPrimitive(Widen(left), "string")) || (rerr == nil && isPrimitive(Widen(right), "string")) {
			return String, nil
		}
		if err != nil || rerr != nil {
			return nil, unresolved("operands of +")
		}
		l, r := Widen(left), Widen(right)
		switch {
		case isPrimitive(l, "number") && isPrimitive(r, "number"):
			return Number, nil
		case isPrimitive(l, "bigint") && isPrimitive(r, "bigint"):
			return BigInt, nil
		case l.kind == KindAny || r.kind == KindAny:
			return Any, nil
		}
		return nil, unresolved("operands of + are %s and %s", l, r)

	case "-", "*", "/", "%", "**", "<<", ">>", ">>>", "&", "|", "^":
		left, err := ev.expr(n.Child("left"))
		if hard(err) {
			return nil, err
		}
		if err == nil && isPrimitive(Widen(left), "bigint") {
			return BigInt, nil
		}
		return Number, nil
	}
	return nil, unresolved("unknown operator %s", op.Text())
}

func (ev *evaluator) assertion(n *Node) (*Type, error) {
	named := n.NamedChildren()
	if len(named) == 0 {
		return nil, unresolved("empty assertion")
	}
	last := n.Children[len(n.Children)-1]
	if n.Kind == "satisfies_expression" || last.Kind == "const" || len(named) == 1 {
		return ev.expr(named[0])
	}
	return typeNode(named[len(named)-1]), nil
}

func (ev *evaluator) array(n *Node) (*Type, error) {
	elems := n.NamedChildren()
	if len(elems) == 0 {
		return ArrayOf(Any), nil
	}

	var types []*Type
	for _, e := range elems {
		if e.Kind == "spread_element" {
			t, err := ev.expr(e.FirstNamed())
			if err != nil {
				return nil, err
			}
			w := Widen(t)
			if w.kind != KindArray {
				return nil, unresolved("spread of non-array %s", w)
			}
			types = append(types, w.elem)
			continue
		}
		t, err := ev.expr(e)
		if err != nil {
			return nil, err
		}
		types = append(types, Widen(t))
	}
	return ArrayOf(UnionOf(types...)), nil
}

func (ev *evaluator) object(n *Node) (*Type, error) {
	var props []Property
	set := func(name string, t *Type) {
		for i := range props {
			if props[i].Name == name {
				props[i].Type = t
				return
			}
		}
		props = append(props, Property{Name: name, Type: t})
	}

	for _, c := range n.NamedChildren() {
		switch c.Kind {
		case "pair":
			key := c.Child("key")
			var name string
			switch key.Kind {
			case "property_identifier", "number":
				name = key.Text()
			case "string":
				name = stringValue(key)
			default:
				return nil, unresolved("computed property %s", key.Text())
			}
			t, err := ev.expr(c.Child("value"))
			if err != nil {
				return nil, err
			}
			set(name, Widen(t))

		case "shorthand_property_identifier":
			t, err := ev.identifier(c)
			if err != nil {
				return nil, err
			}
			set(c.Text(), Widen(t))

		case "method_definition":
			t, err := ev.function(c)
			if err != nil {
				return nil, err
			}
			set(c.Child("name").Text(), t)

		case "spread_element":
			t, err := ev.expr(c.FirstNamed())
			if err != nil {
				return nil, err
			}
			if t.kind != KindObject {
				return nil, unresolved("spread of %s", t)
			}
			for _, p := range t.props {
				set(p.Name, p.Type)
			}

		default:
			return nil, unresolved("object member %s", c.Kind)
		}
	}
	return ObjectOf(props), nil
}

// typeNode converts a type annotation into a Type. Shapes the model
// does not reason about are kept as their printed text.
func typeNode(n *Node) *Type {
	if n == nil {
		return Any
	}
	switch n.Kind {
	case "type_annotation", "parenthesized_type":
		return typeNode(n.FirstNamed())
	case "predefined_type":
		return parseTypeText(n.Text())
	case "literal_type":
		inner := n.FirstNamed()
		switch {
		case inner == nil:
			return Named(n.Text())
		case inner.Kind == "string":
			return Literal(quote(stringValue(inner)), String)
		case inner.Kind == "number":
			return numberLiteral(inner.Text())
		case inner.Kind == "true" || inner.Kind == "false":
			return Literal(inner.Kind, Boolean)
		case inner.Kind == "null":
			return Null
		case inner.Kind == "undefined":
			return Undefined
		}
		return Named(n.Text())
	case "union_type":
		var members []*Type
		for _, c := range n.NamedChildren() {
			members = append(members, typeNode(c))
		}
		return UnionOf(members...)
	case "array_type":
		return ArrayOf(typeNode(n.FirstNamed()))
	case "function_type", "constructor_type":
		return &Type{kind: KindFunction, name: normalizeSpace(n.Text())}
	}
	return parseTypeText(n.Text())
}

func parseTypeText(text string) *Type {
	text = normalizeSpace(text)
	switch text {
	case "any":
		return Any
	case "unknown":
		return Unknown
	case "string", "number", "boolean", "bigint", "symbol", "null", "undefined", "void", "never", "object":
		return Primitive(text)
	}
	return Named(text)
}

// awaited unwraps Promise<T>.
func awaited(t *Type) *Type {
	if t.kind == KindNamed && strings.HasPrefix(t.name, "Promise<") && strings.HasSuffix(t.name, ">") {
		return parseTypeText(t.name[len("Promise<") : len(t.name)-1])
	}
	return t
}

func isPrimitive(t *Type, name string) bool {
	return t.kind == KindPrimitive && t.name == name
}

// numberLiteral returns the literal type of a numeric literal, printed
// the way TypeScript prints number values.
func numberLiteral(text string) *Type {
	clean := strings.ReplaceAll(text, "_", "")
	if strings.HasSuffix(clean, "n") {
		return Literal(clean, BigInt)
	}

	lower := strings.ToLower(clean)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b") {
		if v, err := strconv.ParseInt(clean, 0, 64); err == nil {
			return Literal(strconv.FormatInt(v, 10), Number)
		}
		return Literal(clean, Number)
	}

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return Literal(clean, Number)
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e21 {
		return Literal(strconv.FormatFloat(v, 'f', -1, 64), Number)
	}
	return Literal(strconv.FormatFloat(v, 'g', -1, 64), Number)
}

package inference

import (
	"context"
	"errors"
)

// ErrUnresolved is returned by Provider.TypeOf when an expression has no
// statically known type. The inferencer skips such arguments.
var ErrUnresolved = errors.New("type could not be resolved")

// Parameter is a declared parameter of a function, in declaration order.
type Parameter struct {
	Name  string
	Index int
	Rest  bool // ...args
}

// Function is a function declaration owned by the provider.
type Function interface {
	Name() string
	File() string
	Parameters() []Parameter
}

// Reference is a located use of a declaration.
type Reference struct {
	File   string
	Line   int
	Column int
	Call   bool // the use is the callee of a call expression
}

// Expression is an argument expression at a call site.
type Expression interface {
	Text() string
}

// Argument is one entry of a call's argument list.
type Argument struct {
	Expr   Expression
	Spread bool // ...xs
}

// Call is a call expression that invokes a function.
type Call struct {
	File   string
	Line   int
	Column int
	Args   []Argument
}

// Type is a static type computed by the provider.
type Type interface {
	// Text is the printed form of the type, usable as an annotation.
	Text() string
	// Members returns the alternatives of a union, or the type itself.
	Members() []Type
}

// Provider supplies parse, reference, type and edit services over a
// source model. Read methods may be called from several goroutines at
// once; SetParameterType is only called from one.
type Provider interface {
	Functions(ctx context.Context, file string) ([]Function, error)
	References(ctx context.Context, fn Function) ([]Reference, error)
	Calls(ctx context.Context, file string, fn Function) ([]Call, error)
	TypeOf(ctx context.Context, expr Expression) (Type, error)
	BaseTypeOfLiteral(t Type) Type
	SetParameterType(fn Function, index int, typeText string) error
}

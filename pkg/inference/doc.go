// Package inference infers parameter types from call sites.
//
// For every function declared in a file, the Inferencer resolves all
// references, visits each referencing file once, and pairs the arguments
// of every call with the function's parameters by position. The static
// type of each argument is widened from literal to base type ("x" becomes
// string, 3 becomes number) and collected per parameter in first-seen
// order. The collected types are joined into a union and written back as
// the parameter's annotation:
//
//	function f(a) {}       // math.ts
//	f("x")                 // a.ts
//	f(5)                   // b.ts
//
// becomes
//
//	function f(a: string | number) {}
//
// Parsing, symbol resolution, typing and editing are delegated to a
// Provider. The pass only mutates the provider's in-memory model;
// persisting the result is a separate step.
package inference

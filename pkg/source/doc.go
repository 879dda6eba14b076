// Package source is the TypeScript source model behind parameter
// inference.
//
// Load parses every file of a project with tree-sitter, indexes module
// scopes, imports and exports, and links import specifiers to files
// through a Resolver. The resulting Model implements inference.Provider:
// it lists top-level functions, finds their references across files,
// types call arguments statically and records annotation edits.
//
//	m, err := source.Load(ctx, proj, files, source.LoadOptions{})
//	result, err := inference.New(m, inference.Options{}).Infer(ctx, path)
//	for _, change := range m.Changes() {
//	    // write change.Updated to change.Path
//	}
//
// Typing is shallow. Literals, object and array literals,
// functions, declared and inferred return types, enums, a table of
// built-in globals and methods, and imports followed across modules are
// understood. Anything else is reported as unresolved and skipped by
// the inferencer.
package source

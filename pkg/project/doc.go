// Package project finds and describes TypeScript projects.
//
// A project is the directory of a tsconfig.json. The package reads the
// config (JSON with comments, following extends), lists the source files
// it compiles and resolves import specifiers to files the way the
// TypeScript compiler does for relative imports, baseUrl and paths.
//
//	proj, err := project.DetectProject(".", "")
//	if errors.Is(err, project.ErrNoProject) {
//	    // not inside a TypeScript project
//	}
//	files, err := proj.SourceFiles()
//	path, ok := proj.Resolve("/repo/src/main.ts", "./math")
package project

// Package filesystem walks project trees with ignore rules suited to
// JavaScript and TypeScript repositories.
//
// Walk a directory with the default ignores:
//
//	err := filesystem.Walk(".", filesystem.WalkOptions{}, func(path string, d fs.DirEntry) error {
//	    fmt.Println(path)
//	    return nil
//	})
//
// Collect TypeScript sources, skipping declaration files:
//
//	files, err := filesystem.FindFiles("src", filesystem.WalkOptions{
//	    IgnorePatterns: []string{"*.d.ts"},
//	}, ".ts", ".tsx")
package filesystem

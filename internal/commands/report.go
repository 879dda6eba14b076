package commands

import (
	"fmt"
	"strings"

	"github.com/simonhull/firebird-suite/wren/pkg/inference"
	"github.com/simonhull/firebird-suite/wren/pkg/output"
)

// report prints what one inference pass found: every annotation
// written, every parameter skipped and every function with no calls.
func report(result *inference.Result, root string) {
	output.Info(fmt.Sprintf("%s: %d function(s)", relPath(root, result.File), len(result.Functions)))

	for _, fn := range result.Functions {
		if fn.Calls == 0 {
			output.Step(fmt.Sprintf("%s: no calls found (%d reference(s))", fn.Name, fn.References))
			continue
		}
		output.Verbose(fmt.Sprintf("%s: %d call(s) in %d file(s)", fn.Name, fn.Calls, len(fn.Files)))

		for _, p := range fn.Parameters {
			name := p.Name
			if p.Rest {
				name = "..." + name
			}
			switch {
			case p.Written:
				output.Step(fmt.Sprintf("%s(%s: %s)", fn.Name, name, p.Annotation))
			case p.SkipReason != "":
				output.Warn(fmt.Sprintf("%s(%s): %s", fn.Name, name, p.SkipReason))
			}
			if notes := parameterNotes(p); notes != "" {
				output.Verbose(fmt.Sprintf("%s(%s): %s", fn.Name, name, notes))
			}
		}
	}
}

func parameterNotes(p *inference.ParameterResult) string {
	var notes []string
	if p.Missing > 0 {
		notes = append(notes, fmt.Sprintf("%d call(s) omit it", p.Missing))
	}
	if p.Unaligned > 0 {
		notes = append(notes, fmt.Sprintf("%d call(s) spread before it", p.Unaligned))
	}
	if p.Unresolved > 0 {
		notes = append(notes, fmt.Sprintf("%d argument(s) could not be typed", p.Unresolved))
	}
	return strings.Join(notes, ", ")
}

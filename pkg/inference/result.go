package inference

// Result reports what one inference pass over a file found and wrote.
type Result struct {
	File      string
	Functions []*FunctionResult
}

// FunctionResult reports the call sites and inferred types of one function.
type FunctionResult struct {
	Name       string
	References int
	Files      []string // distinct files holding at least one reference
	Calls      int
	Parameters []*ParameterResult
}

// ParameterResult reports the inferred annotation of one parameter.
type ParameterResult struct {
	Name  string
	Rest  bool
	Types []string // distinct base types, first-seen order
	// Annotation is the text written to the declaration; empty when the
	// parameter was left unchanged.
	Annotation string
	Written    bool
	// SkipReason explains why a non-empty annotation was not written.
	SkipReason string

	Missing    int // calls with too few arguments
	Unaligned  int // calls where a spread argument ended alignment first
	Unresolved int // arguments whose type could not be resolved
}

// Changed returns the parameters that received a new annotation.
func (r *FunctionResult) Changed() []*ParameterResult {
	var out []*ParameterResult
	for _, p := range r.Parameters {
		if p.Written {
			out = append(out, p)
		}
	}
	return out
}

// Annotated counts the parameters written across all functions.
func (r *Result) Annotated() int {
	n := 0
	for _, fn := range r.Functions {
		n += len(fn.Changed())
	}
	return n
}

// Uncalled returns the functions for which no call site was found.
func (r *Result) Uncalled() []*FunctionResult {
	var out []*FunctionResult
	for _, fn := range r.Functions {
		if fn.Calls == 0 {
			out = append(out, fn)
		}
	}
	return out
}

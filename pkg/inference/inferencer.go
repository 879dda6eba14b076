package inference

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/firebird-suite/wren/pkg/logger"
)

// ErrNotAnnotatable is returned by Provider.SetParameterType when the
// declaration cannot carry a type annotation (for example a .js file).
var ErrNotAnnotatable = errors.New("parameter cannot be annotated")

// Options configures an inference pass.
type Options struct {
	// Workers bounds the number of functions read concurrently.
	// Zero means runtime.NumCPU().
	Workers int
	// Functions restricts the pass to the named functions. Empty means all.
	Functions []string
}

// Inferencer annotates function parameters with the union of the base
// types of the arguments passed at every call site.
type Inferencer struct {
	provider Provider
	opts     Options
	logger   logger.Logger
}

// New creates an Inferencer over the given provider.
func New(provider Provider, opts Options) *Inferencer {
	return &Inferencer{
		provider: provider,
		opts:     opts,
		logger:   logger.Default(),
	}
}

// WithLogger returns a new Inferencer with the specified logger
func (i *Inferencer) WithLogger(log logger.Logger) *Inferencer {
	return &Inferencer{
		provider: i.provider,
		opts:     i.opts,
		logger:   log,
	}
}

// collection holds what the read phase found for one function.
type collection struct {
	sets   []*TypeSet
	result *FunctionResult
}

// Infer runs one pass over the functions declared in file. Call sites are
// read for all functions first, then annotations are written in
// declaration order. Nothing is persisted; that is the caller's job.
func (i *Inferencer) Infer(ctx context.Context, file string) (*Result, error) {
	fns, err := i.provider.Functions(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("listing functions in %s: %w", file, err)
	}
	fns = i.selectFunctions(fns)

	i.logger.Info("Inferring parameter types",
		logger.F("file", file),
		logger.F("functions", len(fns)))

	workers := i.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	collected := make([]*collection, len(fns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for idx, fn := range fns {
		idx, fn := idx, fn
		g.Go(func() error {
			c, err := i.collect(gctx, fn)
			if err != nil {
				return fmt.Errorf("collecting call sites of %s: %w", fn.Name(), err)
			}
			collected[idx] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{File: file}
	for idx, fn := range fns {
		c := collected[idx]
		if err := i.apply(fn, c); err != nil {
			return nil, err
		}
		result.Functions = append(result.Functions, c.result)
	}

	i.logger.Info("Inference complete",
		logger.F("file", file),
		logger.F("annotated", result.Annotated()))

	return result, nil
}

func (i *Inferencer) selectFunctions(fns []Function) []Function {
	if len(i.opts.Functions) == 0 {
		return fns
	}
	wanted := make(map[string]bool, len(i.opts.Functions))
	for _, name := range i.opts.Functions {
		wanted[name] = true
	}
	var out []Function
	for _, fn := range fns {
		if wanted[fn.Name()] {
			out = append(out, fn)
		}
	}
	return out
}

// collect is the read phase for one function.
func (i *Inferencer) collect(ctx context.Context, fn Function) (*collection, error) {
	params := fn.Parameters()
	c := &collection{
		sets: make([]*TypeSet, len(params)),
		result: &FunctionResult{
			Name:       fn.Name(),
			Parameters: make([]*ParameterResult, len(params)),
		},
	}
	for idx, p := range params {
		c.sets[idx] = NewTypeSet()
		c.result.Parameters[idx] = &ParameterResult{Name: p.Name, Rest: p.Rest}
	}

	refs, err := i.provider.References(ctx, fn)
	if err != nil {
		return nil, fmt.Errorf("finding references: %w", err)
	}
	c.result.References = len(refs)

	seen := make(map[string]bool)
	for _, ref := range refs {
		if !seen[ref.File] {
			seen[ref.File] = true
			c.result.Files = append(c.result.Files, ref.File)
		}
	}

	for _, file := range c.result.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		calls, err := i.provider.Calls(ctx, file, fn)
		if err != nil {
			return nil, fmt.Errorf("finding calls in %s: %w", file, err)
		}

		for _, call := range calls {
			c.result.Calls++
			if err := i.align(ctx, params, call, c); err != nil {
				return nil, err
			}
		}
	}

	i.logger.Debug("Collected call sites",
		logger.F("function", fn.Name()),
		logger.F("references", c.result.References),
		logger.F("files", len(c.result.Files)),
		logger.F("calls", c.result.Calls))

	return c, nil
}

// align pairs the arguments of one call with the parameters by position.
// Missing arguments skip the pair; extra arguments are ignored. A spread
// argument ends positional alignment, and a rest parameter takes every
// remaining argument.
func (i *Inferencer) align(ctx context.Context, params []Parameter, call Call, c *collection) error {
	spreadAt := -1
	for idx, arg := range call.Args {
		if arg.Spread {
			spreadAt = idx
			break
		}
	}

	for pi, p := range params {
		pr := c.result.Parameters[pi]

		if p.Rest {
			if spreadAt >= 0 && spreadAt < pi {
				pr.Unaligned++
				continue
			}
			for ai := pi; ai < len(call.Args); ai++ {
				if call.Args[ai].Spread {
					pr.Unaligned++
					continue
				}
				if err := i.observe(ctx, call.Args[ai], c.sets[pi], pr); err != nil {
					return err
				}
			}
			continue
		}

		if spreadAt >= 0 && pi >= spreadAt {
			pr.Unaligned++
			continue
		}
		if pi >= len(call.Args) {
			pr.Missing++
			continue
		}
		if err := i.observe(ctx, call.Args[pi], c.sets[pi], pr); err != nil {
			return err
		}
	}
	return nil
}

// observe adds the base type of one argument to a parameter's set.
func (i *Inferencer) observe(ctx context.Context, arg Argument, set *TypeSet, pr *ParameterResult) error {
	t, err := i.provider.TypeOf(ctx, arg.Expr)
	if errors.Is(err, ErrUnresolved) {
		pr.Unresolved++
		i.logger.Debug("Skipping unresolved argument",
			logger.F("parameter", pr.Name),
			logger.F("argument", arg.Expr.Text()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("typing argument %q: %w", arg.Expr.Text(), err)
	}
	set.Add(i.provider.BaseTypeOfLiteral(t))
	return nil
}

// apply is the write phase for one function.
func (i *Inferencer) apply(fn Function, c *collection) error {
	for pi, pr := range c.result.Parameters {
		set := c.sets[pi]
		pr.Types = set.Texts()

		text := set.Union()
		if pr.Rest {
			text = set.ArrayOf()
		}
		if text == "" {
			continue
		}
		pr.Annotation = text

		err := i.provider.SetParameterType(fn, pi, text)
		if errors.Is(err, ErrNotAnnotatable) {
			pr.SkipReason = err.Error()
			i.logger.Warn("Parameter not annotated",
				logger.F("function", fn.Name()),
				logger.F("parameter", pr.Name),
				logger.F("reason", err))
			continue
		}
		if err != nil {
			return fmt.Errorf("annotating %s(%s): %w", fn.Name(), pr.Name, err)
		}
		pr.Written = true

		i.logger.Debug("Annotated parameter",
			logger.F("function", fn.Name()),
			logger.F("parameter", pr.Name),
			logger.F("type", text))
	}
	return nil
}

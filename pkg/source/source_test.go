package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/simonhull/firebird-suite/wren/internal/testutil"
	"github.com/simonhull/firebird-suite/wren/pkg/inference"
	"github.com/simonhull/firebird-suite/wren/pkg/logger"
	"github.com/simonhull/firebird-suite/wren/pkg/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	p *testutil.TestProject
	m *Model
}

func load(t *testing.T, archive string, match MatchMode) *fixture {
	t.Helper()

	p := testutil.NewTestProject(t, archive)
	proj, err := project.Open(p.Path("tsconfig.json"))
	require.NoError(t, err)
	files, err := proj.SourceFiles()
	require.NoError(t, err)

	m, err := Load(context.Background(), proj, files, LoadOptions{
		Workers: 2,
		Match:   match,
		Logger:  logger.NewSilentLogger(),
	})
	require.NoError(t, err)
	return &fixture{p: p, m: m}
}

// infer runs the inferencer on one file and returns the rewritten
// content of every changed file keyed by project-relative path.
func (fx *fixture) infer(t *testing.T, rel string) (*inference.Result, map[string]string) {
	t.Helper()

	inf := inference.New(fx.m, inference.Options{}).WithLogger(logger.NewSilentLogger())
	result, err := inf.Infer(context.Background(), fx.p.Path(rel))
	require.NoError(t, err)

	changed := make(map[string]string)
	for _, c := range fx.m.Changes() {
		rel, err := filepath.Rel(fx.p.Root, c.Path)
		require.NoError(t, err)
		changed[filepath.ToSlash(rel)] = string(c.Updated)
	}
	return result, changed
}

const tsconfig = `
-- tsconfig.json --
{ "compilerOptions": { "strict": true } }
`

func TestInfer_UnionAcrossFiles(t *testing.T) {
	fx := load(t, tsconfig+`
-- src/math.ts --
export function f(x) {
  return x;
}
-- src/a.ts --
import { f } from "./math";
f("x");
-- src/b.ts --
import { f } from "./math";
f(5);
`, MatchSymbol)

	result, changed := fx.infer(t, "src/math.ts")

	assert.Equal(t, "export function f(x: string | number) {\n  return x;\n}\n", changed["src/math.ts"])
	require.Len(t, result.Functions, 1)
	fn := result.Functions[0]
	assert.Equal(t, 2, fn.Calls)
	assert.Equal(t, []string{"string", "number"}, fn.Parameters[0].Types)
	assert.True(t, fn.Parameters[0].Written)
}

func TestInfer_MultipleParameters(t *testing.T) {
	fx := load(t, tsconfig+`
-- src/lib.ts --
export function g(a, b) {}
g(true, "y");
`, MatchSymbol)

	_, changed := fx.infer(t, "src/lib.ts")
	assert.Equal(t, "export function g(a: boolean, b: string) {}\ng(true, \"y\");\n", changed["src/lib.ts"])
}

func TestInfer_NoCallSitesLeavesFileUntouched(t *testing.T) {
	fx := load(t, tsconfig+`
-- src/lib.ts --
export function h(p) {}
`, MatchSymbol)

	result, changed := fx.infer(t, "src/lib.ts")
	assert.Empty(t, changed)
	require.Len(t, result.Uncalled(), 1)
	assert.Equal(t, "h", result.Uncalled()[0].Name)
}

func TestInfer_Idempotent(t *testing.T) {
	archive := tsconfig + `
-- src/lib.ts --
export function f(x, y = 1) {}
f("a", 2);
f(3);
`
	fx := load(t, archive, MatchSymbol)
	_, changed := fx.infer(t, "src/lib.ts")
	first := changed["src/lib.ts"]
	assert.Equal(t, "export function f(x: string | number, y: number = 1) {}\nf(\"a\", 2);\nf(3);\n", first)

	require.NoError(t, os.WriteFile(fx.p.Path("src/lib.ts"), []byte(first), 0644))
	again := &fixture{p: fx.p}
	proj, err := project.Open(fx.p.Path("tsconfig.json"))
	require.NoError(t, err)
	files, err := proj.SourceFiles()
	require.NoError(t, err)
	again.m, err = Load(context.Background(), proj, files, LoadOptions{Logger: logger.NewSilentLogger()})
	require.NoError(t, err)

	_, changed = again.infer(t, "src/lib.ts")
	assert.Empty(t, changed, "a second run must not change the file")
}

func TestInfer_ReplacesExistingAnnotation(t *testing.T) {
	fx := load(t, tsconfig+`
-- src/lib.ts --
export function k(x: any, y?: unknown) {}
k(1, "s");
`, MatchSymbol)

	_, changed := fx.infer(t, "src/lib.ts")
	assert.Equal(t, "export function k(x: number, y?: string) {}\nk(1, \"s\");\n", changed["src/lib.ts"])
}

func TestInfer_OptionalAndRestParameters(t *testing.T) {
	fx := load(t, tsconfig+`
-- src/lib.ts --
export function greet(name?, ...rest) {}
greet("a");
greet("b", 1, true);
`, MatchSymbol)

	result, changed := fx.infer(t, "src/lib.ts")
	assert.Equal(t, "export function greet(name?: string, ...rest: (number | boolean)[]) {}\ngreet(\"a\");\ngreet(\"b\", 1, true);\n", changed["src/lib.ts"])

	params := result.Functions[0].Parameters
	assert.True(t, params[1].Rest)
}

func TestInfer_ImportsAcrossModules(t *testing.T) {
	fx := load(t, tsconfig+`
-- src/math.ts --
export function scale(v) { return v; }
export default function main(opts) {}
-- src/index.ts --
export * from "./math";
-- src/alias.ts --
import { scale as s } from "./math";
s(1);
-- src/ns.ts --
import * as m from "./math";
m.scale("two");
-- src/barrel.ts --
import { scale } from "./index";
scale(true);
-- src/default.ts --
import run from "./math";
run({ verbose: true });
`, MatchSymbol)

	_, changed := fx.infer(t, "src/math.ts")
	assert.Equal(t,
		"export function scale(v: number | boolean | string) { return v; }\nexport default function main(opts: { verbose: boolean; }) {}\n",
		changed["src/math.ts"])
}

func TestInfer_ShadowedNamesAreNotCalls(t *testing.T) {
	archive := tsconfig + `
-- src/lib.ts --
export function f(x) {}
f(1);
-- src/other.ts --
function outer(f) {
  f("not a call of lib.f");
}
function f2() {
  const f = (s) => s;
  f(true);
}
`
	fx := load(t, archive, MatchSymbol)
	_, changed := fx.infer(t, "src/lib.ts")
	assert.Equal(t, "export function f(x: number) {}\nf(1);\n", changed["src/lib.ts"])
}

func TestInfer_NameModeMatchesFirstIdentifier(t *testing.T) {
	fx := load(t, tsconfig+`
-- src/lib.ts --
export function f(x) {}
f(1);
function shadow(f) {
  f("also counted");
}
`, MatchName)

	_, changed := fx.infer(t, "src/lib.ts")
	assert.Contains(t, changed["src/lib.ts"], "export function f(x: number | string) {}")
}

func TestInfer_JavaScriptIsSkipped(t *testing.T) {
	fx := load(t, `
-- tsconfig.json --
{ "compilerOptions": { "allowJs": true } }
-- src/lib.js --
export function f(x) {}
f(1);
`, MatchSymbol)

	result, changed := fx.infer(t, "src/lib.js")
	assert.Empty(t, changed)
	param := result.Functions[0].Parameters[0]
	assert.False(t, param.Written)
	assert.NotEmpty(t, param.SkipReason)
}

func TestInfer_UnresolvedArgumentsAreSkipped(t *testing.T) {
	fx := load(t, tsconfig+`
-- src/lib.ts --
import { external } from "some-package";
export function f(x) {}
f(external);
f(unknownGlobal);
`, MatchSymbol)

	result, changed := fx.infer(t, "src/lib.ts")
	assert.Empty(t, changed)
	assert.Equal(t, 2, result.Functions[0].Parameters[0].Unresolved)
}

func TestInfer_AmbientDeclarations(t *testing.T) {
	fx := load(t, tsconfig+`
-- src/lib.ts --
declare const z: any;
declare function label(n: number): string;
export function f(a) {}
export function g(b) {}
f(z);
f("s");
g(label(1));
`, MatchSymbol)

	result, changed := fx.infer(t, "src/lib.ts")
	require.Len(t, result.Functions, 2, "ambient functions are not inferred")
	f := result.Functions[0].Parameters[0]
	assert.Equal(t, 0, f.Unresolved)
	assert.Equal(t, "any", f.Annotation)
	assert.Equal(t, "string", result.Functions[1].Parameters[0].Annotation)
	assert.Contains(t, changed["src/lib.ts"], "export function f(a: any) {}")
}

func TestReferences(t *testing.T) {
	fx := load(t, tsconfig+`
-- src/lib.ts --
export function f(x) {}
const g = f;
f(1);
-- src/use.ts --
import { f } from "./lib";
f(2);
`, MatchSymbol)

	fns, err := fx.m.Functions(context.Background(), fx.p.Path("src/lib.ts"))
	require.NoError(t, err)
	require.Len(t, fns, 1)

	refs, err := fx.m.References(context.Background(), fns[0])
	require.NoError(t, err)

	var calls, files int
	seen := map[string]bool{}
	for _, r := range refs {
		if r.Call {
			calls++
		}
		if !seen[r.File] {
			seen[r.File] = true
			files++
		}
	}
	// declaration, alias, call, import specifier, call
	assert.Len(t, refs, 5)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, files)
	assert.Equal(t, fx.p.Path("src/lib.ts"), refs[0].File, "declaring file comes first")
}

func TestFunctions_TopLevelOnly(t *testing.T) {
	fx := load(t, tsconfig+`
-- src/lib.ts --
export function a(x, { y }, [z], this_: number) {}
function b() {
  function nested() {}
}
export const c = () => {};
function* gen(n) {}
export default function d(this: Window, e) {}
`, MatchSymbol)

	fns, err := fx.m.Functions(context.Background(), fx.p.Path("src/lib.ts"))
	require.NoError(t, err)

	var names []string
	for _, fn := range fns {
		names = append(names, fn.Name())
	}
	assert.Equal(t, []string{"a", "b", "gen", "d"}, names)

	params := fns[0].Parameters()
	require.Len(t, params, 4)
	assert.Equal(t, "x", params[0].Name)
	assert.Equal(t, "{ y }", params[1].Name)

	dParams := fns[3].Parameters()
	require.Len(t, dParams, 1, "this parameter is not a runtime parameter")
	assert.Equal(t, "e", dParams[0].Name)
}

func TestLoad_SkipsUnreadableFiles(t *testing.T) {
	p := testutil.NewTestProject(t, tsconfig+`
-- src/a.ts --
export function a() {}
`)
	proj, err := project.Open(p.Path("tsconfig.json"))
	require.NoError(t, err)

	m, err := Load(context.Background(), proj, []string{p.Path("src/a.ts"), p.Path("src/missing.ts"), p.Path("README.md")}, LoadOptions{
		Logger: logger.NewSilentLogger(),
	})
	require.NoError(t, err)
	assert.Len(t, m.Files(), 1)
}

func TestLoad_Cancelled(t *testing.T) {
	p := testutil.NewTestProject(t, tsconfig+`
-- src/a.ts --
export {}
`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, nil, []string{p.Path("src/a.ts")}, LoadOptions{Logger: logger.NewSilentLogger()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseMatchMode(t *testing.T) {
	mode, err := ParseMatchMode("")
	require.NoError(t, err)
	assert.Equal(t, MatchSymbol, mode)

	mode, err = ParseMatchMode("name")
	require.NoError(t, err)
	assert.Equal(t, MatchName, mode)

	_, err = ParseMatchMode("fuzzy")
	assert.Error(t, err)
}

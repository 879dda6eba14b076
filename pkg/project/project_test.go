package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/simonhull/firebird-suite/wren/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectProject_WalksUp(t *testing.T) {
	p := testutil.NewTestProject(t, `
-- tsconfig.json --
{
  // comments and trailing commas are fine
  "compilerOptions": { "strict": true, },
}
-- package.json --
{"name": "calc", "devDependencies": {"typescript": "^5.4.0"}}
-- src/deep/math.ts --
export function add(a, b) { return a + b }
`)

	proj, err := DetectProject(p.Path("src/deep"), "")
	require.NoError(t, err)

	assert.Equal(t, p.Root, proj.Root)
	assert.Equal(t, p.Path("tsconfig.json"), proj.ConfigPath)
	assert.Equal(t, "calc", proj.Name)
	assert.Equal(t, "^5.4.0", proj.TypeScript)
}

func TestDetectProject_FromFile(t *testing.T) {
	p := testutil.NewTestProject(t, `
-- tsconfig.json --
{}
-- src/a.ts --
export {}
`)

	proj, err := DetectProject(p.Path("src/a.ts"), "")
	require.NoError(t, err)
	assert.Equal(t, p.Root, proj.Root)
}

func TestDetectProject_NotFound(t *testing.T) {
	_, err := DetectProject(t.TempDir(), "wren-missing-tsconfig.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoProject)
}

func TestLoadTSConfig_Extends(t *testing.T) {
	p := testutil.NewTestProject(t, `
-- configs/base.json --
{
  "compilerOptions": {
    "allowJs": true,
    "baseUrl": "..",
    "paths": { "@lib/*": ["lib/*"] }
  },
  "exclude": ["legacy"]
}
-- app/tsconfig.json --
{
  "extends": "../configs/base",
  "compilerOptions": { "outDir": "out" },
  "include": ["src"]
}
`)

	cfg, err := LoadTSConfig(p.Path("app/tsconfig.json"))
	require.NoError(t, err)

	assert.True(t, cfg.AllowJS)
	assert.Equal(t, p.Root, cfg.BaseURL)
	assert.Equal(t, []string{filepath.Join(p.Root, "lib", "*")}, cfg.Paths["@lib/*"])
	assert.Equal(t, p.Path("app/out"), cfg.OutDir)
	assert.Equal(t, []string{filepath.ToSlash(p.Path("app/src")) + "/**/*"}, cfg.Include)
	assert.Equal(t, []string{filepath.ToSlash(p.Path("configs/legacy")) + "/**/*"}, cfg.Exclude)
}

func TestLoadTSConfig_ExtendsPackage(t *testing.T) {
	p := testutil.NewTestProject(t, `
-- node_modules/@tsconfig/node20/tsconfig.json --
{ "compilerOptions": { "allowJs": true } }
-- tsconfig.json --
{ "extends": "@tsconfig/node20/tsconfig.json" }
`)

	cfg, err := LoadTSConfig(p.Path("tsconfig.json"))
	require.NoError(t, err)
	assert.True(t, cfg.AllowJS)
}

func TestLoadTSConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		archive string
	}{
		{"invalid json", "-- tsconfig.json --\n{ \"include\": [ }\n"},
		{"missing extends", "-- tsconfig.json --\n{ \"extends\": \"./nope.json\" }\n"},
		{"bad extends type", "-- tsconfig.json --\n{ \"extends\": 42 }\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testutil.NewTestProject(t, tt.archive)
			_, err := LoadTSConfig(p.Path("tsconfig.json"))
			assert.Error(t, err)
		})
	}
}

func TestSourceFiles(t *testing.T) {
	p := testutil.NewTestProject(t, `
-- tsconfig.json --
{
  "compilerOptions": { "outDir": "dist" },
  "include": ["src"],
  "exclude": ["src/**/*.test.ts"],
  "files": ["scripts/setup.ts"]
}
-- src/a.ts --
export {}
-- src/view/b.tsx --
export {}
-- src/a.test.ts --
export {}
-- src/types.d.ts --
export {}
-- src/legacy.js --
export {}
-- dist/a.ts --
export {}
-- scripts/setup.ts --
export {}
-- scripts/other.ts --
export {}
-- src/node_modules/pkg/index.ts --
export {}
`)

	proj, err := Open(p.Path("tsconfig.json"))
	require.NoError(t, err)

	files, err := proj.SourceFiles()
	require.NoError(t, err)

	assert.Equal(t, []string{
		p.Path("scripts/setup.ts"),
		p.Path("src/a.ts"),
		p.Path("src/view/b.tsx"),
	}, files)
}

func TestSourceFiles_AllowJSAndDefaults(t *testing.T) {
	p := testutil.NewTestProject(t, `
-- tsconfig.json --
{ "compilerOptions": { "allowJs": true, "outDir": "build" } }
-- index.ts --
export {}
-- util.js --
export {}
-- build/index.js --
export {}
-- node_modules/dep/index.js --
export {}
`)

	proj, err := Open(p.Path("tsconfig.json"))
	require.NoError(t, err)

	files, err := proj.SourceFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{p.Path("index.ts"), p.Path("util.js")}, files)
}

func TestResolve(t *testing.T) {
	p := testutil.NewTestProject(t, `
-- tsconfig.json --
{
  "compilerOptions": {
    "baseUrl": "src",
    "paths": {
      "@app/*": ["app/*"],
      "@app/special": ["special/entry"],
      "#config": ["config/index.ts"]
    }
  }
}
-- src/main.ts --
export {}
-- src/math.ts --
export {}
-- src/esm.ts --
export {}
-- src/widgets/index.tsx --
export {}
-- src/app/store.ts --
export {}
-- src/special/entry.ts --
export {}
-- src/config/index.ts --
export {}
-- src/shared/util.ts --
export {}
`)

	proj, err := Open(p.Path("tsconfig.json"))
	require.NoError(t, err)

	from := p.Path("src/main.ts")
	tests := []struct {
		spec string
		want string
	}{
		{"./math", "src/math.ts"},
		{"./math.ts", "src/math.ts"},
		{"./esm.js", "src/esm.ts"},
		{"./widgets", "src/widgets/index.tsx"},
		{"@app/store", "src/app/store.ts"},
		{"@app/special", "src/special/entry.ts"},
		{"#config", "src/config/index.ts"},
		{"shared/util", "src/shared/util.ts"},
		{"./missing", ""},
		{"react", ""},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, ok := proj.Resolve(from, tt.spec)
			if tt.want == "" {
				assert.False(t, ok, "resolved to %s", got)
				return
			}
			require.True(t, ok)
			assert.Equal(t, p.Path(tt.want), got)
		})
	}
}

func TestMatchPathPattern(t *testing.T) {
	tests := []struct {
		pattern, spec string
		capture       string
		ok            bool
	}{
		{"@app/*", "@app/store", "store", true},
		{"@app/*", "@app/a/b", "a/b", true},
		{"*.css", "theme.css", "theme", true},
		{"@app/*", "@other/x", "", false},
		{"exact", "exact", "", true},
		{"exact", "exactly", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.spec, func(t *testing.T) {
			capture, ok := matchPathPattern(tt.pattern, tt.spec)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.capture, capture)
		})
	}
}

func TestOpen_MissingConfig(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "tsconfig.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoProject)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

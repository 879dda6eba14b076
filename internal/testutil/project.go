package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"
)

// TestProject is a temporary TypeScript project written from a txtar
// archive.
type TestProject struct {
	Root string
	t    *testing.T
}

// NewTestProject writes every file of the archive text into a fresh
// temporary directory.
func NewTestProject(t *testing.T, archive string) *TestProject {
	t.Helper()
	return writeArchive(t, txtar.Parse([]byte(archive)))
}

// LoadTestProject is NewTestProject for an archive stored on disk,
// typically under testdata/.
func LoadTestProject(t *testing.T, path string) *TestProject {
	t.Helper()

	ar, err := txtar.ParseFile(path)
	if err != nil {
		t.Fatalf("reading archive %s: %v", path, err)
	}
	return writeArchive(t, ar)
}

func writeArchive(t *testing.T, ar *txtar.Archive) *TestProject {
	t.Helper()

	p := &TestProject{Root: t.TempDir(), t: t}
	for _, f := range ar.Files {
		p.WriteFile(f.Name, string(f.Data))
	}
	return p
}

// Path returns the absolute path of a project-relative file.
func (p *TestProject) Path(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// WriteFile writes a project-relative file, creating directories.
func (p *TestProject) WriteFile(rel, content string) {
	p.t.Helper()

	path := p.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		p.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		p.t.Fatal(err)
	}
}

// ReadFile reads a project-relative file.
func (p *TestProject) ReadFile(rel string) string {
	p.t.Helper()

	data, err := os.ReadFile(p.Path(rel))
	if err != nil {
		p.t.Fatalf("reading %s: %v", rel, err)
	}
	return string(data)
}

// FileExists checks if a project-relative file exists.
func (p *TestProject) FileExists(rel string) bool {
	p.t.Helper()

	_, err := os.Stat(p.Path(rel))
	return err == nil
}

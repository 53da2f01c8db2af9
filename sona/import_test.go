package sona

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-quicktest/qt"
)

// writeScripts lays out a directory of Sona source files and returns it,
// for Context.RunSource calls that exercise the module loader's
// relative-path resolution (module/loader.go).
func writeScripts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		qt.Assert(t, qt.IsNil(os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644)))
	}
	return dir
}

func TestImportSharesModuleAcrossAliases(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"shared.sona": `let counter = 1`,
		"main.sona": `
import shared
import shared as also_shared
print(shared.counter)
print(also_shared.counter)
`,
	})
	c := New(Config{})
	f, err := os.ReadFile(filepath.Join(dir, "main.sona"))
	qt.Assert(t, qt.IsNil(err))
	err = c.RunSource(context.Background(), filepath.Join(dir, "main.sona"), f)
	qt.Assert(t, qt.IsNil(err))
}

// TestMutualImportWithoutCrossReadsSucceeds covers spec.md §8 scenario
// 5: a.sona and b.sona import each other, but neither reads a name off
// the other before it's defined, so the cycle is never actually
// observed and both modules load cleanly.
func TestMutualImportWithoutCrossReadsSucceeds(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"a.sona": "import b\nlet v = 1\n",
		"b.sona": "import a\nlet w = 2\n",
	})
	c := New(Config{})
	src, err := os.ReadFile(filepath.Join(dir, "a.sona"))
	qt.Assert(t, qt.IsNil(err))
	runErr := c.RunSource(context.Background(), filepath.Join(dir, "a.sona"), src)
	qt.Assert(t, qt.IsNil(runErr))
}

// TestMutualImportReadingUnresolvedNameFails covers the other half of
// spec.md §4.5: once the cycle is actually observed (b reads a.v while
// a is still suspended at its own `import b` line, before v exists),
// resolution fails the same way any missing module attribute would.
func TestMutualImportReadingUnresolvedNameFails(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"a.sona": "import b\nlet v = 1\n",
		"b.sona": "import a\nprint(a.v)\n",
	})
	c := New(Config{})
	src, err := os.ReadFile(filepath.Join(dir, "a.sona"))
	qt.Assert(t, qt.IsNil(err))
	runErr := c.RunSource(context.Background(), filepath.Join(dir, "a.sona"), src)
	qt.Assert(t, qt.IsNotNil(runErr))
}

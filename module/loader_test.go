package module

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/Bryantad/Sona-sub003/eval"
	"github.com/Bryantad/Sona-sub003/internal/frame"
	"github.com/Bryantad/Sona-sub003/internal/value"
)

func newLoader(t *testing.T, projectRoot string, searchPaths ...string) *Loader {
	t.Helper()
	global := frame.New()
	interp := eval.New(global, nil, "")
	l := New(interp, searchPaths, projectRoot)
	interp.Importer = l
	return l
}

func TestImportCachesByContentDigest(t *testing.T) {
	dir := t.TempDir()
	modPath := filepath.Join(dir, "m.sona")
	qt.Assert(t, qt.IsNil(os.WriteFile(modPath, []byte("let v = 1\n"), 0o644)))

	l := newLoader(t, "")
	main := filepath.Join(dir, "main.sona")

	exp1, err := l.Import(context.Background(), []string{"m"}, main)
	qt.Assert(t, qt.IsNil(err))
	v1, ok := exp1.Get("v")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(v1.String(), "1"))

	// content unchanged: second Import is served straight from cache,
	// still seeing the same value.
	exp2, err := l.Import(context.Background(), []string{"m"}, main)
	qt.Assert(t, qt.IsNil(err))
	v2, _ := exp2.Get("v")
	qt.Assert(t, qt.Equals(v2.String(), "1"))

	// content changes on disk: the digest check invalidates the cached
	// entry and the next Import re-reads the new value.
	qt.Assert(t, qt.IsNil(os.WriteFile(modPath, []byte("let v = 2\n"), 0o644)))
	exp3, err := l.Import(context.Background(), []string{"m"}, main)
	qt.Assert(t, qt.IsNil(err))
	v3, _ := exp3.Get("v")
	qt.Assert(t, qt.Equals(v3.String(), "2"))
}

func TestResolveVersionedPicksHighestSemver(t *testing.T) {
	projectRoot := t.TempDir()
	modsDir := filepath.Join(projectRoot, ".sona_modules")
	qt.Assert(t, qt.IsNil(os.MkdirAll(filepath.Join(modsDir, "pkg@v1.0.0"), 0o755)))
	qt.Assert(t, qt.IsNil(os.MkdirAll(filepath.Join(modsDir, "pkg@v1.2.0"), 0o755)))
	qt.Assert(t, qt.IsNil(os.WriteFile(filepath.Join(modsDir, "pkg@v1.0.0.sona"), []byte("let a = 1\n"), 0o644)))
	qt.Assert(t, qt.IsNil(os.WriteFile(filepath.Join(modsDir, "pkg@v1.2.0.sona"), []byte("let a = 2\n"), 0o644)))

	l := newLoader(t, projectRoot)
	file, ok := l.resolveVersioned(modsDir, []string{"pkg"})
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(filepath.Base(file), "pkg@v1.2.0.sona"))
}

func TestRegisterNativeTakesPriority(t *testing.T) {
	dir := t.TempDir()
	qt.Assert(t, qt.IsNil(os.WriteFile(filepath.Join(dir, "native.sona"), []byte("let v = 1\n"), 0o644)))

	l := newLoader(t, "")
	d := value.NewDict()
	d.Set("v", value.String("native-value"))
	l.RegisterNative("native", d)

	exports, err := l.Import(context.Background(), []string{"native"}, filepath.Join(dir, "main.sona"))
	qt.Assert(t, qt.IsNil(err))
	v, ok := exports.Get("v")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(v.String(), "native-value"))
}

package sona

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/Bryantad/Sona-sub003/builtins"
)

// updateGoldenFiles mirrors cue-lang-cue's internal/cuetest.UpdateGoldenFiles: set
// SONA_UPDATE to have a failing cmp rewrite the txtar's want.txt in place.
var updateGoldenFiles = os.Getenv("SONA_UPDATE") != ""

// TestScripts runs every testdata/scripts/*.txtar archive as a whole Sona
// program plus its expected stdout, covering the end-to-end scenarios
// (hello world, recursion/closures, break scoping, try/finally-with-return,
// import alias sharing, a mutual import loading cleanly, chained comparison) as
// golden-file tests rather than hand-written assertions.
func TestScripts(t *testing.T) {
	p := testscript.Params{
		Dir:                 "testdata/scripts",
		UpdateScripts:       updateGoldenFiles,
		RequireExplicitExec: true,
		RequireUniqueNames:  true,
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			// run loads and executes a single Sona source file in-process,
			// writing its stdout to the script's stdout buffer.
			"run": func(ts *testscript.TestScript, neg bool, args []string) {
				if len(args) != 1 {
					ts.Fatalf("usage: run FILE.sona")
				}
				path := ts.MkAbs(args[0])
				src, err := os.ReadFile(path)
				ts.Check(err)

				c := New(Config{IO: &builtins.IO{Out: ts.Stdout()}})
				runErr := c.RunSource(context.Background(), path, src)
				if runErr == nil && neg {
					ts.Fatalf("run %s: expected failure, succeeded", args[0])
				}
				if runErr != nil {
					if !neg {
						ts.Fatalf("run %s: %v", args[0], runErr)
					}
					fmt.Fprintln(ts.Stderr(), runErr)
				}
			},
		},
	}
	testscript.Run(t, p)
}

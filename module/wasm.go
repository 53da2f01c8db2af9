package module

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/Bryantad/Sona-sub003/internal/value"
)

// resolveWasm looks for a compiled WebAssembly module named after path
// in each configured search root (SPEC_FULL.md §4.5's extension of
// import-resolution step 2, mirroring cue/wasm hosting CUE's own
// @extern(wasm) attribute with the same runtime).
func (l *Loader) resolveWasm(path []string) (string, bool) {
	rel := filepath.Join(path...) + ".wasm"
	for _, root := range l.SearchPaths {
		candidate := filepath.Join(root, rel)
		if fileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (l *Loader) runtime(ctx context.Context) wazero.Runtime {
	l.wasmOnce.Do(func() {
		l.wasmRT = wazero.NewRuntime(ctx)
		wasi_snapshot_preview1.MustInstantiate(ctx, l.wasmRT)
	})
	return l.wasmRT
}

// loadWasmModule compiles and instantiates the module at file, wrapping
// every exported function as a value.Native. Only functions whose
// params and results are all i32/i64 are exposed — the deny-pattern
// sandbox spec.md §5 calls for falls naturally out of wazero's instance
// boundary (nothing beyond the exported symbols is reachable); this
// ABI restriction keeps the Sona-side wrapper a straight int64 marshal
// with no host-memory string passing to design around.
func (l *Loader) loadWasmModule(ctx context.Context, file string) (value.Dict, error) {
	rt := l.runtime(ctx)
	wasmBytes, err := os.ReadFile(file)
	if err != nil {
		return value.Dict{}, err
	}
	code, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		return value.Dict{}, fmt.Errorf("compiling %s: %w", file, err)
	}
	mod, err := rt.InstantiateModule(ctx, code, wazero.NewModuleConfig())
	if err != nil {
		return value.Dict{}, fmt.Errorf("instantiating %s: %w", file, err)
	}

	exports := value.NewDict()
	for name, def := range code.ExportedFunctions() {
		fn := mod.ExportedFunction(name)
		if fn == nil || !wasmABIOK(def) {
			continue
		}
		name := name
		exports.Set(name, value.Native{Name: name, Fn: wrapWasmFunc(ctx, fn)})
	}
	return exports, nil
}

func wasmABIOK(def api.FunctionDefinition) bool {
	for _, t := range def.ParamTypes() {
		if t != api.ValueTypeI32 && t != api.ValueTypeI64 {
			return false
		}
	}
	for _, t := range def.ResultTypes() {
		if t != api.ValueTypeI32 && t != api.ValueTypeI64 {
			return false
		}
	}
	return true
}

func wrapWasmFunc(ctx context.Context, fn api.Function) value.NativeFn {
	return func(args []value.Value) (value.Value, error) {
		params := make([]uint64, len(args))
		for i, a := range args {
			n, ok := a.(value.Int)
			if !ok {
				return nil, fmt.Errorf("wasm call: argument %d must be int, got %s", i, a.Kind())
			}
			params[i] = uint64(n)
		}
		results, err := fn.Call(ctx, params...)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return value.NullValue, nil
		}
		return value.Int(int64(results[0])), nil
	}
}

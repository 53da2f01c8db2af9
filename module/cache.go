package module

import (
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/opencontainers/go-digest"

	"github.com/Bryantad/Sona-sub003/internal/value"
)

func digestFromString(s string) digest.Digest {
	d, err := digest.Parse(s)
	if err != nil {
		return ""
	}
	return d
}

// persistedValue is a CBOR-friendly mirror of value.Value restricted to
// the kinds that survive a process restart meaningfully: primitives,
// lists, and dicts of the same. Function/Native/Class/Instance/Module
// exports can't be reconstructed from bytes alone (a Function closes
// over a live *frame.Frame), so an entry containing one of those is
// simply not persisted — the next run falls back to re-executing that
// module from source, same as a cold cache.
type persistedValue struct {
	Kind  string           `cbor:"kind"`
	Bool  bool             `cbor:"bool,omitempty"`
	Int   int64            `cbor:"int,omitempty"`
	Float float64          `cbor:"float,omitempty"`
	Str   string           `cbor:"str,omitempty"`
	List  []persistedValue `cbor:"list,omitempty"`
	Keys  []string         `cbor:"keys,omitempty"`
	Vals  []persistedValue `cbor:"vals,omitempty"`
}

// persistedEntry is one module's on-disk cache record: spec.md's
// load-once Module table keyed by path, extended (SPEC_FULL.md §4.5)
// with a content digest so a long-lived host can detect on-disk source
// drift between interpreter instances without re-hashing by hand.
type persistedEntry struct {
	Path    string           `cbor:"path"`
	Digest  string           `cbor:"digest"`
	Names   []string         `cbor:"names"`
	Exports []persistedValue `cbor:"exports"`
}

func toPersisted(v value.Value) (persistedValue, bool) {
	switch x := v.(type) {
	case value.Null:
		return persistedValue{Kind: "null"}, true
	case value.Bool:
		return persistedValue{Kind: "bool", Bool: bool(x)}, true
	case value.Int:
		return persistedValue{Kind: "int", Int: int64(x)}, true
	case value.Float:
		return persistedValue{Kind: "float", Float: float64(x)}, true
	case value.String:
		return persistedValue{Kind: "str", Str: string(x)}, true
	case value.List:
		out := make([]persistedValue, 0, len(*x.Elems))
		for _, e := range *x.Elems {
			pv, ok := toPersisted(e)
			if !ok {
				return persistedValue{}, false
			}
			out = append(out, pv)
		}
		return persistedValue{Kind: "list", List: out}, true
	case value.Dict:
		keys := x.Keys()
		vals := make([]persistedValue, 0, len(keys))
		for _, k := range keys {
			e, _ := x.Get(k)
			pv, ok := toPersisted(e)
			if !ok {
				return persistedValue{}, false
			}
			vals = append(vals, pv)
		}
		return persistedValue{Kind: "dict", Keys: keys, Vals: vals}, true
	default:
		return persistedValue{}, false
	}
}

func fromPersisted(pv persistedValue) value.Value {
	switch pv.Kind {
	case "bool":
		return value.Bool(pv.Bool)
	case "int":
		return value.Int(pv.Int)
	case "float":
		return value.Float(pv.Float)
	case "str":
		return value.String(pv.Str)
	case "list":
		elems := make([]value.Value, len(pv.List))
		for i, e := range pv.List {
			elems[i] = fromPersisted(e)
		}
		return value.NewList(elems)
	case "dict":
		d := value.NewDict()
		for i, k := range pv.Keys {
			d.Set(k, fromPersisted(pv.Vals[i]))
		}
		return d
	default:
		return value.Null{}
	}
}

// SaveCache CBOR-encodes every currently cached module (skipping entries
// that hold a non-primitive export, see persistedValue) to path, so a
// long-lived host (spec.md §6 embedding API) can warm-start its next
// process without re-running every imported module from source.
func (l *Loader) SaveCache(path string) error {
	l.mu.Lock()
	entries := make([]persistedEntry, 0, len(l.cache))
	for key, ce := range l.cache {
		pe := persistedEntry{Path: key, Digest: ce.digest.String()}
		ok := true
		for _, name := range ce.exports.Keys() {
			v, _ := ce.exports.Get(name)
			pv, valOK := toPersisted(v)
			if !valOK {
				ok = false
				break
			}
			pe.Names = append(pe.Names, name)
			pe.Exports = append(pe.Exports, pv)
		}
		if ok {
			entries = append(entries, pe)
		}
	}
	l.mu.Unlock()

	data, err := cbor.Marshal(entries)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadCache restores a cache file written by SaveCache. Digests are
// re-checked against on-disk source the next time each module is
// imported (see Import), so a stale restored entry is never served past
// its first use.
func (l *Loader) LoadCache(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var entries []persistedEntry
	if err := cbor.Unmarshal(data, &entries); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, pe := range entries {
		exports := value.NewDict()
		for i, name := range pe.Names {
			exports.Set(name, fromPersisted(pe.Exports[i]))
		}
		l.cache[pe.Path] = cacheEntry{digest: digestFromString(pe.Digest), exports: exports}
	}
	return nil
}

// Package token defines source positions and the token kinds produced by
// the Sona scanner.
package token

import "fmt"

// Position describes a location in a source file, in line/column terms
// suitable for human-readable diagnostics (spec.md's "span": file, line,
// column).
type Position struct {
	Filename string
	Offset   int // byte offset, starting at 0
	Line     int // line number, starting at 1
	Column   int // column number, starting at 1
}

// IsValid reports whether the position carries real line information.
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	if !p.IsValid() {
		if p.Filename != "" {
			return p.Filename
		}
		return "-"
	}
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// File tracks the line-offset table for one source file, so that byte
// offsets produced while scanning can be translated into line/column pairs
// on demand rather than on every character read.
type File struct {
	name  string
	size  int
	lines []int // byte offset of the first character of each line
}

// NewFile creates a File for a source of the given size.
func NewFile(name string, size int) *File {
	return &File{name: name, size: size, lines: []int{0}}
}

// Name returns the file name as passed to NewFile.
func (f *File) Name() string { return f.name }

// Size returns the file size as passed to NewFile.
func (f *File) Size() int { return f.size }

// AddLine records the offset of the first byte of a new line. Offsets must
// be added in increasing order; out-of-order or out-of-range offsets are
// ignored.
func (f *File) AddLine(offset int) {
	if n := len(f.lines); (n == 0 || f.lines[n-1] < offset) && offset < f.size {
		f.lines = append(f.lines, offset)
	}
}

// Pos constructs a position handle for the given byte offset within f.
func (f *File) Pos(offset int) Pos {
	if offset < 0 {
		offset = 0
	} else if offset > f.size {
		offset = f.size
	}
	return Pos{file: f, offset: offset}
}

// Position resolves a Pos into a human-readable line/column triple.
func (f *File) Position(p Pos) Position {
	if p.file != f || p.file == nil {
		return Position{}
	}
	offset := p.offset
	line := searchLines(f.lines, offset)
	col := offset - f.lines[line] + 1
	return Position{Filename: f.name, Offset: offset, Line: line + 1, Column: col}
}

// searchLines returns the index of the line containing offset, assuming
// lines is sorted and lines[0] == 0.
func searchLines(lines []int, offset int) int {
	lo, hi := 0, len(lines)
	for lo < hi {
		mid := (lo + hi) / 2
		if lines[mid] <= offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo - 1
}

// Pos is a compact, comparable reference to a byte offset within a
// specific File. The zero Pos (NoPos) carries no location.
type Pos struct {
	file   *File
	offset int
}

// NoPos is the zero value of Pos; it carries no file or offset.
var NoPos = Pos{}

// IsValid reports whether p refers to a real file.
func (p Pos) IsValid() bool { return p.file != nil }

// Position resolves p to a human-readable line/column triple.
func (p Pos) Position() Position {
	if p.file == nil {
		return Position{}
	}
	return p.file.Position(p)
}

// Filename returns the name of the file p belongs to, or "" for NoPos.
func (p Pos) Filename() string {
	if p.file == nil {
		return ""
	}
	return p.file.name
}

// Offset returns the byte offset of p within its file.
func (p Pos) Offset() int { return p.offset }

func (p Pos) String() string { return p.Position().String() }

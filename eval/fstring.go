package eval

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Bryantad/Sona-sub003/ast"
	"github.com/Bryantad/Sona-sub003/errors"
	"github.com/Bryantad/Sona-sub003/internal/frame"
	"github.com/Bryantad/Sona-sub003/internal/signal"
	"github.com/Bryantad/Sona-sub003/internal/value"
	"github.com/Bryantad/Sona-sub003/token"
)

var fstringPrinter = message.NewPrinter(language.AmericanEnglish)

func (in *Interp) evalFString(ctx context.Context, n *ast.FString, fr *frame.Frame) (value.Value, *signal.Signal) {
	var b strings.Builder
	b.WriteString(n.Parts[0])
	for i, x := range n.Exprs {
		v, sig := in.evalExpr(ctx, x, fr)
		if sig != nil {
			return nil, sig
		}
		formatted, err := applyFormatSpec(v, n.Specs[i])
		if err != nil {
			if se, ok := err.(*errors.Error); ok {
				se.Pos = n.TokPos
				return nil, signal.NewThrowErr(se)
			}
			return nil, signal.NewThrowErr(errors.Newf(errors.ValueError, n.TokPos, "%v", err))
		}
		b.WriteString(formatted)
		b.WriteString(n.Parts[i+1])
	}
	return value.String(b.String()), nil
}

// formatSpec is the frozen Python-subset grammar spec.md resolves its
// open question to: [[fill]align][sign][width][,][.precision][type], where
// align is one of < > ^, sign is one of + - (space), and type is one of
// s d f x X b % (string/decimal/fixed/hex/upper hex/binary/percent).
// Grounded on Python's
// str.format mini-language, implemented with golang.org/x/text/message
// for the "," thousands-separator group rather than hand-rolling digit
// grouping.
type formatSpec struct {
	fill    rune
	align   byte // 0, '<', '>', '^'
	sign    byte // 0, '+', '-', ' '
	comma   bool
	prec    int
	hasPrec bool
	typ     byte // 0, 's', 'd', 'f', 'x', 'X', 'b', '%'
	width   int
}

func parseFormatSpec(spec string) formatSpec {
	var fs formatSpec
	fs.fill = ' '
	i := 0
	runes := []rune(spec)
	if len(runes) >= 2 && isAlignChar(runes[1]) {
		fs.fill = runes[0]
		fs.align = byte(runes[1])
		i = 2
	} else if len(runes) >= 1 && isAlignChar(runes[0]) {
		fs.align = byte(runes[0])
		i = 1
	}
	if i < len(runes) && (runes[i] == '+' || runes[i] == '-' || runes[i] == ' ') {
		fs.sign = byte(runes[i])
		i++
	}
	widthStart := i
	for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
		i++
	}
	if i > widthStart {
		fs.width, _ = strconv.Atoi(string(runes[widthStart:i]))
	}
	if i < len(runes) && runes[i] == ',' {
		fs.comma = true
		i++
	}
	if i < len(runes) && runes[i] == '.' {
		i++
		precStart := i
		for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
			i++
		}
		fs.prec, _ = strconv.Atoi(string(runes[precStart:i]))
		fs.hasPrec = true
	}
	if i < len(runes) {
		fs.typ = byte(runes[i])
	}
	return fs
}

func isAlignChar(r rune) bool { return r == '<' || r == '>' || r == '^' }

func applyFormatSpec(v value.Value, spec string) (string, error) {
	if spec == "" {
		return v.String(), nil
	}
	fs := parseFormatSpec(spec)
	body, err := renderBody(v, fs)
	if err != nil {
		return "", err
	}
	return pad(body, fs), nil
}

func renderBody(v value.Value, fs formatSpec) (string, error) {
	switch fs.typ {
	case 'd':
		i, ok := asInt(v)
		if !ok {
			return "", errors.Newf(errors.TypeError, token.NoPos, "format spec 'd' requires a numeric value")
		}
		if fs.comma {
			return withSign(fstringPrinter.Sprintf("%d", i), fs.sign, i < 0), nil
		}
		return withSign(strconv.FormatInt(absInt(i), 10), fs.sign, i < 0), nil
	case 'f':
		f, ok := asFloat(v)
		if !ok {
			return "", errors.Newf(errors.TypeError, token.NoPos, "format spec 'f' requires a numeric value")
		}
		prec := 6
		if fs.hasPrec {
			prec = fs.prec
		}
		if fs.comma {
			return withSign(fstringPrinter.Sprintf("%.*f", prec, f), fs.sign, f < 0), nil
		}
		return withSign(strconv.FormatFloat(absFloat(f), 'f', prec, 64), fs.sign, f < 0), nil
	case 'x', 'X':
		i, ok := asInt(v)
		if !ok {
			return "", errors.Newf(errors.TypeError, token.NoPos, "format spec 'x' requires an integer value")
		}
		s := strconv.FormatInt(absInt(i), 16)
		if fs.typ == 'X' {
			s = strings.ToUpper(s)
		}
		return withSign(s, fs.sign, i < 0), nil
	case 'b':
		i, ok := asInt(v)
		if !ok {
			return "", errors.Newf(errors.TypeError, token.NoPos, "format spec 'b' requires an integer value")
		}
		return withSign(strconv.FormatInt(absInt(i), 2), fs.sign, i < 0), nil
	case '%':
		f, ok := asFloat(v)
		if !ok {
			return "", errors.Newf(errors.TypeError, token.NoPos, "format spec '%%' requires a numeric value")
		}
		prec := 6
		if fs.hasPrec {
			prec = fs.prec
		}
		return strconv.FormatFloat(f*100, 'f', prec, 64) + "%", nil
	case 's', 0:
		if fs.comma && fs.typ == 0 {
			switch x := v.(type) {
			case value.Int:
				return withSign(fstringPrinter.Sprintf("%d", absInt(int64(x))), fs.sign, x < 0), nil
			case value.Float:
				return withSign(fstringPrinter.Sprintf("%v", absFloat(float64(x))), fs.sign, x < 0), nil
			}
		}
		s := v.String()
		if str, ok := v.(value.String); ok {
			s = string(str)
		}
		if fs.hasPrec && len(s) > fs.prec {
			s = s[:fs.prec]
		}
		return s, nil
	}
	return "", errors.Newf(errors.ValueError, token.NoPos, "unknown format type %q", string(fs.typ))
}

func withSign(s string, sign byte, neg bool) string {
	if neg {
		return "-" + s
	}
	switch sign {
	case '+':
		return "+" + s
	case ' ':
		return " " + s
	}
	return s
}

func asInt(v value.Value) (int64, bool) {
	switch x := v.(type) {
	case value.Int:
		return int64(x), true
	case value.Float:
		return int64(x), true
	}
	return 0, false
}

func asFloat(v value.Value) (float64, bool) {
	switch x := v.(type) {
	case value.Int:
		return float64(x), true
	case value.Float:
		return float64(x), true
	}
	return 0, false
}

func absInt(i int64) int64 {
	if i < 0 {
		return -i
	}
	return i
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func pad(s string, fs formatSpec) string {
	n := len([]rune(s))
	if n >= fs.width {
		return s
	}
	gap := fs.width - n
	fill := string(fs.fill)
	align := fs.align
	if align == 0 {
		align = '<'
		if fs.typ != 0 && fs.typ != 's' {
			align = '>'
		}
	}
	switch align {
	case '>':
		return strings.Repeat(fill, gap) + s
	case '^':
		left := gap / 2
		right := gap - left
		return strings.Repeat(fill, left) + s + strings.Repeat(fill, right)
	default:
		return s + strings.Repeat(fill, gap)
	}
}

// Package printer writes runtime values back out as source text: a Printer
// value with Write/Display entry points writing to an io.Writer, covering
// R7RS's write/display grammar. Cycle detection assigns a datum label to a
// value the first time it is seen a second time during a single print.
package printer

import (
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/go-scm/go-scm/internal/runtime"
)

// Write renders v in `write` form: strings and characters are escaped so
// that reading the output back reproduces an equal? value.
func Write(w io.Writer, v runtime.Value) error {
	p := &printer{w: w, quote: true}
	p.scan(v, make(map[runtime.Value]bool))
	return p.print(v)
}

// Display renders v in `display` form: strings print without quotes and
// characters print as their literal glyph, matching R7RS `display`.
func Display(w io.Writer, v runtime.Value) error {
	p := &printer{w: w, quote: false}
	p.scan(v, make(map[runtime.Value]bool))
	return p.print(v)
}

// WriteString/DisplayString are convenience wrappers returning the
// rendered text directly, used by internal/eval's REPL-adjacent tooling
// and by builtins that need a string without a temporary buffer.
func WriteString(v runtime.Value) string {
	var b strings.Builder
	_ = Write(&b, v)
	return b.String()
}

func DisplayString(v runtime.Value) string {
	var b strings.Builder
	_ = Display(&b, v)
	return b.String()
}

type printer struct {
	w io.Writer
	quote bool // write (true) vs display (false)

	// labels assigns datum labels to values visited more than once during
	// scan, so a cyclic or shared structure prints as `#N=`/`#N#` instead of
	// looping forever.
	labels map[runtime.Value]int
	nextLabel int
	emitted map[runtime.Value]bool
}

// scan walks v once to find every Pair/Vector reachable more than once
// (shared or cyclic), assigning each a label before any printing happens —
// printing needs to know up front whether a label is coming.
func (p *printer) scan(v runtime.Value, seen map[runtime.Value]bool) {
	if p.labels == nil {
		p.labels = make(map[runtime.Value]int)
		p.emitted = make(map[runtime.Value]bool)
	}
	switch x := v.(type) {
	case *runtime.Pair:
		if seen[v] {
			if _, ok := p.labels[v]; !ok {
				p.labels[v] = p.nextLabel
				p.nextLabel++
			}
			return
		}
		seen[v] = true
		p.scan(x.Car, seen)
		p.scan(x.Cdr, seen)
	case *runtime.Vector:
		if seen[v] {
			if _, ok := p.labels[v]; !ok {
				p.labels[v] = p.nextLabel
				p.nextLabel++
			}
			return
		}
		seen[v] = true
		for _, item := range x.Items {
			p.scan(item, seen)
		}
	}
}

func (p *printer) print(v runtime.Value) error {
	if label, ok := p.labels[v]; ok {
		if p.emitted[v] {
			_, err := fmt.Fprintf(p.w, "#%d#", label)
			return err
		}
		p.emitted[v] = true
		if _, err := fmt.Fprintf(p.w, "#%d=", label); err != nil {
			return err
		}
	}
	switch x := v.(type) {
	case runtime.Undefined:
		_, err := io.WriteString(p.w, "#<undefined>")
		return err
	case runtime.Unspecified:
		_, err := io.WriteString(p.w, "#<unspecified>")
		return err
	case runtime.EOFObject:
		_, err := io.WriteString(p.w, "#<eof>")
		return err
	case runtime.Boolean:
		if x {
			_, err := io.WriteString(p.w, "#t")
			return err
		}
		_, err := io.WriteString(p.w, "#f")
		return err
	case runtime.Char:
		return p.printChar(x)
	case *runtime.String:
		return p.printString(x)
	case runtime.Symbol:
		_, err := io.WriteString(p.w, x.Name)
		return err
	case runtime.Null:
		_, err := io.WriteString(p.w, "()")
		return err
	case *runtime.Pair:
		return p.printPair(x)
	case *runtime.Vector:
		return p.printVector(x)
	case *runtime.Bytevector:
		return p.printBytevector(x)
	case *runtime.Number:
		_, err := io.WriteString(p.w, FormatNumber(x))
		return err
	case *runtime.Values:
		for i, item := range x.Items {
			if i > 0 {
				if _, err := io.WriteString(p.w, " "); err != nil {
					return err
				}
			}
			if err := p.print(item); err != nil {
				return err
			}
		}
		return nil
	case *runtime.Promise:
		_, err := io.WriteString(p.w, "#<promise>")
		return err
	case *runtime.Primitive:
		_, err := fmt.Fprintf(p.w, "#<procedure:%s>", x.Name)
		return err
	case *runtime.Closure:
		name := x.Name
		if name == "" {
			name = "lambda"
		}
		_, err := fmt.Fprintf(p.w, "#<procedure:%s>", name)
		return err
	case *runtime.CaseLambdaProc:
		name := x.Name
		if name == "" {
			name = "case-lambda"
		}
		_, err := fmt.Fprintf(p.w, "#<procedure:%s>", name)
		return err
	case *runtime.Continuation:
		_, err := io.WriteString(p.w, "#<continuation>")
		return err
	case *runtime.Parameter:
		_, err := io.WriteString(p.w, "#<parameter>")
		return err
	case *runtime.RecordType:
		_, err := fmt.Fprintf(p.w, "#<record-type:%s>", x.Name)
		return err
	case *runtime.Record:
		return p.printRecord(x)
	case *runtime.Port:
		_, err := io.WriteString(p.w, "#<port>")
		return err
	case *runtime.ErrorObject:
		_, err := fmt.Fprintf(p.w, "#<error:%s:%s>", x.Kind, x.Message)
		return err
	case *runtime.ThreadPool:
		_, err := io.WriteString(p.w, "#<thread-pool>")
		return err
	case *runtime.FutureValue:
		_, err := io.WriteString(p.w, "#<future>")
		return err
	case *runtime.SemaphoreValue:
		_, err := io.WriteString(p.w, "#<semaphore>")
		return err
	case *runtime.AtomicCounterValue:
		_, err := io.WriteString(p.w, "#<atomic-counter>")
		return err
	case *runtime.ChannelValue:
		_, err := io.WriteString(p.w, "#<channel>")
		return err
	default:
		_, err := io.WriteString(p.w, "#<value>")
		return err
	}
}

func (p *printer) printPair(x *runtime.Pair) error {
	if _, err := io.WriteString(p.w, "("); err != nil {
		return err
	}
	cur := x
	first := true
	for {
		if !first {
			if _, lbl := p.labels[runtime.Value(cur)]; lbl {
				// A shared/cyclic tail gets its own label marker instead of
				// being spliced into the dotted tail position.
				if _, err := io.WriteString(p.w, " . "); err != nil {
					return err
				}
				if err := p.print(cur); err != nil {
					return err
				}
				return p.closeParen()
			}
			if _, err := io.WriteString(p.w, " "); err != nil {
				return err
			}
		}
		first = false
		if err := p.print(cur.Car); err != nil {
			return err
		}
		switch tail := cur.Cdr.(type) {
		case runtime.Null:
			return p.closeParen()
		case *runtime.Pair:
			cur = tail
			continue
		default:
			if _, err := io.WriteString(p.w, " . "); err != nil {
				return err
			}
			if err := p.print(tail); err != nil {
				return err
			}
			return p.closeParen()
		}
	}
}

func (p *printer) closeParen() error {
	_, err := io.WriteString(p.w, ")")
	return err
}

func (p *printer) printVector(x *runtime.Vector) error {
	if _, err := io.WriteString(p.w, "#("); err != nil {
		return err
	}
	for i, item := range x.Items {
		if i > 0 {
			if _, err := io.WriteString(p.w, " "); err != nil {
				return err
			}
		}
		if err := p.print(item); err != nil {
			return err
		}
	}
	_, err := io.WriteString(p.w, ")")
	return err
}

func (p *printer) printBytevector(x *runtime.Bytevector) error {
	if _, err := io.WriteString(p.w, "#u8("); err != nil {
		return err
	}
	for i, b := range x.Bytes {
		if i > 0 {
			if _, err := io.WriteString(p.w, " "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(p.w, "%d", b); err != nil {
			return err
		}
	}
	_, err := io.WriteString(p.w, ")")
	return err
}

func (p *printer) printRecord(x *runtime.Record) error {
	if _, err := fmt.Fprintf(p.w, "#<%s", x.Type.Name); err != nil {
		return err
	}
	for i, f := range x.Type.Fields {
		if _, err := fmt.Fprintf(p.w, " %s=", f); err != nil {
			return err
		}
		if err := p.print(x.Values[i]); err != nil {
			return err
		}
	}
	_, err := io.WriteString(p.w, ">")
	return err
}

var charNames = map[rune]string{
	' ': "space",
	'\n': "newline",
	'\t': "tab",
	'\r': "return",
	0: "null",
	0x7f: "delete",
	0x1b: "escape",
	0x08: "backspace",
	0x07: "alarm",
}

func (p *printer) printChar(c runtime.Char) error {
	if !p.quote {
		_, err := io.WriteString(p.w, string(rune(c)))
		return err
	}
	if name, ok := charNames[rune(c)]; ok {
		_, err := fmt.Fprintf(p.w, "#\\%s", name)
		return err
	}
	if rune(c) < 0x20 || rune(c) == 0x7f {
		_, err := fmt.Fprintf(p.w, "#\\x%x", rune(c))
		return err
	}
	_, err := fmt.Fprintf(p.w, "#\\%c", rune(c))
	return err
}

var stringEscapes = map[rune]string{
	'"': `\"`,
	'\\': `\\`,
	'\n': `\n`,
	'\t': `\t`,
	'\r': `\r`,
	0x07: `\a`,
	0x08: `\b`,
}

func (p *printer) printString(s *runtime.String) error {
	if !p.quote {
		_, err := io.WriteString(p.w, string(s.Runes))
		return err
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s.Runes {
		if esc, ok := stringEscapes[r]; ok {
			b.WriteString(esc)
			continue
		}
		if r < 0x20 {
			fmt.Fprintf(&b, `\x%x;`, r)
			continue
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	_, err := io.WriteString(p.w, b.String())
	return err
}

// FormatNumber renders a Number in its canonical printed form : exact integers with no decimal
// point, exact rationals as a/b in lowest terms, inexact reals with enough
// digits to re-read identically ('g' format with -1 precision, Go's
// shortest-round-trip mode).
func FormatNumber(n *runtime.Number) string {
	switch n.Kind {
	case runtime.KindInteger:
		return n.Int.String()
	case runtime.KindRational:
		r := n.Rat
		num := new(big.Int).Set(r.Num())
		den := new(big.Int).Set(r.Denom())
		return num.String() + "/" + den.String()
	case runtime.KindReal:
		return formatInexact(n.Real)
	case runtime.KindComplex:
		re := real(n.Complex)
		im := imag(n.Complex)
		sign := "+"
		if im < 0 {
			sign = ""
		}
		return formatInexact(re) + sign + formatInexact(im) + "i"
	}
	return "0"
}

func formatInexact(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && !strings.Contains(s, "NaN") {
		s += "."
	}
	return s
}

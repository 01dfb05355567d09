package builtins

import (
	"bufio"
	"os"
	"strings"

	"github.com/go-scm/go-scm/internal/printer"
	"github.com/go-scm/go-scm/internal/runtime"
)

// stdoutPort/stdinPort back the two standard ports every engine instance
// shares; CurrentOutputPort/CurrentInputPort are the parameter objects
// Install binds current-output-port/current-input-port to, following the
// same &runtime.Parameter{Stack: []runtime.Value{init}} shape
// internal/eval/higher_order.go's stepMakeParameter produces for a
// user-level (make-parameter...) call.
var (
	stdoutPort = &runtime.Port{Direction: runtime.PortOutput, Sink: os.Stdout}
	stdinPort = &runtime.Port{Direction: runtime.PortInput, Source: bufio.NewReader(os.Stdin)}

	// CurrentOutputPort and CurrentInputPort are exported so pkg/goscm's
	// WithOutput/WithInput can redirect I/O (e.g. to an in-memory buffer) by
	// replacing the bottom entry of their Stack with a caller-supplied port.
	// Both are package-level, so such a redirection is process-wide.
	CurrentOutputPort = &runtime.Parameter{Stack: []runtime.Value{stdoutPort}}
	CurrentInputPort = &runtime.Parameter{Stack: []runtime.Value{stdinPort}}
)

func currentOutput() *runtime.Port {
	p, _ := CurrentOutputPort.Stack[len(CurrentOutputPort.Stack)-1].(*runtime.Port)
	return p
}

func currentInput() *runtime.Port {
	p, _ := CurrentInputPort.Stack[len(CurrentInputPort.Stack)-1].(*runtime.Port)
	return p
}

func asPort(v runtime.Value, who string) (*runtime.Port, error) {
	p, ok := v.(*runtime.Port)
	if !ok {
		return nil, runtime.NewError("type-error", who+": not a port", v)
	}
	if p.Closed {
		return nil, runtime.NewError("io-error", who+": port is closed", v)
	}
	return p, nil
}

// outPort resolves the optional trailing port argument common to
// display/write/newline/write-char/write-string, defaulting to
// current-output-port exactly as R7RS specifies.
func outPort(a []runtime.Value, idx int) (*runtime.Port, error) {
	var p *runtime.Port
	var err error
	if idx < len(a) {
		p, err = asPort(a[idx], "output")
	} else {
		p = currentOutput()
	}
	if err != nil {
		return nil, err
	}
	if p == nil || p.Direction != runtime.PortOutput || p.Sink == nil {
		return nil, runtime.NewError("type-error", "not an output port")
	}
	return p, nil
}

func inPort(a []runtime.Value, idx int) (*runtime.Port, error) {
	var p *runtime.Port
	var err error
	if idx < len(a) {
		p, err = asPort(a[idx], "input")
	} else {
		p = currentInput()
	}
	if err != nil {
		return nil, err
	}
	if p == nil || p.Direction != runtime.PortInput || p.Source == nil {
		return nil, runtime.NewError("type-error", "not an input port")
	}
	return p, nil
}

// registerIO wires the port/read/write procedures that make up the module
// loader's and REPL's I/O surface, one file per builtin category
// dispatching through Registry. display, write and write-simple funnel
// through internal/printer for the actual text formatting, keeping the
// round-trip guarantee in one place.
func registerIO(r *Registry) {
	r.register("display", CategoryIO, 1, 2, func(a []runtime.Value) (runtime.Value, error) {
		p, err := outPort(a, 1)
		if err != nil {
			return nil, err
		}
		if err := printer.Display(portWriter{p}, a[0]); err != nil {
			return nil, runtime.NewError("io-error", "display: "+err.Error())
		}
		return runtime.Unspecified{}, nil
	})
	r.register("write", CategoryIO, 1, 2, func(a []runtime.Value) (runtime.Value, error) {
		p, err := outPort(a, 1)
		if err != nil {
			return nil, err
		}
		if err := printer.Write(portWriter{p}, a[0]); err != nil {
			return nil, runtime.NewError("io-error", "write: "+err.Error())
		}
		return runtime.Unspecified{}, nil
	})
	r.register("write-simple", CategoryIO, 1, 2, func(a []runtime.Value) (runtime.Value, error) {
		p, err := outPort(a, 1)
		if err != nil {
			return nil, err
		}
		if err := printer.Write(portWriter{p}, a[0]); err != nil {
			return nil, runtime.NewError("io-error", "write-simple: "+err.Error())
		}
		return runtime.Unspecified{}, nil
	})
	r.register("newline", CategoryIO, 0, 1, func(a []runtime.Value) (runtime.Value, error) {
		p, err := outPort(a, 0)
		if err != nil {
			return nil, err
		}
		if _, err := p.Sink.WriteString("\n"); err != nil {
			return nil, runtime.NewError("io-error", "newline: "+err.Error())
		}
		return runtime.Unspecified{}, nil
	})
	r.register("write-char", CategoryIO, 1, 2, func(a []runtime.Value) (runtime.Value, error) {
		c, err := asChar(a[0], "write-char")
		if err != nil {
			return nil, err
		}
		p, err := outPort(a, 1)
		if err != nil {
			return nil, err
		}
		if _, err := p.Sink.WriteString(string(rune(c))); err != nil {
			return nil, runtime.NewError("io-error", "write-char: "+err.Error())
		}
		return runtime.Unspecified{}, nil
	})
	r.register("write-string", CategoryIO, 1, 4, func(a []runtime.Value) (runtime.Value, error) {
		s, err := asString(a[0], "write-string")
		if err != nil {
			return nil, err
		}
		p, err := outPort(a, 1)
		if err != nil {
			return nil, err
		}
		if _, err := p.Sink.WriteString(string(s.Runes)); err != nil {
			return nil, runtime.NewError("io-error", "write-string: "+err.Error())
		}
		return runtime.Unspecified{}, nil
	})

	r.register("read-char", CategoryIO, 0, 1, func(a []runtime.Value) (runtime.Value, error) {
		p, err := inPort(a, 0)
		if err != nil {
			return nil, err
		}
		ch, _, err := p.Source.ReadRune()
		if err != nil {
			return runtime.EOFObject{}, nil
		}
		return runtime.Char(ch), nil
	})
	r.register("peek-char", CategoryIO, 0, 1, func(a []runtime.Value) (runtime.Value, error) {
		p, err := inPort(a, 0)
		if err != nil {
			return nil, err
		}
		peeker, ok := p.Source.(interface {
			ReadRune() (rune, int, error)
			UnreadRune() error
		})
		if !ok {
			return nil, runtime.NewError("io-error", "peek-char: port does not support peeking")
		}
		ch, _, err := peeker.ReadRune()
		if err != nil {
			return runtime.EOFObject{}, nil
		}
		_ = peeker.UnreadRune()
		return runtime.Char(ch), nil
	})
	r.register("read-line", CategoryIO, 0, 1, func(a []runtime.Value) (runtime.Value, error) {
		p, err := inPort(a, 0)
		if err != nil {
			return nil, err
		}
		var sb strings.Builder
		sawAny := false
		for {
			ch, _, err := p.Source.ReadRune()
			if err != nil {
				if !sawAny {
					return runtime.EOFObject{}, nil
				}
				break
			}
			sawAny = true
			if ch == '\n' {
				break
			}
			sb.WriteRune(ch)
		}
		return &runtime.String{Runes: []rune(sb.String())}, nil
	})
	r.register("char-ready?", CategoryIO, 0, 1, func(a []runtime.Value) (runtime.Value, error) {
		_, err := inPort(a, 0)
		return runtime.Boolean(err == nil), nil
	})

	r.register("eof-object", CategoryIO, 0, 0, func(a []runtime.Value) (runtime.Value, error) {
		return runtime.EOFObject{}, nil
	})
	r.register("eof-object?", CategoryIO, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		_, ok := a[0].(runtime.EOFObject)
		return runtime.Boolean(ok), nil
	})

	r.register("port?", CategoryIO, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		_, ok := a[0].(*runtime.Port)
		return runtime.Boolean(ok), nil
	})
	r.register("input-port?", CategoryIO, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		p, ok := a[0].(*runtime.Port)
		return runtime.Boolean(ok && p.Direction == runtime.PortInput), nil
	})
	r.register("output-port?", CategoryIO, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		p, ok := a[0].(*runtime.Port)
		return runtime.Boolean(ok && p.Direction == runtime.PortOutput), nil
	})
	r.register("textual-port?", CategoryIO, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		_, ok := a[0].(*runtime.Port)
		return runtime.Boolean(ok), nil
	})
	r.register("binary-port?", CategoryIO, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		return runtime.Boolean(false), nil
	})

	r.register("open-input-string", CategoryIO, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		s, err := asString(a[0], "open-input-string")
		if err != nil {
			return nil, err
		}
		return &runtime.Port{Direction: runtime.PortInput, Source: strings.NewReader(string(s.Runes))}, nil
	})
	r.register("open-output-string", CategoryIO, 0, 0, func(a []runtime.Value) (runtime.Value, error) {
		return &runtime.Port{Direction: runtime.PortOutput, Sink: &strings.Builder{}}, nil
	})
	r.register("get-output-string", CategoryIO, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		p, err := asPort(a[0], "get-output-string")
		if err != nil {
			return nil, err
		}
		b, ok := p.Sink.(*strings.Builder)
		if !ok {
			return nil, runtime.NewError("type-error", "get-output-string: not a string output port", a[0])
		}
		return &runtime.String{Runes: []rune(b.String())}, nil
	})

	r.register("close-port", CategoryIO, 1, 1, closePort)
	r.register("close-input-port", CategoryIO, 1, 1, closePort)
	r.register("close-output-port", CategoryIO, 1, 1, closePort)

	// with-output-to-string and call-with-output-string must call back into
	// a user procedure, which only the evaluator can do (it needs to
	// re-enter the trampoline) — internal/eval/evaluator.go special-cases
	// both by Primitive.Name exactly like call/cc, apply, and force; these
	// entries exist only to bind the names.
	r.register("with-output-to-string", CategoryIO, 1, 1, nil)
	r.register("call-with-output-string", CategoryIO, 1, 1, nil)
}

// NewStringOutputPort constructs a fresh in-memory output port, used by
// internal/eval for with-output-to-string/call-with-output-string so the
// evaluator package doesn't need to know runtime.Port's Sink wiring.
func NewStringOutputPort() *runtime.Port {
	return &runtime.Port{Direction: runtime.PortOutput, Sink: &strings.Builder{}}
}

// StringOutputPortContents reads back what's been written to a port
// created by NewStringOutputPort.
func StringOutputPortContents(p *runtime.Port) string {
	b, _ := p.Sink.(*strings.Builder)
	if b == nil {
		return ""
	}
	return b.String()
}

func closePort(a []runtime.Value) (runtime.Value, error) {
	p, ok := a[0].(*runtime.Port)
	if !ok {
		return nil, runtime.NewError("type-error", "close-port: not a port", a[0])
	}
	p.Closed = true
	return runtime.Unspecified{}, nil
}

// portWriter adapts runtime.Port's Sink field (a narrow WriteString-only
// interface, kept that way so internal/runtime stays I/O-backend agnostic)
// to io.Writer, which internal/printer's Write/Display expect.
type portWriter struct{ p *runtime.Port }

func (w portWriter) Write(b []byte) (int, error) { return w.p.Sink.WriteString(string(b)) }

// Package compiler turns the station expression language into a step program.
//
//	// moving rainbow
//	h = T * 0.3 + P;
//	hsv(h, 1, 1);
//
// Statements end with ';'. A statement is an assignment (=, +=, -=, *=, /=, %=)
// or a bare call. Every operator and function call becomes one step.
package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coreman2200/funtimes-stationchain/internal/protocol"
	"github.com/coreman2200/funtimes-stationchain/internal/vm"
)

var ErrSyntax = errors.New("syntax error")

// Error locates a compile failure by byte offset into the source.
type Error struct {
	Pos int
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("%s at %d: %s", ErrSyntax, e.Pos, e.Msg) }
func (e *Error) Unwrap() error { return ErrSyntax }

func errorf(pos int, format string, args ...any) error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

type Program struct {
	Steps []vm.Step
	// Vars maps each assigned name to the argument holding its final value.
	Vars map[string]vm.Argument
}

// Lines encodes the program as a paused upload followed by the step count.
func (p *Program) Lines(lifespan byte) [][]byte {
	return protocol.ProgramLines(lifespan, p.Steps)
}

// Options tune compilation for a particular chain.
type Options struct {
	// MaxLine is the stations' line limit, terminator included.
	// Zero means protocol.DefaultMaxLineLength.
	MaxLine int
}

type compiler struct {
	steps   []vm.Step
	vars    map[string]vm.Argument
	maxLine int

	toks []token
	i    int
}

// Compile parses src into a program of at most vm.MaxSteps steps.
func Compile(src string) (*Program, error) {
	return CompileWith(src, Options{})
}

// CompileWith is Compile with every step line held to o.MaxLine bytes.
func CompileWith(src string, o Options) (*Program, error) {
	if o.MaxLine <= 0 {
		o.MaxLine = protocol.DefaultMaxLineLength
	}
	c := &compiler{vars: map[string]vm.Argument{}, maxLine: o.MaxLine}

	src = stripComments(src)
	base := 0
	for _, stmt := range strings.Split(src, ";") {
		if err := c.statement(stmt, base); err != nil {
			return nil, err
		}
		base += len(stmt) + 1
	}
	return &Program{Steps: c.steps, Vars: c.vars}, nil
}

// stripComments blanks out // comments, keeping offsets intact.
func stripComments(src string) string {
	b := []byte(src)
	for i := 0; i+1 < len(b); i++ {
		if b[i] != '/' || b[i+1] != '/' {
			continue
		}
		for ; i < len(b) && b[i] != '\n'; i++ {
			b[i] = ' '
		}
	}
	return string(b)
}

func (c *compiler) statement(src string, base int) error {
	toks, err := lex(src, base)
	if err != nil {
		return err
	}
	c.toks, c.i = toks, 0
	if c.peek().kind == tEOF {
		return nil
	}

	if c.peek().kind == tIdent && c.peekAt(1).kind == tAssign {
		name := c.next()
		assign := c.next()
		if _, special := vm.SymbolFor(name.text); special {
			return errorf(name.pos, "cannot assign to special variable %s", name.text)
		}

		v, err := c.expr()
		if err != nil {
			return err
		}
		if assign.text != "=" {
			prev, ok := c.vars[name.text]
			if !ok {
				return errorf(name.pos, "unknown variable %s", name.text)
			}
			op, _ := vm.OpForName(assign.text[:1])
			if v, err = c.emit(assign.pos, op, prev, v); err != nil {
				return err
			}
		}
		c.vars[name.text] = v
	} else if _, err := c.expr(); err != nil {
		return err
	}

	if t := c.peek(); t.kind != tEOF {
		return errorf(t.pos, "unexpected %q", t.text)
	}
	return nil
}

func (c *compiler) peek() token { return c.peekAt(0) }

func (c *compiler) peekAt(n int) token {
	if c.i+n < len(c.toks) {
		return c.toks[c.i+n]
	}
	return c.toks[len(c.toks)-1]
}

func (c *compiler) next() token {
	t := c.peek()
	if c.i < len(c.toks)-1 {
		c.i++
	}
	return t
}

func (c *compiler) expect(kind tokenKind, what string) (token, error) {
	t := c.next()
	if t.kind != kind {
		return t, errorf(t.pos, "expected %s", what)
	}
	return t, nil
}

func (c *compiler) emit(pos int, op vm.Op, args ...vm.Argument) (vm.Argument, error) {
	if len(c.steps) >= vm.MaxSteps {
		return vm.Argument{}, errorf(pos, "program needs more than %d steps", vm.MaxSteps)
	}
	st := vm.Step{Op: op}
	copy(st.Args[:], args)
	if n := len(protocol.StepBody(len(c.steps), st)) + 2; n > c.maxLine {
		return vm.Argument{}, errorf(pos, "step encodes to %d bytes", n)
	}
	c.steps = append(c.steps, st)
	return vm.StepValue(len(c.steps) - 1), nil
}

// binary operator levels, loosest first; ?: sits above them all
var levels = [][]string{
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

func (c *compiler) expr() (vm.Argument, error) {
	cond, err := c.binary(0)
	if err != nil {
		return cond, err
	}
	if c.peek().kind != tQuestion {
		return cond, nil
	}
	q := c.next()
	a, err := c.expr()
	if err != nil {
		return a, err
	}
	if _, err := c.expect(tColon, "':'"); err != nil {
		return a, err
	}
	b, err := c.expr()
	if err != nil {
		return b, err
	}
	return c.emit(q.pos, vm.OpTernary, cond, a, b)
}

func (c *compiler) binary(level int) (vm.Argument, error) {
	if level == len(levels) {
		return c.unary()
	}
	lhs, err := c.binary(level + 1)
	if err != nil {
		return lhs, err
	}
	for {
		t := c.peek()
		if t.kind != tOp || !contains(levels[level], t.text) {
			return lhs, nil
		}
		c.next()
		rhs, err := c.binary(level + 1)
		if err != nil {
			return rhs, err
		}
		op, _ := vm.OpForName(t.text)
		if lhs, err = c.emit(t.pos, op, lhs, rhs); err != nil {
			return lhs, err
		}
	}
}

func contains(set []string, s string) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

func (c *compiler) unary() (vm.Argument, error) {
	t := c.peek()
	if t.kind == tOp && t.text == "-" {
		c.next()
		v, err := c.unary()
		if err != nil {
			return v, err
		}
		// the wire has no negative literals
		return c.emit(t.pos, vm.OpSub, vm.Literal(0), v)
	}
	return c.primary()
}

func (c *compiler) primary() (vm.Argument, error) {
	t := c.next()
	switch t.kind {
	case tNumber:
		return vm.Literal(t.num), nil

	case tLParen:
		v, err := c.expr()
		if err != nil {
			return v, err
		}
		_, err = c.expect(tRParen, "')'")
		return v, err

	case tIdent:
		if c.peek().kind == tLParen {
			return c.call(t)
		}
		if a, ok := vm.SymbolFor(t.text); ok {
			return a, nil
		}
		if a, ok := c.vars[t.text]; ok {
			return a, nil
		}
		return vm.Argument{}, errorf(t.pos, "unknown variable %s", t.text)
	}
	if t.kind == tEOF {
		return vm.Argument{}, errorf(t.pos, "unexpected end of expression")
	}
	return vm.Argument{}, errorf(t.pos, "unexpected %q", t.text)
}

func (c *compiler) call(name token) (vm.Argument, error) {
	op, ok := vm.OpForName(name.text)
	if !ok || op < vm.OpTernary {
		return vm.Argument{}, errorf(name.pos, "unknown function %s", name.text)
	}
	c.next() // (

	var args []vm.Argument
	if c.peek().kind != tRParen {
		for {
			a, err := c.expr()
			if err != nil {
				return a, err
			}
			args = append(args, a)
			if c.peek().kind != tComma {
				break
			}
			c.next()
		}
	}
	if _, err := c.expect(tRParen, "')'"); err != nil {
		return vm.Argument{}, err
	}
	if len(args) != op.Arity() {
		return vm.Argument{}, errorf(name.pos, "%s() takes %d args, got %d", name.text, op.Arity(), len(args))
	}
	return c.emit(name.pos, op, args...)
}

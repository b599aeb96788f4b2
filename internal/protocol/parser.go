package protocol

import "github.com/coreman2200/funtimes-stationchain/internal/vm"

type state uint8

const (
	stAddress state = iota
	stCommand
	stCount
	stCountEnd
	stStepIndex
	stStepOp
	stArgStart
	stArgWhole
	stArgFrac
	stArgSymbol
	stArgEnd
	stTime
	stGamma0
	stGamma1
	stGammaEnd
	stBlink
	stBlinkEnd
	stIdentity
	stError
)

var stateNames = [...]string{
	stAddress:   "address",
	stCommand:   "command",
	stCount:     "count",
	stCountEnd:  "count-end",
	stStepIndex: "step-index",
	stStepOp:    "step-op",
	stArgStart:  "arg-start",
	stArgWhole:  "arg-whole",
	stArgFrac:   "arg-frac",
	stArgSymbol: "arg-symbol",
	stArgEnd:    "arg-end",
	stTime:      "time",
	stGamma0:    "gamma0",
	stGamma1:    "gamma1",
	stGammaEnd:  "gamma-end",
	stBlink:     "blink",
	stBlinkEnd:  "blink-end",
	stIdentity:  "identity",
	stError:     "error",
}

func (s state) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Command bytes.
const (
	CmdCount    = 'c'
	CmdStep     = 's'
	CmdTime     = 't'
	CmdGamma    = 'g'
	CmdBlink    = 'b'
	CmdIdentity = 'i'
)

// parser is the interpreter's whole state for one line. It is a value so that
// transition stays pure.
type parser struct {
	state state
	addr  byte

	count   int
	stepIdx int
	op      vm.Op
	args    [vm.ArgCount]vm.Argument
	arg     int
	mant    float64
	div     float64
	sym     byte

	g0, g1 byte
	blink  vm.BlinkMode
}

type effectKind uint8

const (
	effNone effectKind = iota
	effReject
	effCount
	effStep
	effResetTime
	effGamma
	effBlink
	effIdentity
)

// effect is what a completed line asks of the engine state.
type effect struct {
	kind effectKind
	addr byte

	count int
	step  int
	def   vm.Step

	gamma  bool
	bright uint8
	blink  vm.BlinkMode
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func fail(p parser) (parser, effect) {
	p.state = stError
	return p, effect{}
}

// transition consumes one byte. Only the line terminator yields an effect; every
// other byte just advances the state.
func transition(p parser, b byte) (parser, effect) {
	if b == '\n' {
		return parser{}, p.finish()
	}

	switch p.state {
	case stAddress:
		p.addr = b
		p.state = stCommand

	case stCommand:
		if b != CmdIdentity && !isDigit(p.addr) {
			return fail(p)
		}
		switch b {
		case CmdCount:
			p.state = stCount
		case CmdStep:
			p.state = stStepIndex
		case CmdTime:
			p.state = stTime
		case CmdGamma:
			p.state = stGamma0
		case CmdBlink:
			p.state = stBlink
		case CmdIdentity:
			p.state = stIdentity
		default:
			return fail(p)
		}

	case stCount:
		if b < vm.IndexBase || int(b-vm.IndexBase) > vm.MaxSteps {
			return fail(p)
		}
		p.count = int(b - vm.IndexBase)
		p.state = stCountEnd

	case stStepIndex:
		if b < vm.IndexBase || int(b-vm.IndexBase) >= vm.MaxSteps {
			return fail(p)
		}
		p.stepIdx = int(b - vm.IndexBase)
		for i := range p.args {
			p.args[i] = vm.Literal(0)
		}
		p.state = stStepOp

	case stStepOp:
		op, ok := vm.OpForCode(b)
		if !ok {
			return fail(p)
		}
		p.op = op
		p.arg = 0
		p.state = stArgStart

	case stArgStart:
		switch {
		case isDigit(b):
			p.mant = float64(b - '0')
			p.div = 1
			p.state = stArgWhole
		case b == ',':
			return fail(p)
		default:
			p.sym = b
			p.state = stArgSymbol
		}

	case stArgWhole, stArgFrac:
		switch {
		case isDigit(b):
			p.mant = p.mant*10 + float64(b-'0')
			if p.state == stArgFrac {
				p.div *= 10
			}
		case b == '.' && p.state == stArgWhole:
			p.state = stArgFrac
		case b == ',':
			p.commitLiteral()
			return p.nextArg()
		default:
			return fail(p)
		}

	case stArgSymbol:
		a, ok := vm.LookupSymbol(p.sym, b)
		if !ok {
			return fail(p)
		}
		p.args[p.arg] = a
		p.state = stArgEnd

	case stArgEnd:
		if b != ',' {
			return fail(p)
		}
		return p.nextArg()

	case stGamma0:
		p.g0 = b
		p.state = stGamma1

	case stGamma1:
		p.g1 = b
		p.state = stGammaEnd

	case stBlink:
		if b < '0' || b > '3' {
			return fail(p)
		}
		p.blink = vm.BlinkMode(b - '0')
		p.state = stBlinkEnd

	case stCountEnd, stTime, stGammaEnd, stBlinkEnd, stIdentity, stError:
		// trailing garbage
		return fail(p)
	}
	return p, effect{}
}

func (p *parser) commitLiteral() {
	p.args[p.arg] = vm.Literal(float32(p.mant / p.div))
}

func (p parser) nextArg() (parser, effect) {
	p.arg++
	if p.arg >= vm.ArgCount {
		return fail(p)
	}
	p.state = stArgStart
	return p, effect{}
}

func (p parser) finish() effect {
	e := effect{addr: p.addr}
	switch p.state {
	case stCountEnd:
		e.kind = effCount
		e.count = p.count
	case stArgWhole, stArgFrac:
		p.commitLiteral()
		fallthrough
	case stArgStart, stArgEnd:
		e.kind = effStep
		e.step = p.stepIdx
		e.def = vm.Step{Op: p.op, Args: p.args}
	case stTime:
		e.kind = effResetTime
	case stGammaEnd:
		e.kind = effGamma
		e.gamma, e.bright = UnpackGamma(p.g0, p.g1)
	case stBlinkEnd:
		e.kind = effBlink
		e.blink = p.blink
	case stIdentity:
		e.kind = effIdentity
	default:
		e.kind = effReject
	}
	return e
}

// UnpackGamma decodes the two gamma bytes: 0bx1xxxGBB 0bx1BBBBBB.
func UnpackGamma(b0, b1 byte) (gamma bool, brightness uint8) {
	return b0&0x04 != 0, (b0&0x03)<<6 | b1&0x3f
}

// PackGamma is the inverse of UnpackGamma. Both bytes keep bit 6 set so they stay printable.
func PackGamma(gamma bool, brightness uint8) (b0, b1 byte) {
	b0 = 0x40 | brightness>>6
	if gamma {
		b0 |= 0x04
	}
	return b0, 0x40 | brightness&0x3f
}

package vm

// Op is one step operation. Each op has a single wire byte.
type Op uint8

const (
	OpNone Op = iota

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod

	OpLess
	OpGreater
	OpLessEq
	OpGreaterEq
	OpEqual
	OpNotEqual
	OpTernary

	OpSin
	OpCos
	OpSin01
	OpCos01
	OpSinQ
	OpCosQ
	OpTan
	OpPow
	OpAbs
	OpAtan2
	OpFloor
	OpCeil
	OpRound
	OpFrac
	OpSqrt
	OpLog
	OpLogBase

	OpRand
	OpRandRange
	OpNoise1
	OpNoise2
	OpNoise3
	OpNoise1Q
	OpNoise2Q
	OpNoise3Q

	OpMin
	OpMax
	OpLerp
	OpClamp
	OpTri
	OpPeak
	OpU2B
	OpB2U

	OpAccum
	OpRGB
	OpHSV

	opCount
)

type opInfo struct {
	name  string
	code  byte
	arity int
}

var ops = [opCount]opInfo{
	OpNone: {"none", 0, 0},

	OpAdd: {"+", '+', 2},
	OpSub: {"-", '-', 2},
	OpMul: {"*", '*', 2},
	OpDiv: {"/", '/', 2},
	OpMod: {"%", '%', 2},

	OpLess:      {"<", '<', 2},
	OpGreater:   {">", '>', 2},
	OpLessEq:    {"<=", '{', 2},
	OpGreaterEq: {">=", '}', 2},
	OpEqual:     {"==", '=', 2},
	OpNotEqual:  {"!=", '!', 2},
	OpTernary:   {"ternary", '?', 3},

	OpSin:     {"sin", 'S', 1},
	OpCos:     {"cos", 'C', 1},
	OpSin01:   {"sin01", 's', 1},
	OpCos01:   {"cos01", 'c', 1},
	OpSinQ:    {"sinq", 'q', 1},
	OpCosQ:    {"cosq", 'Q', 1},
	OpTan:     {"tan", 'T', 1},
	OpPow:     {"pow", 'P', 2},
	OpAbs:     {"abs", '|', 1},
	OpAtan2:   {"atan2", 'A', 2},
	OpFloor:   {"floor", '_', 1},
	OpCeil:    {"ceil", '`', 1},
	OpRound:   {"round", 'R', 1},
	OpFrac:    {"frac", '.', 1},
	OpSqrt:    {"sqrt", 'r', 1},
	OpLog:     {"log", 'L', 1},
	OpLogBase: {"logBase", 'B', 2},

	OpRand:      {"rand", 'z', 1},
	OpRandRange: {"randRange", 'Z', 2},
	OpNoise1:    {"noise1", '1', 1},
	OpNoise2:    {"noise2", '2', 2},
	OpNoise3:    {"noise3", '3', 3},
	OpNoise1Q:   {"noise1q", '4', 1},
	OpNoise2Q:   {"noise2q", '5', 2},
	OpNoise3Q:   {"noise3q", '6', 3},

	OpMin:   {"min", 'm', 2},
	OpMax:   {"max", 'M', 2},
	OpLerp:  {"lerp", 'l', 3},
	OpClamp: {"clamp", 'x', 3},
	OpTri:   {"tri", 't', 1},
	OpPeak:  {"peak", 'p', 1},
	OpU2B:   {"u2b", 'b', 1},
	OpB2U:   {"b2u", 'u', 1},

	OpAccum: {"accum0", '0', 1},
	OpRGB:   {"rgb", '[', 3},
	OpHSV:   {"hsv", ']', 3},
}

var (
	byCode [256]Op
	byName = map[string]Op{}
)

func init() {
	for o := OpNone + 1; o < opCount; o++ {
		byCode[ops[o].code] = o
		byName[ops[o].name] = o
	}
}

// OpForCode maps a wire byte to its op.
func OpForCode(b byte) (Op, bool) {
	o := byCode[b]
	return o, o != OpNone
}

// OpForName maps an operator symbol or function name to its op.
func OpForName(name string) (Op, bool) {
	o, ok := byName[name]
	return o, ok
}

func (o Op) valid() bool { return o > OpNone && o < opCount }

func (o Op) Code() byte {
	if !o.valid() {
		return 0
	}
	return ops[o].code
}

// Arity is the number of arguments the op reads.
func (o Op) Arity() int {
	if !o.valid() {
		return 0
	}
	return ops[o].arity
}

func (o Op) String() string {
	if o >= opCount {
		return "invalid"
	}
	return ops[o].name
}

// Functions lists the ops callable by name, in declaration order.
func Functions() []Op {
	var out []Op
	for o := OpTernary; o < opCount; o++ {
		out = append(out, o)
	}
	return out
}

package vm

import "strconv"

type ArgKind uint8

const (
	ArgLiteral ArgKind = iota
	ArgScalar
	ArgArray
	ArgStep
)

// VarID names a scalar runtime variable.
type VarID uint8

const (
	VarTime VarID = iota
	VarStation
	VarIndex
	VarCount
	VarRatio
	VarSensor
	VarSensor2
	VarSensor4
	VarSensor8
)

// ArrayID names a per-LED array.
type ArrayID uint8

const (
	ArrayX ArrayID = iota
	ArrayY
	ArrayAngle
)

// Argument is one step input. Kind selects which of the other fields is meaningful.
type Argument struct {
	Kind  ArgKind
	Value float32
	Var   VarID
	Array ArrayID
	Step  uint8
}

func Literal(v float32) Argument  { return Argument{Kind: ArgLiteral, Value: v} }
func Scalar(v VarID) Argument     { return Argument{Kind: ArgScalar, Var: v} }
func Array(a ArrayID) Argument    { return Argument{Kind: ArgArray, Array: a} }
func StepValue(i int) Argument    { return Argument{Kind: ArgStep, Step: uint8(i)} }
func (a Argument) IsZero() bool   { return a.Kind == ArgLiteral && a.Value == 0 }
func (a Argument) String() string { return string(a.AppendWire(nil)) }

type symbol struct {
	text string
	arg  Argument
}

// two-byte symbol table; step values ("v" + index byte) are handled separately
var symbols = []symbol{
	{"T_", Scalar(VarTime)},
	{"S_", Scalar(VarStation)},
	{"I_", Scalar(VarIndex)},
	{"C_", Scalar(VarCount)},
	{"P_", Scalar(VarRatio)},
	{"U_", Scalar(VarSensor)},
	{"UA", Scalar(VarSensor2)},
	{"UB", Scalar(VarSensor4)},
	{"UC", Scalar(VarSensor8)},
	{"X_", Array(ArrayX)},
	{"Y_", Array(ArrayY)},
	{"A_", Array(ArrayAngle)},
}

// StepSymbol is the first byte of a computed-value reference.
const StepSymbol = 'v'

// IndexBase is added to step indices and counts on the wire.
const IndexBase = '!'

// LookupSymbol resolves a two-byte symbolic argument.
func LookupSymbol(a, b byte) (Argument, bool) {
	if a == StepSymbol {
		if b < IndexBase || int(b-IndexBase) >= MaxSteps {
			return Argument{}, false
		}
		return StepValue(int(b - IndexBase)), true
	}
	for _, s := range symbols {
		if s.text[0] == a && s.text[1] == b {
			return s.arg, true
		}
	}
	return Argument{}, false
}

// SymbolFor returns the argument bound to a special variable name such as "T" or "UA".
func SymbolFor(name string) (Argument, bool) {
	key := name
	if len(key) == 1 {
		key += "_"
	}
	for _, s := range symbols {
		if s.text == key {
			return s.arg, true
		}
	}
	return Argument{}, false
}

// AppendWire appends the protocol text for a.
func (a Argument) AppendWire(dst []byte) []byte {
	switch a.Kind {
	case ArgStep:
		return append(dst, StepSymbol, IndexBase+a.Step)
	case ArgScalar, ArgArray:
		for _, s := range symbols {
			if s.arg == a {
				return append(dst, s.text...)
			}
		}
		return dst
	}
	return strconv.AppendFloat(dst, float64(a.Value), 'f', -1, 32)
}

package protocol

import "github.com/coreman2200/funtimes-stationchain/internal/vm"

// DefaultLifespan is the address byte authoring tools put on broadcast lines.
const DefaultLifespan = '2'

// The builders below return a command body with no address byte and no terminator.

func CountBody(n int) []byte {
	return []byte{CmdCount, byte(vm.IndexBase + n)}
}

// StepBody encodes step i. Trailing zero literal arguments are omitted.
func StepBody(i int, st vm.Step) []byte {
	out := []byte{CmdStep, byte(vm.IndexBase + i), st.Op.Code()}
	last := len(st.Args)
	for last > 0 && st.Args[last-1].IsZero() {
		last--
	}
	for j := 0; j < last; j++ {
		if j > 0 {
			out = append(out, ',')
		}
		out = st.Args[j].AppendWire(out)
	}
	return out
}

func ResetTimeBody() []byte { return []byte{CmdTime} }

func GammaBody(gamma bool, brightness uint8) []byte {
	b0, b1 := PackGamma(gamma, brightness)
	return []byte{CmdGamma, b0, b1}
}

func BlinkBody(mode vm.BlinkMode) []byte {
	return []byte{CmdBlink, '0' + byte(mode)}
}

// Line prefixes body with the address byte and appends the terminator.
func Line(addr byte, body []byte) []byte {
	out := make([]byte, 0, len(body)+2)
	out = append(out, addr)
	out = append(out, body...)
	return append(out, '\n')
}

// IdentityLine starts station numbering at the first station downstream.
func IdentityLine() []byte {
	return []byte{vm.IndexBase, CmdIdentity, '\n'}
}

// ProgramLines encodes a full upload: execution paused with a zero count, each
// step, then the real count.
func ProgramLines(lifespan byte, steps []vm.Step) [][]byte {
	lines := make([][]byte, 0, len(steps)+2)
	lines = append(lines, Line(lifespan, CountBody(0)))
	for i, st := range steps {
		lines = append(lines, Line(lifespan, StepBody(i, st)))
	}
	return append(lines, Line(lifespan, CountBody(len(steps))))
}

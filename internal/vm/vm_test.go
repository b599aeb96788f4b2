package vm

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type pixel struct{ r, g, b uint8 }

type recorder struct {
	px    map[int]pixel
	calls int
}

func newRecorder() *recorder { return &recorder{px: map[int]pixel{}} }

func (r *recorder) SetPixel(i int, red, green, blue uint8) {
	r.px[i] = pixel{red, green, blue}
	r.calls++
}

func newTestState(leds int) *State {
	o := DefaultOptions()
	o.LEDCount = leds
	return NewState(o)
}

func program(s *State, steps ...Step) {
	for i, st := range steps {
		s.SetStep(i, st)
	}
	s.SetStepCount(len(steps))
}

func step(op Op, args ...Argument) Step {
	st := Step{Op: op}
	copy(st.Args[:], args)
	return st
}

func lit(v float32) Argument { return Literal(v) }

func TestAddLiteralsEveryLED(t *testing.T) {
	s := newTestState(12)
	program(s, step(OpAdd, lit(1), lit(2)))
	s.Run(16*time.Millisecond, nil)
	assert.Equal(t, float32(3), s.Values[0])
}

func TestRGBWritesLUTMappedPixels(t *testing.T) {
	s := newTestState(20)
	program(s, step(OpRGB, lit(1), lit(0), lit(0)))
	rec := newRecorder()
	s.Run(time.Millisecond, rec)

	require.Equal(t, 20, rec.calls)
	for i := 0; i < 20; i++ {
		assert.Equal(t, pixel{s.LUT[255], s.LUT[0], s.LUT[0]}, rec.px[i], "led %d", i)
	}
	assert.Equal(t, float32(1), s.Values[0])
}

func TestStepValueSeesCurrentLED(t *testing.T) {
	s := newTestState(10)
	s.SetGamma(false, 255)
	program(s,
		step(OpMul, Scalar(VarIndex), lit(0.1)),
		step(OpRGB, StepValue(0), lit(0), lit(0)),
	)
	rec := newRecorder()
	s.Run(0, rec)
	for i := 0; i < 10; i++ {
		want := s.LUT[Channel(float32(i)*0.1)]
		assert.Equal(t, want, rec.px[i].r, "led %d", i)
	}
}

func TestForwardReferenceReadsPreviousLED(t *testing.T) {
	s := newTestState(10)
	program(s,
		step(OpAdd, StepValue(1), lit(0)),
		step(OpAdd, Scalar(VarIndex), lit(0)),
	)
	s.Run(0, nil)
	assert.Equal(t, float32(8), s.Values[0])
	assert.Equal(t, float32(9), s.Values[1])
}

func TestInertStepsAreSkipped(t *testing.T) {
	s := newTestState(4)
	s.Values[1] = 42
	program(s, step(OpAdd, lit(1), lit(1)), Step{}, step(OpAdd, StepValue(1), lit(1)))
	s.Run(0, nil)
	assert.Equal(t, float32(42), s.Values[1])
	assert.Equal(t, float32(43), s.Values[2])
}

func TestStepCountLimitsExecution(t *testing.T) {
	s := newTestState(4)
	program(s, step(OpAdd, lit(1), lit(1)), step(OpAdd, lit(5), lit(5)))
	s.SetStepCount(1)
	s.Run(0, nil)
	assert.Equal(t, float32(2), s.Values[0])
	assert.Equal(t, float32(0), s.Values[1])

	s.SetStepCount(99)
	assert.Equal(t, MaxSteps, s.StepCount)
}

func TestTimeAndAccumulator(t *testing.T) {
	s := newTestState(3)
	program(s, step(OpAccum, lit(0.5)), step(OpAdd, Scalar(VarTime), lit(0)))

	s.Run(500*time.Millisecond, nil)
	s.Run(500*time.Millisecond, nil)
	assert.InDelta(t, 1.0, s.Time, 1e-6)
	assert.InDelta(t, 1.0, s.Values[1], 1e-6)
	assert.Equal(t, []float32{1, 1, 1}, s.Accum)
	assert.Equal(t, uint64(2), s.Frame)

	s.ResetTime()
	assert.Equal(t, float32(0), s.Time)
	assert.Equal(t, []float32{0, 0, 0}, s.Accum)
}

func TestScalarsAndArrays(t *testing.T) {
	s := newTestState(228)
	require.NoError(t, s.SetStation(0))
	program(s,
		step(OpAdd, Scalar(VarRatio), lit(0)),
		step(OpAdd, Scalar(VarCount), lit(0)),
		step(OpAdd, Scalar(VarStation), lit(0)),
		step(OpAdd, Array(ArrayX), lit(0)),
		step(OpAdd, Array(ArrayAngle), lit(0)),
	)
	s.Run(0, nil)
	assert.InDelta(t, 227.0/228, s.Values[0], 1e-6)
	assert.Equal(t, float32(228), s.Values[1])
	assert.Equal(t, float32(0), s.Values[2])
	assert.Equal(t, s.Geometry.X[227], s.Values[3])
	assert.Equal(t, s.Geometry.Angle[227], s.Values[4])
}

func TestSensorSmoothing(t *testing.T) {
	s := newTestState(1)
	s.SetSensor(1)
	program(s,
		step(OpAdd, Scalar(VarSensor), lit(0)),
		step(OpAdd, Scalar(VarSensor2), lit(0)),
		step(OpAdd, Scalar(VarSensor8), lit(0)),
	)
	s.Run(100*time.Millisecond, nil)
	assert.InDelta(t, 0.4, s.Sensor, 1e-6)
	assert.InDelta(t, 0.16, s.Values[1], 1e-6)
	assert.InDelta(t, math.Pow(0.4, 8), s.Values[2], 1e-6)

	// a long frame lands on the target rather than overshooting
	s.Run(10*time.Second, nil)
	assert.InDelta(t, 1.0, s.Sensor, 1e-6)
}

func TestDivisionByZeroPropagates(t *testing.T) {
	s := newTestState(1)
	program(s, step(OpDiv, lit(1), lit(0)), step(OpMod, lit(1), lit(0)))
	s.Run(0, nil)
	assert.True(t, math.IsInf(float64(s.Values[0]), 1))
	assert.True(t, math.IsNaN(float64(s.Values[1])))
}

func TestArithmeticSemantics(t *testing.T) {
	cases := []struct {
		name    string
		op      Op
		a, b, c float32
		want    float32
	}{
		{"mod positive", OpMod, 7, 3, 0, 1},
		{"mod sign of divisor", OpMod, -1, 3, 0, 2},
		{"mod negative divisor", OpMod, 5, -3, 0, -1},
		{"less", OpLess, 1, 2, 0, 1},
		{"greater eq", OpGreaterEq, 2, 2, 0, 1},
		{"not equal", OpNotEqual, 2, 2, 0, 0},
		{"ternary true", OpTernary, 1, 5, 6, 5},
		{"ternary false", OpTernary, 0, 5, 6, 6},
		{"lerp", OpLerp, 2, 4, 0.25, 2.5},
		{"clamp high", OpClamp, 9, 0, 1, 1},
		{"clamp low", OpClamp, -9, 0, 1, 0},
		{"min", OpMin, 3, -1, 0, -1},
		{"max", OpMax, 3, -1, 0, 3},
		{"floor", OpFloor, -1.5, 0, 0, -2},
		{"ceil", OpCeil, 1.2, 0, 0, 2},
		{"round", OpRound, 2.5, 0, 0, 3},
		{"frac negative", OpFrac, -0.25, 0, 0, 0.75},
		{"abs", OpAbs, -4, 0, 0, 4},
		{"sqrt", OpSqrt, 9, 0, 0, 3},
		{"pow", OpPow, 2, 10, 0, 1024},
		{"log base", OpLogBase, 8, 2, 0, 3},
		{"sinq quarter", OpSinQ, 0.25, 0, 0, 1},
		{"sinq three quarters", OpSinQ, 0.75, 0, 0, -1},
		{"cosq zero", OpCosQ, 0, 0, 0, 1},
		{"sin01 zero", OpSin01, 0, 0, 0, 0.5},
		{"cos01 half", OpCos01, 0.5, 0, 0, 0},
		{"tri half", OpTri, 0.5, 0, 0, 1},
		{"tri whole", OpTri, 3, 0, 0, 0},
		{"peak quarter", OpPeak, 0.25, 0, 0, 0.0625},
		{"u2b", OpU2B, 0.75, 0, 0, 0.5},
		{"b2u", OpB2U, -1, 0, 0, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := newTestState(1)
			program(s, step(c.op, lit(c.a), lit(c.b), lit(c.c)))
			s.Run(0, nil)
			assert.InDelta(t, float64(c.want), float64(s.Values[0]), 1e-5)
		})
	}
}

func TestNaNNeverPanics(t *testing.T) {
	s := newTestState(2)
	program(s,
		step(OpLog, lit(-1)),
		step(OpHSV, StepValue(0), StepValue(0), StepValue(0)),
		step(OpNoise3, StepValue(0), StepValue(0), StepValue(0)),
		step(OpRGB, StepValue(0), lit(2), lit(-2)),
	)
	rec := newRecorder()
	assert.NotPanics(t, func() { s.Run(time.Millisecond, rec) })
	assert.Equal(t, pixel{s.LUT[0], s.LUT[255], s.LUT[0]}, rec.px[1])
}

func TestRandomOpsStayInRange(t *testing.T) {
	s := newTestState(50)
	program(s, step(OpRand, lit(2)), step(OpRandRange, lit(-1), lit(1)), step(OpAccum, StepValue(0)))
	for i := 0; i < 10; i++ {
		s.Run(0, nil)
		assert.GreaterOrEqual(t, s.Values[0], float32(0))
		assert.Less(t, s.Values[0], float32(2))
		assert.GreaterOrEqual(t, s.Values[1], float32(-1))
		assert.Less(t, s.Values[1], float32(1))
	}
}

func TestNoiseOpsReadTheField(t *testing.T) {
	s := newTestState(1)
	program(s, step(OpNoise1Q, lit(0.5)), step(OpNoise2, lit(0.1), lit(0.2)))
	s.Run(0, nil)
	assert.Equal(t, s.Noise.Quantized1(0.5), s.Values[0])
	assert.Equal(t, s.Noise.Sample2(0.1, 0.2), s.Values[1])

	s.Reseed(99)
	s.Run(0, nil)
	assert.Equal(t, int64(99), s.Noise.Seed())
	assert.Equal(t, s.Noise.Quantized1(0.5), s.Values[0])
}

func TestHSVSectorBoundaries(t *testing.T) {
	cases := []struct {
		h       float32
		r, g, b float32
	}{
		{0, 1, 0, 0},
		{1.0 / 6, 1, 1, 0},
		{1.0 / 3, 0, 1, 0},
		{0.5, 0, 1, 1},
		{2.0 / 3, 0, 0, 1},
		{5.0 / 6, 1, 0, 1},
		{1, 1, 0, 0},
		{-1.0 / 3, 0, 0, 1},
	}
	for _, c := range cases {
		r, g, b := HSV(c.h, 1, 1)
		assert.InDelta(t, c.r, r, 1e-5, "h=%v r", c.h)
		assert.InDelta(t, c.g, g, 1e-5, "h=%v g", c.h)
		assert.InDelta(t, c.b, b, 1e-5, "h=%v b", c.h)
	}

	// half saturation raises the pit
	r, g, b := HSV(0, 0.5, 1)
	assert.Equal(t, []float32{1, 0.5, 0.5}, []float32{r, g, b})
}

func TestHSVOpDominantChannel(t *testing.T) {
	s := newTestState(1)
	s.SetGamma(false, 255)
	rec := newRecorder()

	for _, c := range []struct {
		h    float32
		want pixel
	}{
		{0, pixel{255, 0, 0}},
		{1.0 / 3, pixel{0, 255, 0}},
		{2.0 / 3, pixel{0, 0, 255}},
	} {
		program(s, step(OpHSV, lit(c.h), lit(1), lit(1)))
		s.Run(0, rec)
		assert.Equal(t, c.want, rec.px[0], "h=%v", c.h)
	}
}

func TestLUTProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		gamma := rapid.Bool().Draw(t, "gamma")
		bright := rapid.Uint8().Draw(t, "bright")
		lut := BuildLUT(gamma, bright)
		if lut[0] != 0 {
			t.Fatalf("lut[0] = %d", lut[0])
		}
		if lut[255] != bright {
			t.Fatalf("lut[255] = %d, want %d", lut[255], bright)
		}
		for i := 1; i < 256; i++ {
			if lut[i] < lut[i-1] {
				t.Fatalf("lut not monotonic at %d: %d < %d", i, lut[i], lut[i-1])
			}
		}
	})

	lin := BuildLUT(false, 255)
	for i := range lin {
		assert.Equal(t, uint8(i), lin[i])
	}
	g := BuildLUT(true, 255)
	assert.Equal(t, uint8(64), g[128])
}

func TestSetStationUnknownZeroesGeometry(t *testing.T) {
	s := newTestState(30)
	assert.Error(t, s.SetStation(40))
	assert.Equal(t, 40, s.StationID)
	assert.Equal(t, 30, s.Geometry.Len())
	for i := range s.Geometry.Exists {
		assert.False(t, s.Geometry.Exists[i])
	}
}

func TestOpTable(t *testing.T) {
	seen := map[byte]Op{}
	for o := OpNone + 1; o < opCount; o++ {
		code := o.Code()
		prev, dup := seen[code]
		assert.False(t, dup, "%v and %v share code %q", prev, o, code)
		seen[code] = o

		got, ok := OpForCode(code)
		assert.True(t, ok)
		assert.Equal(t, o, got)

		byName, ok := OpForName(o.String())
		assert.True(t, ok)
		assert.Equal(t, o, byName)
		assert.GreaterOrEqual(t, o.Arity(), 1)
	}
	_, ok := OpForCode('#')
	assert.False(t, ok)
	assert.Equal(t, 3, OpHSV.Arity())
	assert.Equal(t, byte('{'), OpLessEq.Code())
}

func TestSymbols(t *testing.T) {
	cases := []struct {
		wire string
		want Argument
		ok   bool
	}{
		{"T_", Scalar(VarTime), true},
		{"P_", Scalar(VarRatio), true},
		{"UA", Scalar(VarSensor2), true},
		{"A_", Array(ArrayAngle), true},
		{"v!", StepValue(0), true},
		{"v4", StepValue(19), true},
		{"v5", Argument{}, false},
		{"v ", Argument{}, false},
		{"Q_", Argument{}, false},
		{"TT", Argument{}, false},
	}
	for _, c := range cases {
		got, ok := LookupSymbol(c.wire[0], c.wire[1])
		assert.Equal(t, c.ok, ok, c.wire)
		assert.Equal(t, c.want, got, c.wire)
		if ok {
			assert.Equal(t, c.wire, got.String())
		}
	}

	a, ok := SymbolFor("U")
	assert.True(t, ok)
	assert.Equal(t, Scalar(VarSensor), a)
	a, ok = SymbolFor("UC")
	assert.True(t, ok)
	assert.Equal(t, Scalar(VarSensor8), a)
	_, ok = SymbolFor("LA")
	assert.False(t, ok)
}

func TestLiteralWireText(t *testing.T) {
	assert.Equal(t, "1.5", Literal(1.5).String())
	assert.Equal(t, "0.03", Literal(0.03).String())
	assert.Equal(t, "12", Literal(12).String())
	assert.True(t, Literal(0).IsZero())
	assert.False(t, StepValue(0).IsZero())
}

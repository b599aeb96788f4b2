package vm

import (
	"math"
	"time"
)

// Run advances time by elapsed then evaluates the program for every LED in index order.
func (s *State) Run(elapsed time.Duration, sink PixelSink) {
	dt := float32(elapsed.Seconds())
	s.Time += dt
	s.smoothSensor(dt)
	s.Frame++

	n := s.activeSteps()
	for led := 0; led < s.LEDCount; led++ {
		s.led = led
		for i := 0; i < n; i++ {
			st := &s.Steps[i]
			if st.Op == OpNone {
				continue
			}
			s.Values[i] = s.eval(st, sink)
		}
	}
}

func (s *State) smoothSensor(dt float32) {
	k := min(1, s.SensorRate*dt)
	if k < 0 {
		k = 0
	}
	s.Sensor += (s.SensorTarget - s.Sensor) * k
}

func (s *State) scalar(v VarID) float32 {
	switch v {
	case VarTime:
		return s.Time
	case VarStation:
		return float32(s.StationID)
	case VarIndex:
		return float32(s.led)
	case VarCount:
		return float32(s.LEDCount)
	case VarRatio:
		return float32(s.led) / float32(s.LEDCount)
	case VarSensor:
		return s.Sensor
	case VarSensor2:
		return s.Sensor * s.Sensor
	case VarSensor4:
		u := s.Sensor * s.Sensor
		return u * u
	case VarSensor8:
		u := s.Sensor * s.Sensor
		u *= u
		return u * u
	}
	return 0
}

func (s *State) array(a ArrayID) float32 {
	g := s.Geometry
	if g == nil || s.led >= g.Len() {
		return 0
	}
	switch a {
	case ArrayX:
		return g.X[s.led]
	case ArrayY:
		return g.Y[s.led]
	case ArrayAngle:
		return g.Angle[s.led]
	}
	return 0
}

func (s *State) deref(a Argument) float32 {
	switch a.Kind {
	case ArgScalar:
		return s.scalar(a.Var)
	case ArgArray:
		return s.array(a.Array)
	case ArgStep:
		if int(a.Step) < MaxSteps {
			return s.Values[a.Step]
		}
		return 0
	}
	return a.Value
}

func f32(v float64) float32 { return float32(v) }

func bool32(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func (s *State) eval(st *Step, sink PixelSink) float32 {
	a := s.deref(st.Args[0])
	b := s.deref(st.Args[1])
	c := s.deref(st.Args[2])

	switch st.Op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		return a / b
	case OpMod:
		return a - b*f32(math.Floor(float64(a/b)))

	case OpLess:
		return bool32(a < b)
	case OpGreater:
		return bool32(a > b)
	case OpLessEq:
		return bool32(a <= b)
	case OpGreaterEq:
		return bool32(a >= b)
	case OpEqual:
		return bool32(a == b)
	case OpNotEqual:
		return bool32(a != b)
	case OpTernary:
		if a != 0 {
			return b
		}
		return c

	case OpSin:
		return f32(math.Sin(float64(a)))
	case OpCos:
		return f32(math.Cos(float64(a)))
	case OpSin01:
		return SinQ(a)*0.5 + 0.5
	case OpCos01:
		return CosQ(a)*0.5 + 0.5
	case OpSinQ:
		return SinQ(a)
	case OpCosQ:
		return CosQ(a)
	case OpTan:
		return f32(math.Tan(float64(a)))
	case OpPow:
		return f32(math.Pow(float64(a), float64(b)))
	case OpAbs:
		return f32(math.Abs(float64(a)))
	case OpAtan2:
		return f32(math.Atan2(float64(a), float64(b)))
	case OpFloor:
		return f32(math.Floor(float64(a)))
	case OpCeil:
		return f32(math.Ceil(float64(a)))
	case OpRound:
		return f32(math.Round(float64(a)))
	case OpFrac:
		return Frac(a)
	case OpSqrt:
		return f32(math.Sqrt(float64(a)))
	case OpLog:
		return f32(math.Log(float64(a)))
	case OpLogBase:
		return f32(math.Log(float64(a)) / math.Log(float64(b)))

	case OpRand:
		return a * s.rng.Float32()
	case OpRandRange:
		return a + (b-a)*s.rng.Float32()
	case OpNoise1:
		return s.Noise.Sample1(a)
	case OpNoise2:
		return s.Noise.Sample2(a, b)
	case OpNoise3:
		return s.Noise.Sample3(a, b, c)
	case OpNoise1Q:
		return s.Noise.Quantized1(a)
	case OpNoise2Q:
		return s.Noise.Quantized2(a, b)
	case OpNoise3Q:
		return s.Noise.Quantized3(a, b, c)

	case OpMin:
		return min(a, b)
	case OpMax:
		return max(a, b)
	case OpLerp:
		return a + (b-a)*c
	case OpClamp:
		return min(max(a, b), c)
	case OpTri:
		return Tri(a)
	case OpPeak:
		t := Tri(a)
		t *= t
		return t * t
	case OpU2B:
		return a*2 - 1
	case OpB2U:
		return a*0.5 + 0.5

	case OpAccum:
		if s.led >= len(s.Accum) {
			return a
		}
		s.Accum[s.led] += a
		return s.Accum[s.led]
	case OpRGB:
		s.emit(sink, a, b, c)
		return 1
	case OpHSV:
		r, g, bl := HSV(a, b, c)
		s.emit(sink, r, g, bl)
		return 1
	}
	return 0
}

func (s *State) emit(sink PixelSink, r, g, b float32) {
	if sink == nil {
		return
	}
	sink.SetPixel(s.led, s.LUT[Channel(r)], s.LUT[Channel(g)], s.LUT[Channel(b)])
}

// Channel maps a normalized color value onto a LUT index. NaN maps to 0.
func Channel(v float32) uint8 {
	if v != v {
		return 0
	}
	x := v * 255
	if x <= 0 {
		return 0
	}
	if x >= 255 {
		return 255
	}
	return uint8(x)
}

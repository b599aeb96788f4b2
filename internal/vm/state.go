// Package vm holds the per-station engine state and the step evaluator.
//
// A State is owned by exactly one goroutine. The protocol decoder mutates it between
// frames and Run reads it once per frame; neither takes a lock.
package vm

import (
	"math/rand"

	"github.com/coreman2200/funtimes-stationchain/internal/geometry"
	"github.com/coreman2200/funtimes-stationchain/internal/noise"
)

const (
	MaxSteps = 20
	ArgCount = 3
)

type BlinkMode uint8

const (
	BlinkOff BlinkMode = iota
	BlinkOn
	BlinkSixtieth
	BlinkStationID
)

// Step is one instruction. A step with OpNone is skipped.
type Step struct {
	Op   Op
	Args [ArgCount]Argument
}

// PixelSink receives gamma-mapped output for one LED.
type PixelSink interface {
	SetPixel(i int, r, g, b uint8)
}

type Options struct {
	LEDCount     int
	StationCount int
	StationID    int
	Seed         int64
	Gamma        bool
	Brightness   uint8
	SensorRate   float32
}

func DefaultOptions() Options {
	return Options{
		LEDCount:     geometry.DefaultLEDCount,
		StationCount: len(geometry.Tables),
		Seed:         1,
		Gamma:        true,
		Brightness:   64,
		SensorRate:   4,
	}
}

type State struct {
	Steps     [MaxSteps]Step
	StepCount int
	Values    [MaxSteps]float32
	Accum     []float32

	// Time is seconds since the last reset; Frame counts Run calls.
	Time  float32
	Frame uint64

	StationID    int
	StationCount int
	LEDCount     int
	Geometry     *geometry.Layout
	Noise        *noise.Field

	LUT        [256]uint8
	Gamma      bool
	Brightness uint8
	Blink      BlinkMode

	SensorTarget float32
	Sensor       float32
	SensorRate   float32

	rng *rand.Rand
	led int
}

// NewState builds a state with geometry decoded for o.StationID and noise seeded from o.Seed.
// A station without a layout table gets zeroed geometry.
func NewState(o Options) *State {
	if o.LEDCount < 0 {
		o.LEDCount = 0
	}
	s := &State{
		StationCount: o.StationCount,
		LEDCount:     o.LEDCount,
		Accum:        make([]float32, o.LEDCount),
		Noise:        noise.New(o.Seed),
		SensorRate:   o.SensorRate,
		rng:          rand.New(rand.NewSource(o.Seed)),
	}
	s.SetGamma(o.Gamma, o.Brightness)
	_ = s.SetStation(o.StationID)
	return s
}

// SetStation changes identity and re-decodes geometry. On decode failure the
// geometry is zeroed and the error returned.
func (s *State) SetStation(id int) error {
	s.StationID = id
	l, err := geometry.ForStation(id, s.LEDCount)
	if err != nil {
		s.Geometry = geometry.NewLayout(s.LEDCount)
		return err
	}
	s.Geometry = l
	return nil
}

// SetGamma stores the gamma flag and brightness and rebuilds the LUT.
func (s *State) SetGamma(gamma bool, brightness uint8) {
	s.Gamma = gamma
	s.Brightness = brightness
	s.LUT = BuildLUT(gamma, brightness)
}

// BuildLUT maps a channel byte to output: i²·b/255² with gamma, i·b/255 without.
func BuildLUT(gamma bool, brightness uint8) [256]uint8 {
	var lut [256]uint8
	b := uint32(brightness)
	for i := uint32(0); i < 256; i++ {
		if gamma {
			lut[i] = uint8((i*i*b + 255*255/2) / (255 * 255))
		} else {
			lut[i] = uint8((i*b + 255/2) / 255)
		}
	}
	return lut
}

// ResetTime zeroes the clock and the accumulators.
func (s *State) ResetTime() {
	s.Time = 0
	for i := range s.Accum {
		s.Accum[i] = 0
	}
}

// SetStepCount clamps n to [0, MaxSteps].
func (s *State) SetStepCount(n int) {
	s.StepCount = max(0, min(n, MaxSteps))
}

// SetStep replaces step i. Out of range indices are ignored.
func (s *State) SetStep(i int, st Step) {
	if i < 0 || i >= MaxSteps {
		return
	}
	s.Steps[i] = st
}

func (s *State) SetSensor(target float32) { s.SensorTarget = target }

// Reseed regenerates the noise field and restarts the random source.
func (s *State) Reseed(seed int64) {
	s.Noise.Regenerate(seed)
	s.rng.Seed(seed)
}

// Program returns the active steps.
func (s *State) Program() []Step {
	return s.Steps[:s.activeSteps()]
}

func (s *State) activeSteps() int {
	return max(0, min(s.StepCount, MaxSteps))
}

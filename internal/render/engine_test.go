package render

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/coreman2200/funtimes-stationchain/internal/vm"
)

type fakeDriver struct {
	frames [][]byte
	err    error
}

func (d *fakeDriver) Write(rgb []byte) error {
	d.frames = append(d.frames, append([]byte(nil), rgb...))
	return d.err
}

func (d *fakeDriver) Close() error { return nil }

func newState(t *testing.T, leds int) *vm.State {
	t.Helper()
	o := vm.DefaultOptions()
	o.LEDCount = leds
	s := vm.NewState(o)
	s.SetGamma(false, 255)
	return s
}

func solid(s *vm.State, r, g, b float32) {
	s.SetStep(0, vm.Step{Op: vm.OpRGB, Args: [vm.ArgCount]vm.Argument{vm.Literal(r), vm.Literal(g), vm.Literal(b)}})
	s.SetStepCount(1)
}

func TestNewEngineValidates(t *testing.T) {
	_, err := NewEngine(nil, nil)
	assert.Error(t, err)
	_, err = NewEngine(newState(t, 0), nil)
	assert.Error(t, err)
}

func TestRenderOnceWritesFrame(t *testing.T) {
	s := newState(t, 3)
	solid(s, 1, 0, 0)
	drv := &fakeDriver{}
	e, err := NewEngine(s, drv)
	require.NoError(t, err)

	var seen uint64
	e.OnFrame = func(frame uint64, rgb []byte) { seen = frame }

	require.NoError(t, e.RenderOnce(16*time.Millisecond))
	require.Len(t, drv.frames, 1)
	assert.Equal(t, []byte{255, 0, 0, 255, 0, 0, 255, 0, 0}, drv.frames[0])
	assert.EqualValues(t, 1, seen)
	assert.GreaterOrEqual(t, e.Last.TotalMS, e.Last.RenderMS)
}

func TestRenderOnceDriverError(t *testing.T) {
	s := newState(t, 1)
	drv := &fakeDriver{err: errors.New("boom")}
	e, err := NewEngine(s, drv)
	require.NoError(t, err)
	assert.EqualError(t, e.RenderOnce(0), "boom")
}

func TestBlinkDoesNotStick(t *testing.T) {
	s := newState(t, 3)
	s.Blink = vm.BlinkStationID
	s.StationID = 1
	drv := &fakeDriver{}
	e, err := NewEngine(s, drv)
	require.NoError(t, err)

	require.NoError(t, e.RenderOnce(0))
	assert.Equal(t, []byte{255, 255, 255, 255, 255, 255, 0, 0, 0}, drv.frames[0])
	assert.Equal(t, make([]byte, 9), e.Strip.Bytes())

	s.Blink = vm.BlinkOff
	require.NoError(t, e.RenderOnce(0))
	assert.Equal(t, make([]byte, 9), drv.frames[1])
}

func TestBlinkModes(t *testing.T) {
	cases := []struct {
		name  string
		mode  vm.BlinkMode
		time  float32
		frame uint64
		lit   int
	}{
		{"off", vm.BlinkOff, 0.1, 60, 0},
		{"on first half", vm.BlinkOn, 3.25, 1, 1},
		{"on second half", vm.BlinkOn, 3.75, 1, 0},
		{"sixtieth hit", vm.BlinkSixtieth, 0, 120, 1},
		{"sixtieth miss", vm.BlinkSixtieth, 0, 121, 0},
		{"station id", vm.BlinkStationID, 0, 1, 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := newState(t, 4)
			s.SetGamma(true, 128)
			s.StationID = 2
			s.Blink, s.Time, s.Frame = c.mode, c.time, c.frame
			out := make([]byte, 12)
			BlinkOverlay(out, s)
			for i := 0; i < 4; i++ {
				want := byte(0)
				if i < c.lit {
					want = s.LUT[255]
				}
				assert.Equal(t, []byte{want, want, want}, out[i*3:i*3+3], "led %d", i)
			}
		})
	}
}

func TestBlinkStationIDClipped(t *testing.T) {
	s := newState(t, 2)
	s.Blink = vm.BlinkStationID
	s.StationID = 7
	out := make([]byte, 6)
	BlinkOverlay(out, s)
	assert.Equal(t, []byte{255, 255, 255, 255, 255, 255}, out)
}

func TestWhiteCapLimiter(t *testing.T) {
	buf := []byte{255, 255, 255, 10, 20, 30}
	WhiteCapLimiter(buf, 0.5)
	assert.Equal(t, []byte{127, 127, 127, 10, 20, 30}, buf)

	buf = []byte{255, 255, 255}
	WhiteCapLimiter(buf, 0)
	assert.Equal(t, []byte{255, 255, 255}, buf)
}

func TestWhiteCapLimiterBound(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.Float64Range(0.01, 0.99).Draw(t, "limit")
		px := rapid.SliceOfN(rapid.Byte(), 3, 3).Draw(t, "px")
		before := append([]byte(nil), px...)
		WhiteCapLimiter(px, limit)
		sum := float64(px[0]) + float64(px[1]) + float64(px[2])
		if sum > limit*3*255 {
			t.Fatalf("sum %v over %v", sum, limit*3*255)
		}
		for i := range px {
			if px[i] > before[i] {
				t.Fatalf("channel %d grew", i)
			}
		}
	})
}

func TestEstimateCurrent(t *testing.T) {
	assert.InDelta(t, 0.060, EstimateCurrent([]byte{255, 255, 255}), 1e-9)
	assert.Zero(t, EstimateCurrent(nil))
}

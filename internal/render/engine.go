// Package render runs the VM once per frame and pushes the result to a driver.
package render

import (
	"errors"
	"time"

	"github.com/coreman2200/funtimes-stationchain/internal/led"
	"github.com/coreman2200/funtimes-stationchain/internal/vm"
)

// Engine evaluates the station program into Strip, copies it to Out, applies
// post stages, then writes Out to the driver. Strip keeps what the program
// wrote last; post stages never touch it.
type Engine struct {
	State *vm.State
	Strip *led.Strip
	Drv   led.Driver

	// Out is the post-processed frame sent to the driver.
	Out []byte

	// WhiteCap bounds each LED's channel sum as a fraction of 3*255; 0 disables.
	WhiteCap float64

	// Pattern, while set, replaces the program output. It clears itself when done.
	Pattern *Pattern

	// OnFrame, if set, sees every written frame. It must not keep rgb.
	OnFrame func(frame uint64, rgb []byte)

	post PostPipeline

	// metrics (last durations in ms)
	Last struct {
		RenderMS float64
		PostMS   float64
		TotalMS  float64
	}
}

// PostPipeline groups post stages; all are optional.
type PostPipeline struct {
	Overlay func(out []byte, s *vm.State)
	Limiter func(out []byte, whiteCap float64)
}

// NewEngine allocates buffers sized to s.LEDCount with the default post stages.
func NewEngine(s *vm.State, drv led.Driver) (*Engine, error) {
	if s == nil {
		return nil, errors.New("nil state")
	}
	if s.LEDCount <= 0 {
		return nil, errors.New("invalid led count")
	}
	return &Engine{
		State: s,
		Strip: led.NewStrip(s.LEDCount),
		Drv:   drv,
		Out:   make([]byte, s.LEDCount*3),
		post: PostPipeline{
			Overlay: BlinkOverlay,
			Limiter: WhiteCapLimiter,
		},
	}, nil
}

func (e *Engine) SetPost(p PostPipeline) { e.post = p }

// RenderOnce advances the program by elapsed and writes one frame.
func (e *Engine) RenderOnce(elapsed time.Duration) error {
	start := time.Now()

	e.State.Run(elapsed, e.Strip)
	renderMS := float64(time.Since(start).Microseconds()) / 1000.0
	copy(e.Out, e.Strip.Bytes())
	if e.Pattern != nil && !e.Pattern.Step(e.Out) {
		e.Pattern = nil
		copy(e.Out, e.Strip.Bytes())
	}

	postStart := time.Now()
	if e.post.Overlay != nil {
		e.post.Overlay(e.Out, e.State)
	}
	if e.post.Limiter != nil {
		e.post.Limiter(e.Out, e.WhiteCap)
	}
	e.Last.PostMS = float64(time.Since(postStart).Microseconds()) / 1000.0

	if e.Drv != nil {
		if err := e.Drv.Write(e.Out); err != nil {
			return err
		}
	}
	if e.OnFrame != nil {
		e.OnFrame(e.State.Frame, e.Out)
	}

	e.Last.RenderMS = renderMS
	e.Last.TotalMS = float64(time.Since(start).Microseconds()) / 1000.0
	return nil
}

// Package app wires the decoder, VM, render engine and attract player into the
// station loop. Core.Run is the only goroutine that touches the station state;
// transports and the control socket hand it bytes over channels.
package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/funtimes-stationchain/internal/diagnostics"
	"github.com/coreman2200/funtimes-stationchain/internal/led"
	"github.com/coreman2200/funtimes-stationchain/internal/protocol"
	"github.com/coreman2200/funtimes-stationchain/internal/render"
	"github.com/coreman2200/funtimes-stationchain/internal/sequence"
	"github.com/coreman2200/funtimes-stationchain/internal/vm"
	"github.com/coreman2200/funtimes-stationchain/internal/ws"
)

// Observer receives frames, diagnostics and status from the loop. *ws.Hub is one.
type Observer interface {
	BroadcastFrame(frame uint64, rgb []byte)
	PushDiag(d diag.Diagnostic)
	SetStatus(st ws.Status)
}

type HWConfig struct {
	VM       vm.Options
	MaxLine  int
	FPS      int
	WhiteCap float64
	Drv      led.Driver
	// DriverName overrides led.Name(Drv) in status.
	DriverName string
	// Downstream receives relayed lines; nil drops them.
	Downstream io.Writer

	IdleAttractS float64
	Attract      []sequence.Clip
}

type Core struct {
	State *vm.State
	Eng   *render.Engine
	Seq   *sequence.Player

	up      *protocol.Decoder
	ctl     *protocol.Decoder
	attract *protocol.Decoder

	down   io.Writer
	obs    Observer
	fps    int
	driver string

	log    zerolog.Logger
	errLog zerolog.Logger
}

// InitCore builds the station. obs may be nil.
func InitCore(hw HWConfig, obs Observer) (*Core, error) {
	if hw.FPS <= 0 {
		return nil, errors.New("fps must be positive")
	}
	s := vm.NewState(hw.VM)
	eng, err := render.NewEngine(s, hw.Drv)
	if err != nil {
		return nil, err
	}
	eng.WhiteCap = hw.WhiteCap

	c := &Core{
		State:   s,
		Eng:     eng,
		up:      protocol.NewDecoder(hw.MaxLine),
		ctl:     protocol.NewDecoder(hw.MaxLine),
		attract: protocol.NewDecoder(hw.MaxLine),
		down:    hw.Downstream,
		obs:     obs,
		fps:     hw.FPS,
		driver:  hw.DriverName,
		log:     log.With().Str("component", "core").Logger(),
	}
	if c.driver == "" {
		c.driver = led.Name(hw.Drv)
	}
	c.errLog = c.log.Sample(&zerolog.BurstSampler{Burst: 1, Period: time.Second})

	if obs != nil {
		eng.OnFrame = obs.BroadcastFrame
	}

	c.Seq = sequence.NewPlayer(sequence.Hooks{
		Play: c.playClip,
		Stop: func() { c.push(diag.Attract(false, "")) },
	}, hw.IdleAttractS)
	if len(hw.Attract) > 0 {
		if err := c.Seq.Load(hw.Attract); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Core) playClip(clip sequence.Clip) {
	c.State.ResetTime()
	if _, rejected := c.attract.FeedScript(c.State, []byte(clip.Script)); rejected > 0 {
		c.log.Warn().Str("clip", clip.Name).Int("rejected", rejected).Msg("attract script has bad lines")
	}
	c.log.Info().Str("clip", clip.Name).Msg("attract")
	c.push(diag.Attract(true, clip.Name))
}

func (c *Core) push(d diag.Diagnostic) {
	if c.obs != nil {
		c.obs.PushDiag(d)
	}
}

// Inputs are the channels Core.Run reads. Any may be nil, and a closed
// channel is ignored from then on.
type Inputs struct {
	// Upstream carries bytes from the previous station.
	Upstream <-chan []byte
	// Control carries lines from the local control socket.
	Control <-chan []byte
	// Sensor carries raw readings; the VM smooths toward the latest.
	Sensor <-chan float32
	// Reseed regenerates the noise field and random source.
	Reseed <-chan int64
}

// Run owns the station until ctx ends.
func (c *Core) Run(ctx context.Context, in Inputs) error {
	tick := time.NewTicker(time.Second / time.Duration(c.fps))
	defer tick.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case b, ok := <-in.Upstream:
			if !ok {
				in.Upstream = nil
				continue
			}
			c.ingest(c.up, b)
		case b, ok := <-in.Control:
			if !ok {
				in.Control = nil
				continue
			}
			c.ingest(c.ctl, b)
		case v, ok := <-in.Sensor:
			if !ok {
				in.Sensor = nil
				continue
			}
			c.State.SetSensor(v)
		case seed, ok := <-in.Reseed:
			if !ok {
				in.Reseed = nil
				continue
			}
			c.reseed(seed)
		case now := <-tick.C:
			dt := now.Sub(last)
			last = now
			c.frame(dt)
		}
	}
}

func (c *Core) reseed(seed int64) {
	if seed == c.State.Noise.Seed() {
		return
	}
	c.State.Reseed(seed)
	c.log.Info().Int64("seed", seed).Msg("reseeded")
}

// ingest runs bytes through d, relays what should go downstream and stops attract.
func (c *Core) ingest(d *protocol.Decoder, b []byte) {
	if len(b) == 0 {
		return
	}
	c.Seq.Touch()
	for _, r := range d.Write(c.State, b) {
		switch {
		case r.Code == protocol.Malformed:
			c.log.Debug().Str("reason", r.Reason.String()).Msg("line discarded")
			c.push(diag.Rejected(r))
		case r.Identity:
			c.log.Info().Int("station", c.State.StationID).Err(r.Err).Msg("identity")
			c.push(diag.Identity(c.State.StationID, c.State.StationCount, r.Err))
		}
		if r.Relay != nil && c.down != nil {
			if _, err := c.down.Write(r.Relay); err != nil {
				c.errLog.Warn().Err(err).Msg("relay downstream")
			}
		}
	}
}

func (c *Core) frame(dt time.Duration) {
	c.Seq.Tick(dt.Seconds())
	if err := c.Eng.RenderOnce(dt); err != nil {
		c.errLog.Warn().Err(err).Msg("driver write")
	}
	if c.obs != nil && c.State.Frame%uint64(c.fps) == 1%uint64(c.fps) {
		c.obs.SetStatus(c.Status())
	}
}

// Status snapshots the station. Call it from the loop goroutine only.
func (c *Core) Status() ws.Status {
	st := ws.Status{
		Station:      c.State.StationID,
		StationCount: c.State.StationCount,
		LEDs:         c.State.LEDCount,
		Steps:        len(c.State.Program()),
		Frame:        c.State.Frame,
		Driver:       c.driver,
		RenderMS:     c.Eng.Last.TotalMS,
		Amps:         render.EstimateCurrent(c.Eng.Out),
		Lines:        c.up.Stats(),
	}
	if clip, ok := c.Seq.Current(); ok {
		st.Attract = clip.Name
	}
	return st
}

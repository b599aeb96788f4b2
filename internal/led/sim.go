package led

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sim logs a compact frame summary instead of driving hardware.
type Sim struct {
	// Every sets how many frames pass between log lines; 0 logs none.
	Every  int
	Frames uint64
	Logger zerolog.Logger
}

func NewSim(every int) *Sim {
	return &Sim{Every: every, Logger: log.With().Str("driver", "sim").Logger()}
}

func (d *Sim) Write(rgb []byte) error {
	d.Frames++
	if d.Every <= 0 || d.Frames%uint64(d.Every) != 0 {
		return nil
	}
	n := len(rgb) / 3
	var r, g, b, lit int
	for i := 0; i+2 < len(rgb); i += 3 {
		r += int(rgb[i])
		g += int(rgb[i+1])
		b += int(rgb[i+2])
		if rgb[i]|rgb[i+1]|rgb[i+2] != 0 {
			lit++
		}
	}
	ev := d.Logger.Debug().Uint64("frame", d.Frames).Int("lit", lit)
	if n > 0 {
		ev = ev.Ints("avg", []int{r / n, g / n, b / n}).Hex("first", rgb[:3])
	}
	ev.Msg("frame")
	return nil
}

func (d *Sim) Close() error { return nil }

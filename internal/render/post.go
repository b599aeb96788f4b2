package render

import (
	"math"

	"github.com/coreman2200/funtimes-stationchain/internal/vm"
)

// BlinkOverlay lights marker LEDs at full LUT white according to s.Blink:
//   - BlinkOn: LED 0 during the first half of every second
//   - BlinkSixtieth: LED 0 on every 60th frame
//   - BlinkStationID: the first StationID+1 LEDs
func BlinkOverlay(out []byte, s *vm.State) {
	n := 0
	switch s.Blink {
	case vm.BlinkOn:
		if vm.Frac(s.Time) < 0.5 {
			n = 1
		}
	case vm.BlinkSixtieth:
		if s.Frame%60 == 0 {
			n = 1
		}
	case vm.BlinkStationID:
		n = s.StationID + 1
	}
	w := s.LUT[255]
	for i := 0; i < n && i*3+2 < len(out); i++ {
		out[i*3], out[i*3+1], out[i*3+2] = w, w, w
	}
}

// WhiteCapLimiter scales each LED so r+g+b <= whiteCap*3*255.
func WhiteCapLimiter(rgb []byte, whiteCap float64) {
	if whiteCap <= 0 || whiteCap >= 1 {
		return
	}
	limit := whiteCap * 3.0 * 255.0
	for i := 0; i+2 < len(rgb); i += 3 {
		s := float64(rgb[i]) + float64(rgb[i+1]) + float64(rgb[i+2])
		if s > limit {
			scale := limit / s
			rgb[i] = byte(math.Floor(float64(rgb[i]) * scale))
			rgb[i+1] = byte(math.Floor(float64(rgb[i+1]) * scale))
			rgb[i+2] = byte(math.Floor(float64(rgb[i+2]) * scale))
		}
	}
}

// EstimateCurrent returns amps drawn by an rgb frame at 20mA per channel full scale.
func EstimateCurrent(rgb []byte) float64 {
	var sum float64
	for _, c := range rgb {
		sum += float64(c)
	}
	return sum / 255.0 * 0.020
}

package vm

import "math"

// Frac returns x - floor(x), always in [0, 1) for finite x.
func Frac(x float32) float32 {
	return x - float32(math.Floor(float64(x)))
}

// SinQ approximates sin(2πx) with two parabolas. Period is 1.
func SinQ(x float32) float32 {
	p := Frac(x)
	if p < 0.5 {
		return 16 * p * (0.5 - p)
	}
	return -16 * (p - 0.5) * (1 - p)
}

func CosQ(x float32) float32 { return SinQ(x + 0.25) }

// Tri is a triangle wave: 0 at integers, 1 at half turns.
func Tri(x float32) float32 {
	v := 2*Frac(x) - 1
	if v < 0 {
		v = -v
	}
	return 1 - v
}

// HSV converts hue (in turns), saturation and value to RGB in [0, 1].
func HSV(h, s, v float32) (r, g, b float32) {
	h6 := h * 6
	fl := float32(math.Floor(float64(h6)))
	f := h6 - fl
	sector := int(fl) % 6
	if sector < 0 {
		sector += 6
	}
	if fl != fl {
		sector = 0
	}

	pit := v * (1 - s)
	rise := pit + (v-pit)*f
	fall := v - (v-pit)*f

	switch sector {
	case 0:
		return v, rise, pit
	case 1:
		return fall, v, pit
	case 2:
		return pit, v, rise
	case 3:
		return pit, fall, v
	case 4:
		return rise, pit, v
	default:
		return v, pit, fall
	}
}

// Package noise builds a small toroidal 3-D value-noise lattice.
package noise

import (
	"math"
	"math/rand"
)

// Size is the lattice side length.
const Size = 16

type Field struct {
	cells [Size * Size * Size]float32
	seed  int64
}

func New(seed int64) *Field {
	f := &Field{}
	f.Regenerate(seed)
	return f
}

func (f *Field) Seed() int64 { return f.seed }

func index(x, y, z int) int {
	return (wrap(z, Size)*Size+wrap(y, Size))*Size + wrap(x, Size)
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// At returns the lattice value at integer coordinates, wrapping each axis.
func (f *Field) At(x, y, z int) float32 {
	return f.cells[index(x, y, z)]
}

// Regenerate refills the lattice from seed. Same seed, same lattice.
func (f *Field) Regenerate(seed int64) {
	f.seed = seed
	rng := rand.New(rand.NewSource(seed))

	// finest octave
	for i := range f.cells {
		f.cells[i] = rng.Float32()
	}

	for step := 2; step < Size; step *= 2 {
		n := Size / step
		ctrl := make([]float32, n*n*n)
		for i := range ctrl {
			ctrl[i] = rng.Float32() * float32(step)
		}
		at := func(x, y, z int) float32 {
			return ctrl[(wrap(z, n)*n+wrap(y, n))*n+wrap(x, n)]
		}

		for z := 0; z < Size; z++ {
			for y := 0; y < Size; y++ {
				for x := 0; x < Size; x++ {
					cx, cy, cz := x/step, y/step, z/step
					tx := float32(x%step) / float32(step)
					ty := float32(y%step) / float32(step)
					tz := float32(z%step) / float32(step)
					f.cells[index(x, y, z)] += trilinear(tx, ty, tz, func(dx, dy, dz int) float32 {
						return at(cx+dx, cy+dy, cz+dz)
					})
				}
			}
		}
	}

	lo, hi := f.cells[0], f.cells[0]
	for _, v := range f.cells {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	for i, v := range f.cells {
		if span == 0 {
			f.cells[i] = 0
			continue
		}
		f.cells[i] = (v - lo) / span
	}
}

// Min and Max report the lattice extremes.
func (f *Field) Min() float32 {
	lo := f.cells[0]
	for _, v := range f.cells {
		lo = min(lo, v)
	}
	return lo
}

func (f *Field) Max() float32 {
	hi := f.cells[0]
	for _, v := range f.cells {
		hi = max(hi, v)
	}
	return hi
}

func trilinear(tx, ty, tz float32, corner func(dx, dy, dz int) float32) float32 {
	lerp := func(a, b, t float32) float32 { return a + (b-a)*t }
	x00 := lerp(corner(0, 0, 0), corner(1, 0, 0), tx)
	x10 := lerp(corner(0, 1, 0), corner(1, 1, 0), tx)
	x01 := lerp(corner(0, 0, 1), corner(1, 0, 1), tx)
	x11 := lerp(corner(0, 1, 1), corner(1, 1, 1), tx)
	return lerp(lerp(x00, x10, ty), lerp(x01, x11, ty), tz)
}

// cell maps a coordinate in turns onto a lattice index and the remainder toward the next one.
func cell(v float32) (int, float32) {
	d := float64(v)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, 0
	}
	d -= math.Floor(d)
	g := d * Size
	i := int(g)
	t := float32(g - float64(i))
	return wrap(i, Size), t
}

// Sample interpolates between the eight cells around (x, y, z). Coordinates wrap every 1.0.
func (f *Field) Sample(x, y, z float32) float32 {
	ix, tx := cell(x)
	iy, ty := cell(y)
	iz, tz := cell(z)
	return trilinear(tx, ty, tz, func(dx, dy, dz int) float32 {
		return f.At(ix+dx, iy+dy, iz+dz)
	})
}

func (f *Field) Sample1(x float32) float32    { return f.Sample(x, 0, 0) }
func (f *Field) Sample2(x, y float32) float32 { return f.Sample(x, y, 0) }
func (f *Field) Sample3(x, y, z float32) float32 {
	return f.Sample(x, y, z)
}

// Quantized returns the cell at or below (x, y, z) with no interpolation.
func (f *Field) Quantized(x, y, z float32) float32 {
	ix, _ := cell(x)
	iy, _ := cell(y)
	iz, _ := cell(z)
	return f.At(ix, iy, iz)
}

func (f *Field) Quantized1(x float32) float32    { return f.Quantized(x, 0, 0) }
func (f *Field) Quantized2(x, y float32) float32 { return f.Quantized(x, y, 0) }
func (f *Field) Quantized3(x, y, z float32) float32 {
	return f.Quantized(x, y, z)
}

package noise

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestRegenerateRangeAndExtremes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		f := New(seed)
		for i, v := range f.cells {
			if v < 0 || v > 1 {
				t.Fatalf("cell %d out of range: %v", i, v)
			}
		}
		if f.Min() != 0 || f.Max() != 1 {
			t.Fatalf("extremes %v %v, want 0 1", f.Min(), f.Max())
		}
	})
}

func TestRegenerateIsDeterministic(t *testing.T) {
	a := New(42)
	b := New(7)
	assert.NotEqual(t, a.cells, b.cells)

	b.Regenerate(42)
	assert.Equal(t, a.cells, b.cells)
	assert.Equal(t, int64(42), b.Seed())
}

func TestSampleMatchesLatticeAtCellCorners(t *testing.T) {
	f := New(1)
	for x := 0; x < Size; x++ {
		u := float32(x) / Size
		assert.InDelta(t, f.At(x, 0, 0), f.Sample1(u), 1e-6)
		assert.Equal(t, f.At(x, 0, 0), f.Quantized1(u))
		assert.Equal(t, f.At(x, x, 0), f.Quantized2(u, u))
		assert.Equal(t, f.At(x, x, x), f.Quantized3(u, u, u))
	}
}

func TestSampleWraps(t *testing.T) {
	f := New(3)
	assert.InDelta(t, f.Sample1(0.3), f.Sample1(1.3), 1e-5)
	assert.InDelta(t, f.Sample1(0.3), f.Sample1(-0.7), 1e-5)
	assert.InDelta(t, f.Sample2(0.2, 0.9), f.Sample2(5.2, -3.1), 1e-5)
	assert.Equal(t, f.Quantized1(0.5), f.Quantized1(7.5))
}

func TestSampleInterpolatesBetweenNeighbours(t *testing.T) {
	f := New(9)
	half := (f.At(2, 0, 0) + f.At(3, 0, 0)) / 2
	assert.InDelta(t, half, f.Sample1(2.5/Size), 1e-5)
}

func TestSampleStaysInRange(t *testing.T) {
	f := New(5)
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Float32Range(-100, 100).Draw(t, "x")
		y := rapid.Float32Range(-100, 100).Draw(t, "y")
		z := rapid.Float32Range(-100, 100).Draw(t, "z")
		v := f.Sample3(x, y, z)
		if v < -1e-6 || v > 1+1e-6 {
			t.Fatalf("sample(%v,%v,%v) = %v", x, y, z, v)
		}
		q := f.Quantized3(x, y, z)
		if q < 0 || q > 1 {
			t.Fatalf("quantized(%v,%v,%v) = %v", x, y, z, q)
		}
	})
}

func TestSampleToleratesNonFinite(t *testing.T) {
	f := New(5)
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	assert.Equal(t, f.At(0, 0, 0), f.Quantized3(nan, inf, -inf))
	assert.Equal(t, f.At(0, 0, 0), f.Sample3(nan, nan, nan))
}

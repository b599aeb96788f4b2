package render

import (
	"fmt"

	"github.com/coreman2200/funtimes-stationchain/internal/geometry"
)

// PatternKind names a wiring check that replaces the program output.
type PatternKind string

const (
	IndexSweep  PatternKind = "index_sweep"
	RGBTest     PatternKind = "rgb_channels"
	ColumnSweep PatternKind = "column_sweep"
)

func ParsePattern(s string) (PatternKind, error) {
	switch k := PatternKind(s); k {
	case IndexSweep, RGBTest, ColumnSweep:
		return k, nil
	}
	return "", fmt.Errorf("unknown test pattern %q", s)
}

// Pattern steps a test pattern one frame at a time.
type Pattern struct {
	kind   PatternKind
	layout *geometry.Layout
	step   int
	hold   int
	frames int
}

// NewPattern shows each step for hold frames. layout is only read by ColumnSweep.
func NewPattern(kind PatternKind, layout *geometry.Layout, hold int) *Pattern {
	return &Pattern{kind: kind, layout: layout, hold: max(1, hold)}
}

func (p *Pattern) Kind() PatternKind { return p.kind }

// Step fills rgb; returns false when complete.
func (p *Pattern) Step(rgb []byte) bool {
	n := len(rgb) / 3
	for i := range rgb {
		rgb[i] = 0
	}

	switch p.kind {
	case IndexSweep:
		if p.step >= n {
			return false
		}
		rgb[p.step*3], rgb[p.step*3+1], rgb[p.step*3+2] = 255, 255, 255
	case RGBTest:
		if p.step >= 3 {
			return false
		}
		for i := 0; i < n; i++ {
			rgb[i*3+p.step] = 255
		}
	case ColumnSweep:
		if p.step >= geometry.Width {
			return false
		}
		if p.layout == nil {
			return false
		}
		lo := float32(p.step) / geometry.Width
		hi := float32(p.step+1) / geometry.Width
		for i := 0; i < n && i < p.layout.Len(); i++ {
			if p.layout.Exists[i] && p.layout.X[i] >= lo && p.layout.X[i] < hi {
				rgb[i*3+1], rgb[i*3+2] = 255, 255 // cyan
			}
		}
	default:
		return false
	}

	p.frames++
	if p.frames%p.hold == 0 {
		p.step++
	}
	return true
}

package geometry

import (
	"errors"
	"fmt"
	"math"
)

// Station pixel pitch. Across includes the padding between stations.
const (
	Width  = 16
	Height = 19
	Across = 11

	// MaxIterations bounds how many table bytes a decode may visit.
	MaxIterations = 999

	DefaultLEDCount = 228
)

var (
	ErrUnterminated   = errors.New("geometry: table not terminated")
	ErrUnknownStation = errors.New("geometry: unknown station")
	ErrIndexRange     = errors.New("geometry: led index out of range")
)

// Layout holds per-LED coordinates. Entries for LEDs not named by the table stay zero.
type Layout struct {
	X      []float32
	Y      []float32
	Angle  []float32
	Exists []bool
}

func NewLayout(count int) *Layout {
	if count < 0 {
		count = 0
	}
	return &Layout{
		X:      make([]float32, count),
		Y:      make([]float32, count),
		Angle:  make([]float32, count),
		Exists: make([]bool, count),
	}
}

// Len returns the number of LEDs the layout covers.
func (l *Layout) Len() int { return len(l.X) }

func (l *Layout) set(idx int, x, y float32) error {
	if idx < 0 || idx >= len(l.X) {
		return fmt.Errorf("%w: %d (count %d)", ErrIndexRange, idx, len(l.X))
	}
	l.Exists[idx] = true
	l.X[idx] = x * (1.0 / Width)
	l.Y[idx] = y * (1.0 / Height)
	l.Angle[idx] = float32(math.Atan2(
		-(float64(y)-Height*0.5),
		float64(x)-Across*0.5,
	) / (2 * math.Pi))
	return nil
}

type decodeState uint8

const (
	readIndex decodeState = iota
	readX
	readY
	readDir
)

// Decode walks a station path table and fills a layout of count LEDs.
func Decode(table []byte, count int) (*Layout, error) {
	l := NewLayout(count)

	state := readIndex
	idx := 0
	var x, y float32

	for i := 0; i < MaxIterations; i++ {
		if i >= len(table) {
			return nil, fmt.Errorf("%w: ran off end after %d bytes", ErrUnterminated, len(table))
		}
		b := table[i]

		switch state {
		case readIndex:
			if i > 0 && b == X {
				return l, nil
			}
			idx = int(b)
			state = readX

		case readX:
			x = float32(b)
			state = readY

		case readY:
			y = float32(b)
			if err := l.set(idx, x, y); err != nil {
				return nil, err
			}
			state = readDir

		case readDir:
			if b == X {
				state = readIndex
				continue
			}
			dx, dy, ok := delta(b)
			if !ok {
				return nil, fmt.Errorf("geometry: bad direction code %d at byte %d", b, i)
			}
			x += dx
			y += dy
			idx++
			if err := l.set(idx, x, y); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("%w: no end marker within %d bytes", ErrUnterminated, MaxIterations)
}

func delta(code byte) (dx, dy float32, ok bool) {
	switch code {
	case U:
		return 0, -1, true
	case D:
		return 0, 1, true
	case L:
		return -1, 0, true
	case R:
		return 1, 0, true
	case DL:
		return -1, 1, true
	case DL23:
		return -1.333, 1.333, true
	case DR23:
		return 1.333, 1.333, true
	}
	return 0, 0, false
}

// ForStation decodes the built-in table for station id.
func ForStation(id, count int) (*Layout, error) {
	if id < 0 || id >= len(Tables) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStation, id)
	}
	return Decode(Tables[id], count)
}

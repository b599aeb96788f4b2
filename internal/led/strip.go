package led

// Strip is a packed RGB pixel buffer. It satisfies vm.PixelSink.
type Strip struct {
	rgb []byte
}

func NewStrip(n int) *Strip {
	if n < 0 {
		n = 0
	}
	return &Strip{rgb: make([]byte, n*3)}
}

func (s *Strip) Len() int { return len(s.rgb) / 3 }

// SetPixel ignores indices outside the strip.
func (s *Strip) SetPixel(i int, r, g, b uint8) {
	if i < 0 || i >= s.Len() {
		return
	}
	s.rgb[i*3], s.rgb[i*3+1], s.rgb[i*3+2] = r, g, b
}

func (s *Strip) Pixel(i int) (r, g, b uint8) {
	if i < 0 || i >= s.Len() {
		return 0, 0, 0
	}
	return s.rgb[i*3], s.rgb[i*3+1], s.rgb[i*3+2]
}

// Bytes returns the backing buffer, not a copy.
func (s *Strip) Bytes() []byte { return s.rgb }

func (s *Strip) Clear() {
	for i := range s.rgb {
		s.rgb[i] = 0
	}
}

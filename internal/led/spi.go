package led

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// DefaultSPIFreq drives WS2812 class pixels at 800kHz with 3 SPI bits per NRZ bit.
const DefaultSPIFreq = 2400 * physic.KiloHertz

// SPI writes frames through an nrzled encoder on an SPI port.
type SPI struct {
	port spi.PortCloser
	dev  *nrzled.Dev
	n    int
}

// OpenSPI initialises the host and opens dev ("" picks the first port).
func OpenSPI(dev string, pixels int, freq physic.Frequency) (*SPI, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	p, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", dev, err)
	}
	s, err := NewSPI(p, pixels, freq)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return s, nil
}

// NewSPI wraps an already open port.
func NewSPI(p spi.PortCloser, pixels int, freq physic.Frequency) (*SPI, error) {
	if freq == 0 {
		freq = DefaultSPIFreq
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: pixels,
		Channels:  3,
		Freq:      freq,
	})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &SPI{port: p, dev: d, n: pixels}, nil
}

func (s *SPI) String() string { return s.dev.String() }

func (s *SPI) Write(rgb []byte) error {
	if len(rgb) != s.n*3 {
		return fmt.Errorf("frame is %d bytes, want %d", len(rgb), s.n*3)
	}
	_, err := s.dev.Write(rgb)
	return err
}

// Close blanks the strip and releases the port.
func (s *SPI) Close() error {
	return errors.Join(s.dev.Halt(), s.port.Close())
}

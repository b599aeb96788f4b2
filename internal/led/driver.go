package led

import "fmt"

// Driver takes one finished station frame per render. rgb is 3 bytes per LED
// in strip order; the engine reuses it after Write returns.
type Driver interface {
	Write(rgb []byte) error
	Close() error
}

// Name labels d for /health and the startup log.
func Name(d Driver) string {
	switch d := d.(type) {
	case nil:
		return "none"
	case *Sim:
		return "sim"
	case *SPI:
		return "spi"
	case fmt.Stringer:
		return d.String()
	default:
		return fmt.Sprintf("%T", d)
	}
}

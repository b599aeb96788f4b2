// Package link moves raw bytes between a station and its neighbours.
package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.bug.st/serial"
)

// Stdio names the process's stdin/stdout as a link.
const Stdio = "-"

// ReadTimeout bounds each serial read so pumps notice cancellation.
const ReadTimeout = 100 * time.Millisecond

// OpenSerial opens dev at baud, 8N1. Stdio returns stdin/stdout instead.
func OpenSerial(dev string, baud int) (io.ReadWriteCloser, error) {
	if dev == Stdio {
		return stdio{}, nil
	}
	p, err := serial.Open(dev, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dev, err)
	}
	if err := p.SetReadTimeout(ReadTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("read timeout %s: %w", dev, err)
	}
	return p, nil
}

// Ports lists serial devices present on the host.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error                { return nil }

// Pump copies chunks read from r to out until ctx ends or r fails. Each chunk
// is a fresh slice. A zero-byte read with no error is a timeout and loops.
// io.EOF returns nil.
func Pump(ctx context.Context, r io.Reader, out chan<- []byte) error {
	buf := make([]byte, 256)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case out <- chunk:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

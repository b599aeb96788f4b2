// Command lexc compiles a station expression program into command lines.
//
//	lexc rainbow.lx                       # print the lines
//	lexc -send ws://localhost:8080 rainbow.lx
//	lexc -send ws://localhost:8080 -watch 250ms rainbow.lx
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-stationchain/internal/compiler"
	"github.com/coreman2200/funtimes-stationchain/internal/protocol"
	"github.com/coreman2200/funtimes-stationchain/internal/vm"
)

type options struct {
	lifespan   byte
	gamma      bool
	brightness int
	blink      int
	reset      bool
	identify   bool
	maxLine    int
}

// build returns every line to send for src, control lines first.
func build(src string, o options) ([][]byte, error) {
	var lines [][]byte
	if o.identify {
		lines = append(lines, protocol.IdentityLine())
	}
	if o.brightness >= 0 {
		lines = append(lines, protocol.Line(o.lifespan, protocol.GammaBody(o.gamma, uint8(min(o.brightness, 255)))))
	}
	if o.blink >= 0 {
		if o.blink > int(vm.BlinkStationID) {
			return nil, fmt.Errorf("blink mode %d out of range", o.blink)
		}
		lines = append(lines, protocol.Line(o.lifespan, protocol.BlinkBody(vm.BlinkMode(o.blink))))
	}
	if src != "" {
		p, err := compiler.CompileWith(src, compiler.Options{MaxLine: o.maxLine})
		if err != nil {
			return nil, err
		}
		lines = append(lines, p.Lines(o.lifespan)...)
	}
	if o.reset {
		lines = append(lines, protocol.Line(o.lifespan, protocol.ResetTimeBody()))
	}
	return lines, nil
}

func readSource(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

type sink func(lines [][]byte) error

func printer(w io.Writer) sink {
	return func(lines [][]byte) error {
		for _, l := range lines {
			if _, err := w.Write(l); err != nil {
				return err
			}
		}
		return nil
	}
}

func sender(conn *websocket.Conn) sink {
	return func(lines [][]byte) error {
		for _, l := range lines {
			log.Debug().Bytes("line", l).Msg("send")
			if err := conn.WriteMessage(websocket.TextMessage, l); err != nil {
				return err
			}
		}
		return nil
	}
}

func main() {
	var (
		send       = flag.String("send", "", "bridge websocket URL; print to stdout when empty")
		lifespan   = flag.String("lifespan", string(rune(protocol.DefaultLifespan)), "address byte for broadcast lines (0-9)")
		gamma      = flag.Bool("gamma", true, "gamma correction, sent with -brightness")
		brightness = flag.Int("brightness", -1, "send brightness 0..255 (-1: don't send)")
		blink      = flag.Int("blink", -1, "send blink mode 0..3 (-1: don't send)")
		reset      = flag.Bool("reset", false, "send a time reset after the program")
		identify   = flag.Bool("identify", false, "send the station numbering line first")
		watch      = flag.Duration("watch", 0, "recompile and resend when the file changes, polling this often")
		verbose    = flag.Bool("v", false, "log every line sent")
		maxLine    = flag.Int("max-line", protocol.DefaultMaxLineLength, "stations' max_line; longer step lines are an error")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if len(*lifespan) != 1 || (*lifespan)[0] < '0' || (*lifespan)[0] > '9' {
		log.Fatal().Str("lifespan", *lifespan).Msg("lifespan must be one digit")
	}
	o := options{
		lifespan:   (*lifespan)[0],
		gamma:      *gamma,
		brightness: *brightness,
		blink:      *blink,
		reset:      *reset,
		identify:   *identify,
		maxLine:    *maxLine,
	}
	path := flag.Arg(0)

	out := printer(os.Stdout)
	if *send != "" {
		conn, _, err := websocket.DefaultDialer.Dial(*send, nil)
		if err != nil {
			log.Fatal().Err(err).Str("url", *send).Msg("dial bridge")
		}
		defer conn.Close()
		out = sender(conn)
	}

	if err := once(path, o, out); err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("compile")
	}
	if *watch <= 0 || path == "" || path == "-" {
		return
	}

	log.Info().Str("file", path).Dur("every", *watch).Msg("watching")
	last := modTime(path)
	for range time.Tick(*watch) {
		mt := modTime(path)
		if mt.Equal(last) {
			continue
		}
		last = mt
		err := once(path, o, out)
		var cerr *compiler.Error
		switch {
		case errors.As(err, &cerr):
			log.Warn().Int("pos", cerr.Pos).Str("msg", cerr.Msg).Msg("compile")
		case err != nil:
			log.Fatal().Err(err).Msg("send")
		default:
			log.Info().Str("file", path).Msg("sent")
		}
	}
}

func once(path string, o options, out sink) error {
	src, err := readSource(path)
	if err != nil {
		return err
	}
	lines, err := build(src, o)
	if err != nil {
		return err
	}
	return out(lines)
}

func modTime(path string) time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}

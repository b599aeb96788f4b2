// Command bridge relays websocket text messages from the authoring page to the
// first station's serial port and logs whatever the station sends back.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/coreman2200/funtimes-stationchain/internal/link"
	"github.com/coreman2200/funtimes-stationchain/internal/protocol"
)

type bridge struct {
	mu   sync.Mutex
	port io.Writer
	up   websocket.Upgrader
}

func (b *bridge) write(p []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.port.Write(p)
	return err
}

func (b *bridge) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	log.Info().Str("remote", r.RemoteAddr).Msg("client connected")
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Info().Str("remote", r.RemoteAddr).Msg("client gone")
			return
		}
		log.Debug().Bytes("msg", msg).Msg(">>>>>")
		if err := b.write(msg); err != nil {
			log.Warn().Err(err).Msg("serial write")
		}
	}
}

func main() {
	var (
		addr     = flag.String("addr", ":8080", "websocket listen address")
		dev      = flag.String("dev", "/dev/ttyUSB0", "serial device of the first station, - for stdout")
		baud     = flag.Int("baud", 9600, "serial baud rate")
		identify = flag.Duration("identify", 5*time.Second, "resend the station numbering line this often, 0 to disable")
		verbose  = flag.Bool("v", false, "log every message")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	port, err := link.OpenSerial(*dev, *baud)
	if err != nil {
		log.Fatal().Err(err).Str("dev", *dev).Msg("port open error")
	}
	defer port.Close()
	log.Info().Str("dev", *dev).Int("baud", *baud).Msg("port open")

	b := &bridge{
		port: port,
		up:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", b.handleWS)
	srv := &http.Server{Addr: *addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", *addr).Msg("websocket server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	// station output, logged
	if *dev != link.Stdio {
		chunks := make(chan []byte, 16)
		go func() {
			if err := link.Pump(ctx, port, chunks); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("port general error")
			}
		}()
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case c := <-chunks:
					log.Info().Bytes("data", c).Msg("<<<<<")
				}
			}
		})
	}

	if *identify > 0 {
		g.Go(func() error {
			t := time.NewTicker(*identify)
			defer t.Stop()
			for {
				if err := b.write(protocol.IdentityLine()); err != nil {
					log.Warn().Err(err).Msg("identity write")
				}
				select {
				case <-ctx.Done():
					return nil
				case <-t.C:
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("bridge stopped")
	}
}

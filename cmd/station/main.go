package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-stationchain/internal/app"
	"github.com/coreman2200/funtimes-stationchain/internal/config"
	diag "github.com/coreman2200/funtimes-stationchain/internal/diagnostics"
	"github.com/coreman2200/funtimes-stationchain/internal/led"
	"github.com/coreman2200/funtimes-stationchain/internal/link"
	"github.com/coreman2200/funtimes-stationchain/internal/render"
	"github.com/coreman2200/funtimes-stationchain/internal/vm"
	"github.com/coreman2200/funtimes-stationchain/internal/ws"
)

func main() {
	def := config.Default()

	// ---- Flags (defaults from config.Default; explicit flags beat config.yaml) ----
	var (
		configPath = flag.String("config", "station.yaml", "path to station.yaml")
		leds       = flag.Int("leds", def.LEDs, "LEDs on this station")
		stations   = flag.Int("stations", def.StationCount, "stations in the chain")
		fps        = flag.Int("fps", def.FPS, "target frames per second")
		brightness = flag.Int("brightness", def.Brightness, "global brightness 0..255")
		driver     = flag.String("driver", def.Driver, "driver: spi | sim")
		upstream   = flag.String("upstream", def.Upstream.Dev, "upstream serial device, - for stdin, empty for none")
		downstream = flag.String("downstream", def.Downstream.Dev, "downstream serial device, - for stdout, empty for none")
		baud       = flag.Int("baud", def.Upstream.Baud, "baud rate for both links")
		addr       = flag.String("addr", def.HTTPAddr, "HTTP listen address, empty to disable")
		logLevel   = flag.String("log-level", def.LogLevel, "trace|debug|info|warn|error")
		simOnly    = flag.Bool("sim-only", false, "force simulation (no hardware output)")
		listPorts  = flag.Bool("list-ports", false, "print serial ports and exit")
		writeCfg   = flag.Bool("write-config", false, "write the effective config to -config and exit")
		testName   = flag.String("test", "", "run a wiring pattern first: index_sweep | rgb_channels | column_sweep")
	)
	flag.Parse()

	// ---- Logging (stderr: stdout may carry the downstream link) ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if *listPorts {
		ports, err := link.Ports()
		if err != nil {
			log.Fatal().Err(err).Msg("list serial ports")
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	// ---- Load config (optional) ----
	cfg := def
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with defaults and flags")
	} else {
		cfg = c
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "leds":
			cfg.LEDs = *leds
		case "stations":
			cfg.StationCount = *stations
		case "fps":
			cfg.FPS = *fps
		case "brightness":
			cfg.Brightness = *brightness
		case "driver":
			cfg.Driver = *driver
		case "upstream":
			cfg.Upstream.Dev = *upstream
		case "downstream":
			cfg.Downstream.Dev = *downstream
		case "baud":
			cfg.Upstream.Baud, cfg.Downstream.Baud = *baud, *baud
		case "addr":
			cfg.HTTPAddr = *addr
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if *simOnly {
		cfg.Driver = "sim"
	}

	if *writeCfg {
		if err := config.Save(*configPath, cfg); err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("write config")
		}
		log.Info().Str("path", *configPath).Msg("config written")
		return
	}

	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		log.Warn().Err(err).Str("log_level", cfg.LogLevel).Msg("bad log level; using info")
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(lvl)
	}

	var pattern render.PatternKind
	if *testName != "" {
		k, err := render.ParsePattern(*testName)
		if err != nil {
			log.Fatal().Err(err).Msg("bad -test")
		}
		pattern = k
	}

	if err := run(cfg, *configPath, pattern); err != nil {
		log.Fatal().Err(err).Msg("station stopped")
	}
}

func run(cfg *config.Config, configPath string, pattern render.PatternKind) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	control := make(chan []byte, 16)
	hub := ws.NewHub(control)
	hub.FrameEvery = max(1, cfg.FPS/30)
	sensor := make(chan float32, 4)
	hub.Sensor = sensor

	drv := openDriver(cfg, hub)
	defer drv.Close()
	driverName := led.Name(drv)

	// ---- Links ----
	var down io.Writer
	if cfg.Downstream.Dev != "" {
		d, err := link.OpenSerial(cfg.Downstream.Dev, cfg.Downstream.Baud)
		if err != nil {
			return err
		}
		defer d.Close()
		down = d
	}
	upChunks := make(chan []byte, 16)
	if cfg.Upstream.Dev != "" {
		u, err := link.OpenSerial(cfg.Upstream.Dev, cfg.Upstream.Baud)
		if err != nil {
			return err
		}
		defer u.Close()
		// stdin reads cannot be interrupted, so the pump stays outside the group
		go func() {
			if err := link.Pump(ctx, u, upChunks); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Str("dev", cfg.Upstream.Dev).Msg("upstream link lost")
			}
		}()
	}

	// ---- Core ----
	opts := vm.DefaultOptions()
	opts.LEDCount = cfg.LEDs
	opts.StationCount = cfg.StationCount
	opts.Seed = cfg.Seed
	opts.Gamma = cfg.Gamma
	opts.Brightness = uint8(max(0, min(cfg.Brightness, 255)))
	opts.SensorRate = float32(cfg.SensorRate)

	core, err := app.InitCore(app.HWConfig{
		VM:           opts,
		MaxLine:      cfg.MaxLine,
		FPS:          cfg.FPS,
		WhiteCap:     cfg.WhiteCap,
		Drv:          drv,
		DriverName:   driverName,
		Downstream:   down,
		IdleAttractS: cfg.IdleAttractS,
		Attract:      cfg.Attract,
	}, hub)
	if err != nil {
		return err
	}
	if pattern != "" {
		core.Eng.Pattern = render.NewPattern(pattern, core.State.Geometry, cfg.FPS/4)
		log.Info().Str("pattern", string(pattern)).Msg("test pattern")
	}

	g, ctx := errgroup.WithContext(ctx)
	reseed := make(chan int64, 1)
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	g.Go(func() error {
		return core.Run(ctx, app.Inputs{Upstream: upChunks, Control: control, Sensor: sensor, Reseed: reseed})
	})
	g.Go(func() error { return watchReload(ctx, hup, configPath, reseed) })

	// ---- HTTP ----
	if cfg.HTTPAddr != "" {
		mux := http.NewServeMux()
		hub.Routes(mux)
		srv := &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      withCORS(mux),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		g.Go(func() error {
			log.Info().Str("addr", cfg.HTTPAddr).Str("driver", driverName).Msg("HTTP server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			hub.Close()
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	log.Info().
		Int("leds", cfg.LEDs).
		Int("stations", cfg.StationCount).
		Str("upstream", cfg.Upstream.Dev).
		Str("downstream", cfg.Downstream.Dev).
		Msg("station running")
	err = g.Wait()
	log.Info().Msg("shutting down")
	return err
}

// watchReload rereads the config on SIGHUP and hands its seed to the loop.
// Other settings need a restart.
func watchReload(ctx context.Context, hup <-chan os.Signal, path string, reseed chan<- int64) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
		}
		c, err := config.Load(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("reload failed")
			continue
		}
		log.Info().Str("path", path).Int64("seed", c.Seed).Msg("config reloaded")
		select {
		case reseed <- c.Seed:
		case <-ctx.Done():
			return nil
		}
	}
}

// openDriver honours cfg.Driver and falls back to sim.
func openDriver(cfg *config.Config, hub *ws.Hub) led.Driver {
	switch cfg.Driver {
	case "sim":
		return led.NewSim(cfg.FPS)

	case "spi":
		drv, err := led.OpenSPI(cfg.SPI.Dev, cfg.LEDs, physic.Frequency(cfg.SPI.SpeedHz)*physic.Hertz)
		if err != nil {
			log.Warn().Err(err).
				Str("driver", "spi").
				Str("dev", cfg.SPI.Dev).
				Int("speed_hz", cfg.SPI.SpeedHz).
				Msg("SPI init failed; falling back to SIM")
			hub.PushDiag(diag.DriverFallback("spi", err))
			return led.NewSim(cfg.FPS)
		}
		return drv

	default:
		log.Warn().Str("driver", cfg.Driver).Msg("unknown driver; using SIM")
		return led.NewSim(cfg.FPS)
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}

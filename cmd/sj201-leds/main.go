package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/example/sj201-leds/internal/animation"
	"github.com/example/sj201-leds/internal/config"
	"github.com/example/sj201-leds/internal/enclosure"
	"github.com/example/sj201-leds/internal/hw"
	"github.com/example/sj201-leds/internal/led"
	"github.com/example/sj201-leds/internal/messagebus"
	"github.com/example/sj201-leds/internal/ws"
)

func main() {
	var (
		configPath   = flag.String("config", "/etc/sj201-leds/config.yaml", "path to config.yaml")
		driver       = flag.String("driver", config.DriverAuto, "driver: auto | i2c | i2cset | serial | gpio | spi | sim")
		enabled      = flag.Bool("enabled", false, "skip hardware detection and drive the ring")
		defaultColor = flag.String("default-color", "red", "palette color for talk, spin and blink")
		brightness   = flag.Float64("brightness", 0.6, "strip brightness 0..1 (direct drivers)")
		busURL       = flag.String("bus-url", "ws://127.0.0.1:8181/core", "message bus websocket URL")
		httpAddr     = flag.String("http", "", "status server listen address (empty disables)")
		fps          = flag.Int("fps", 20, "status frame stream rate")
		simOnly      = flag.Bool("sim-only", false, "force the console simulator")
		debug        = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	// ---- Config: file first, then explicitly set flags ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; using defaults")
		cfg = config.Default()
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "driver":
			cfg.Driver = *driver
		case "enabled":
			cfg.Enabled = *enabled
		case "default-color":
			cfg.DefaultColor = *defaultColor
		case "brightness":
			cfg.Brightness = *brightness
		case "bus-url":
			cfg.MessageBus.URL = *busURL
		case "http":
			cfg.HTTP.Addr = *httpAddr
		case "fps":
			cfg.FPS = *fps
		}
	})
	if *simOnly {
		cfg.Driver = config.DriverSim
		cfg.Enabled = true
	}

	// ---- Validation gate ----
	v := hw.Validator{
		Enabled:      cfg.Enabled,
		PlatformFile: cfg.PlatformFile,
		Probe:        func() bool { return hw.ProbeBus(cfg.I2C.Bus, cfg.I2C.Addr) },
		Logger:       log.Logger,
	}
	ok, platform := v.Validate()
	if !ok {
		log.Info().Str("platform_file", cfg.PlatformFile).Msg("SJ201 LED ring not found; not applicable")
		return
	}

	// ---- Transport ----
	opened, err := hw.Open(cfg, platform, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Driver).Msg("open led transport")
	}
	defer func() {
		if err := opened.Close(); err != nil {
			log.Warn().Err(err).Msg("close led transport")
		}
	}()

	var router *enclosure.Router
	srv := ws.NewServer(opened.Driver, cfg.FPS, func(m messagebus.Message) { router.Enqueue(m) }, log.Logger)
	tr := led.Observe(opened.Transport, srv.ObserveStatus)

	anim := animation.New(tr, animation.WithDefaultColor(led.ResolveColor(cfg.DefaultColor, log.Logger)))
	srv.SetSource(anim)
	anim.Intro()

	// ---- Message bus ----
	client := messagebus.NewClient(cfg.MessageBus.URL, messagebus.WithLogger(log.Logger))
	router = enclosure.NewRouter(anim, client, log.Logger)
	router.Bind(client)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go router.Run(ctx)
	go func() {
		if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("message bus client stopped")
		}
	}()

	// ---- Status server ----
	var httpSrv *http.Server
	if cfg.HTTP.Addr != "" {
		httpSrv = &http.Server{
			Addr:         cfg.HTTP.Addr,
			Handler:      withCORS(srv.Routes()),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go srv.RunBroadcastLoop(ctx)
		go func() {
			log.Info().Str("addr", cfg.HTTP.Addr).Str("driver", opened.Driver).Msg("status server starting")
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("status server stopped")
			}
		}()
	}

	log.Info().Str("bus", cfg.MessageBus.URL).Int("events", len(router.Events())).Msg("listening for enclosure events")

	// ---- Graceful shutdown ----
	<-ctx.Done()
	log.Info().Msg("shutting down")
	if httpSrv != nil {
		_ = httpSrv.Close()
	}
	anim.TurnOff()
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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/serpentine/internal/config"
	diag "github.com/coreman2200/serpentine/internal/diagnostics"
	"github.com/coreman2200/serpentine/internal/layout"
	"github.com/coreman2200/serpentine/internal/led"
	"github.com/coreman2200/serpentine/internal/ws"
)

func main() {
	// ---- Flags (remain usable; config.yaml and LEDS_* env override) ----
	var (
		segments    = flag.Int("segments", 1, "segments placed side by side")
		segWidth    = flag.Int("segment-width", 4, "pixels per row of one segment")
		rows        = flag.Int("rows", 4, "rows per segment")
		zigzag      = flag.Bool("zigzag", true, "serpentine: reverse alternate rows within a segment")
		rightToLeft = flag.Bool("right-to-left", false, "data line enters at the right-most segment")
		rowPhase    = flag.Bool("row-reverse-phase", false, "zigzag reverses even rows instead of odd rows")
		pitchMM     = flag.Float64("pitch-mm", 10, "LED pitch (mm)")
		fps         = flag.Int("fps", 60, "target frames per second")
		brightness  = flag.Float64("brightness", 0.8, "global brightness 0..1")
		driver      = flag.String("driver", "sim", "driver: spi | nrz | console | sim")
		spiPort     = flag.String("spi-port", "", "periph SPI port name for -driver=nrz (empty: first)")
		colorOrder  = flag.String("color", "GRB", "LED color order (e.g. GRB, RGB)")
		addr        = flag.String("addr", ":8080", "HTTP listen address")
		configPath  = flag.String("config", "config.yaml", "path to config.yaml")
		simOnly     = flag.Bool("sim-only", false, "force simulation (no hardware output)")
		printOrder  = flag.Bool("print-order", false, "print the wire position of every pixel and exit")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// ---- Load config.yaml (optional) ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		cfg = &config.Config{}
	}
	if cfg.Panel.Segments == 0 {
		cfg.Panel.Segments = *segments
	}
	if cfg.Panel.SegmentWidth == 0 {
		cfg.Panel.SegmentWidth = *segWidth
	}
	if cfg.Panel.Rows == 0 {
		cfg.Panel.Rows = *rows
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		log.Fatal().Err(err).Msg("environment")
	}

	// ---- Effective params (config overrides flags where available) ----
	eFPS, eBright, eColor := *fps, *brightness, *colorOrder
	if cfg.FPS > 0 {
		eFPS = cfg.FPS
	}
	if cfg.Brightness > 0 {
		eBright = cfg.Brightness
	}
	if cfg.ColorOrder != "" {
		eColor = cfg.ColorOrder
	}
	cfg.PitchMM = firstNonZeroFloat(cfg.PitchMM, *pitchMM)

	// ---- Build layout ----
	l := cfg.Layout(layout.Serpentine{Zigzag: *zigzag, RightToLeft: *rightToLeft, RowReversePhase: *rowPhase})
	if d, bad := diag.FromLayout(l); bad {
		log.Fatal().Str("code", d.Code).Interface("evidence", d.Evidence).Msg(d.Detail)
	}
	log.Info().
		Int("segments", l.Segments).Int("segment_width", l.SegmentWidth).Int("rows", l.Rows).
		Bool("zigzag", l.Order.Zigzag).Bool("right_to_left", l.Order.RightToLeft).
		Bool("row_reverse_phase", l.Order.RowReversePhase).
		Msg("panel")

	if *printOrder {
		writeOrder(os.Stdout, l)
		return
	}

	// ---- Driver selection: -sim-only overrides; otherwise config.driver then -driver ----
	selected := *driver
	if cfg.Driver != "" {
		selected = cfg.Driver
	}
	if *simOnly {
		selected = "sim"
	}
	drv, selected, eColor := openDriver(selected, cfg, *spiPort, l.Count(), eColor)

	// ---- State ----
	state, err := ws.NewState(l, drv, eColor, eFPS, eBright)
	if err != nil {
		log.Fatal().Err(err).Msg("state")
	}
	state.ConfigPath = *configPath
	state.CurrentDriver = selected
	state.LimitAmps = cfg.Power.LimitAmps
	state.SetWhiteCap(cfg.Power.WhiteCap)

	// ---- HTTP routes ----
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", state.HandleFramesWS)
	mux.HandleFunc("/diag", state.HandleDiagWS)
	mux.HandleFunc("/control", state.HandleControlWS)
	mux.HandleFunc("/health", state.HandleHealth)
	mux.HandleFunc("/order", state.HandleOrder)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ---- Run render loop & server ----
	ctx, cancel := context.WithCancel(context.Background())
	go state.RunRenderLoop(ctx)
	go func() {
		log.Info().Str("addr", *addr).Str("driver", selected).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	// ---- Graceful shutdown ----
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	s := <-ch
	log.Info().Str("signal", s.String()).Msg("shutting down")

	cancel()
	_ = srv.Close()
	if err := drv.Close(); err != nil {
		log.Warn().Err(err).Msg("driver close")
	}
}

// openDriver returns the driver for selected, falling back to SIM, plus
// the driver actually chosen and the color order frames must be encoded in.
func openDriver(selected string, cfg *config.Config, spiPort string, count int, colorOrder string) (led.Driver, string, string) {
	switch selected {
	case "sim":
		return led.NewSim(), selected, colorOrder

	case "spi":
		// Defaults if YAML not filled
		spiDev := "/dev/spidev0.0"
		if cfg.SPI.Dev != "" {
			spiDev = cfg.SPI.Dev
		}
		drv, err := led.NewSPI(spiDev, count, cfg.SPI.SpeedHz, cfg.SPI.ResetUs)
		if err != nil {
			log.Warn().Err(err).
				Str("driver", "spi").
				Str("dev", spiDev).
				Int("speed_hz", cfg.SPI.SpeedHz).
				Msg("SPI init failed; falling back to SIM")
			return led.NewSim(), "sim", colorOrder
		}
		return drv, selected, colorOrder

	case "nrz":
		drv, err := led.OpenNRZ(spiPort, count)
		if err != nil {
			log.Warn().Err(err).Str("driver", "nrz").Str("port", spiPort).
				Msg("no SPI port; printing at the console")
			return led.NewConsole(count), "console", "RGB"
		}
		log.Info().Str("dev", drv.String()).Msg("nrzled ready")
		return drv, selected, "RGB"

	case "console":
		return led.NewConsole(count), selected, "RGB"

	default:
		log.Warn().Str("driver", selected).Msg("unknown driver; using SIM")
		return led.NewSim(), "sim", colorOrder
	}
}

// writeOrder prints the panel as a grid of wire positions.
func writeOrder(w io.Writer, l layout.Layout) {
	pos := l.WirePositions()
	width := len(fmt.Sprint(len(pos) - 1))
	for y := 0; y < l.Rows; y++ {
		cells := make([]string, 0, l.Width())
		for x := 0; x < l.Width(); x++ {
			sep := ""
			if x > 0 && x%l.SegmentWidth == 0 {
				sep = "| "
			}
			cells = append(cells, fmt.Sprintf("%s%*d", sep, width, pos[l.Index(x, y)]))
		}
		fmt.Fprintln(w, strings.Join(cells, " "))
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

func firstNonZeroFloat(v, fallback float64) float64 {
	if v != 0 {
		return v
	}
	return fallback
}

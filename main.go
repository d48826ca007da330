// client/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-client/config"
	"github.com/ViniZap4/lumi-client/events"
	"github.com/ViniZap4/lumi-client/gateway"
	httphandlers "github.com/ViniZap4/lumi-client/http"
	"github.com/ViniZap4/lumi-client/mock"
	"github.com/ViniZap4/lumi-client/session"
	"github.com/ViniZap4/lumi-client/tui"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	ui := flag.String("ui", "", "interface to run: web or tui")
	port := flag.String("port", "", "port for the web interface")
	mode := flag.String("mode", "", "backend: auto, http or mock")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *ui != "" {
		cfg.UI = *ui
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *mode != "" {
		cfg.Mode = *mode
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("client stopped")
		closeLog()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	apiURL := cfg.APIURL
	if cfg.ResolvedMode() == config.ModeMock {
		addr, shutdown, err := startMock(cfg.MockAddr, log.With().Str("component", "mock").Logger())
		if err != nil {
			return err
		}
		defer shutdown()
		apiURL = "http://" + addr
	}

	gw, err := gateway.New(apiURL,
		gateway.WithTimeout(cfg.Timeout),
		gateway.WithLogger(log.With().Str("component", "gateway").Logger()),
	)
	if err != nil {
		return err
	}
	log.Info().Str("api", gw.BaseURL()).Str("ui", cfg.UI).Msg("client starting")

	hub := events.NewHub(log.With().Str("component", "events").Logger())
	go hub.Run(ctx)

	ctrl := session.New(gw,
		session.WithLogger(log.With().Str("component", "session").Logger()),
		session.WithSuccessTTL(cfg.SuccessTTL),
		session.WithNotifier(hub),
	)

	if cfg.UI == config.UITUI {
		return tui.Run(ctx, ctrl)
	}

	go ctrl.Start(ctx)

	app := httphandlers.NewServer(ctrl, gw, hub, log.With().Str("component", "http").Logger()).App()
	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Warn().Err(err).Msg("web shutdown")
		}
	}()

	log.Info().Str("addr", cfg.ListenAddr()).Msg("web interface listening")
	return app.Listen(cfg.ListenAddr())
}

// startMock serves the in-process backend and returns the address it bound.
func startMock(addr string, log zerolog.Logger) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("mock backend: %w", err)
	}

	app := mock.New(mock.WithLogger(log)).App()
	go func() {
		if err := app.Listener(ln); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Error().Err(err).Msg("mock backend stopped")
		}
	}()
	log.Info().Str("addr", ln.Addr().String()).Msg("mock backend listening")

	return ln.Addr().String(), func() {
		_ = app.ShutdownWithTimeout(shutdownTimeout)
	}, nil
}

// newLogger writes to stderr, or to the log file when the terminal UI owns
// the screen.
func newLogger(cfg config.Config) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("log level: %w", err)
	}

	var out io.Writer = os.Stderr
	closeFn := func() {}
	if cfg.UI == config.UITUI {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}

	if cfg.LogFormat != "json" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.UI == config.UITUI,
		}
	}

	log := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return log, closeFn, nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"mt5bridge/internal/bridge"
	"mt5bridge/internal/config"
	"mt5bridge/internal/httpapi"
	"mt5bridge/internal/mt5"
	"mt5bridge/internal/util"
)

func main() {
	// Pull in a .env file when present; existing env vars win.
	godotenv.Load()

	defaultConfig := "config/mt5bridge.yaml"
	if p := os.Getenv("MT5BRIDGE_CONFIG"); p != "" {
		defaultConfig = p
	}
	cfgPath := flag.String("config", defaultConfig, "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	// Pick the terminal client.
	var client mt5.Client
	var sim *mt5.Simulator
	switch cfg.Terminal.Mode {
	case "simulator":
		sim = mt5.NewSimulator()
		client = sim
	case "socket", "":
		client = mt5.NewSocketClient(cfg.Terminal.URL, cfg.Terminal.DialTimeout(), cfg.Terminal.CallTimeout())
	default:
		log.Fatalf("unknown terminal mode %q", cfg.Terminal.Mode)
	}

	session := bridge.NewSession(client, logger)
	br := bridge.New(session, logger)
	api := httpapi.NewServer(br, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: api.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// An unreachable terminal is not fatal: the session reconnects lazily on
	// the first request that needs it.
	if err := session.Initialize(ctx); err != nil {
		logger.Warn("terminal not reachable at startup, will retry on first request", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("bridge server listening", "addr", httpServer.Addr, "mode", client.Name())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if sim != nil {
		g.Go(func() error {
			return sim.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down bridge server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
	}

	session.Shutdown()
}

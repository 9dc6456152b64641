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

	"github.com/goliatone/go-editorial"
	"github.com/goliatone/go-editorial/internal/telemetry"
)

var moduleBuilder = editorial.New

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("editorial: %v", err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: editorial <serve|seed> [flags]")
	}
	switch args[0] {
	case "serve":
		return runServe(args[1:])
	case "seed":
		return runSeed(context.Background(), args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func loadConfig(fs *flag.FlagSet, args []string) (editorial.Config, error) {
	cfg, err := editorial.LoadEnv(editorial.DefaultConfig())
	if err != nil {
		return cfg, fmt.Errorf("load env: %w", err)
	}
	driver := fs.String("driver", cfg.Storage.Driver, "Storage driver (memory, sqlite, postgres)")
	dsn := fs.String("dsn", cfg.Storage.DSN, "Storage DSN for the sql drivers")
	addr := fs.String("addr", cfg.HTTP.Addr, "HTTP listen address")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.Storage.Driver = *driver
	cfg.Storage.DSN = *dsn
	cfg.HTTP.Addr = *addr
	return cfg, nil
}

func runServe(args []string) error {
	cfg, err := loadConfig(flag.NewFlagSet("serve", flag.ExitOnError), args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Features.Telemetry, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}

	module, err := moduleBuilder(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()

	handler, err := module.Handler()
	if err != nil {
		return fmt.Errorf("build http handler: %w", err)
	}

	logger := module.Logger("editorial.server")
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.listening", "addr", cfg.HTTP.Addr, "driver", cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("server.shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("telemetry.shutdown_failed", "error", err)
	}
	return nil
}

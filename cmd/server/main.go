package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/BioHazard786/pairline/internal/bots"
	"github.com/BioHazard786/pairline/internal/config"
	"github.com/BioHazard786/pairline/internal/logging"
	"github.com/BioHazard786/pairline/internal/server"
	"github.com/BioHazard786/pairline/internal/signaling"
	"github.com/BioHazard786/pairline/internal/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var opts config.ServerOptions
	flags := pflag.NewFlagSet("pairline-server", pflag.ContinueOnError)
	flags.StringVar(&opts.EnvFile, "env-file", ".env", "path to an optional .env file")
	flags.StringVar(&opts.Host, "host", "", "listen host (overrides HOST)")
	flags.IntVarP(&opts.Port, "port", "p", 0, "listen port (overrides PORT)")
	flags.StringVarP(&opts.LogLevel, "log-level", "l", "", "log level (overrides LOG_LEVEL)")
	showVersion := flags.BoolP("version", "v", false, "print the version and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Println(version.String())
		return nil
	}

	// 1. Configuration & Logger
	cfg, err := config.LoadServer(opts)
	if err != nil {
		return err
	}
	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	// 2. Bots dial this relay like any other participant
	manager := bots.NewManager(bots.NewFactory(bots.Options{
		ServerURL:  cfg.BotURL(),
		Name:       cfg.BotName,
		ReplyDelay: cfg.BotReplyDelay,
		ICEServers: []string{cfg.STUNServer},
		Logger:     log,
	}), log)
	defer manager.Close()

	// 3. Registry & Hub
	registry := signaling.NewRegistry(
		signaling.WithObserver(manager),
		signaling.WithLogger(log),
	)
	hub := signaling.NewHub(registry, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	// 4. HTTP
	srv := server.New(hub, manager, server.Options{
		Limits: signaling.Limits{
			WriteWait:      cfg.WriteWait,
			PongWait:       cfg.PongWait,
			MaxMessageSize: cfg.MaxMessageSize,
			SendBuffer:     cfg.SendBufferSize,
		},
		AllowedOrigins: cfg.Origins(),
	}, log)

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: srv.Routes(),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting signaling server", "address", cfg.Addr(), "version", version.Version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 5. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 6. Final Cleanup. Hijacked websockets are not tracked by Shutdown, so
	// the hub closes them.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown incomplete", "err", err)
	}
	manager.Close()
	stopHub()
	<-hub.Done()
	log.Info("Server stopped cleanly")

	return nil
}

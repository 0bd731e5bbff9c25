package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// `verbena serve`
func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve templated pages, uploads and the management API",
		Long:  "Serves {page}.tmpl.html files from the template directory, the upload directory, and the /api management endpoints. Restarts in place when asked to through the API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(*configPath, cmd.ErrOrStderr())
		},
	}
}

func serve(configPath string, logOut io.Writer) error {
	baseLogger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelInfo}))
	actionChan := make(chan string, 1)

	go func() {
		osSignalChan := make(chan os.Signal, 1)
		signal.Notify(osSignalChan, syscall.SIGINT, syscall.SIGTERM)
		<-osSignalChan
		baseLogger.Info("OS signal received, initiating shutdown.")
		actionChan <- actionShutdown
	}()

	for {
		action, err := run(configPath, actionChan, logOut)
		if err != nil {
			baseLogger.Error("An error occurred during server run, shutting down.", "error", err)
			return err
		}
		if action != actionRestart {
			break
		}
		baseLogger.Info("--- Server Restarting ---")
	}

	baseLogger.Info("Verbena has shut down.")
	return nil
}

// run hosts one server cycle and returns the action that ended it.
func run(configPath string, actionChan chan string, logOut io.Writer) (string, error) {
	a, err := openApp(configPath, logOut)
	if err != nil {
		return "", err
	}
	defer a.Close()

	a.logger.Info("Starting server cycle...")
	server, err := NewServer(a, actionChan)
	if err != nil {
		return "", fmt.Errorf("failed to create server object: %w", err)
	}

	cfg := a.cm.Get()
	httpServer := &http.Server{
		Addr:              cfg.Server.ServerAddr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listenErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting Verbena server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	var action string
	select {
	case action = <-actionChan:
	case err = <-listenErr:
		return "", fmt.Errorf("server failed: %w", err)
	}

	a.logger.Info("Stopping server for " + action + "...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Server shutdown failed", "error", err)
	}
	a.logger.Info("HTTP server stopped.")
	return action, nil
}

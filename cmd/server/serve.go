package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jpilocastillo/m8bizz-sub004/auth"
	"github.com/jpilocastillo/m8bizz-sub004/internal/config"
	"github.com/jpilocastillo/m8bizz-sub004/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			for {
				err := run()
				if err == nil {
					break
				}
				if !errors.Is(err, errPanicRecovered) {
					return err
				}
				log.Err(err).Msg("restarting server")
				time.Sleep(1 * time.Second)
			}
			log.Info().Msg("Server stopped")
			return nil
		},
	}
}

var errPanicRecovered = errors.New("panic recovered")

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errPanicRecovered
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := openStores(ctx, c)
	if err != nil {
		return err
	}
	defer stores.Close()

	authService, err := auth.NewFromConfig(ctx, c)
	if err != nil {
		return fmt.Errorf("auth client: %w", err)
	}

	var pages fs.FS
	if dir := c.GetStaticDir(); dir != "" {
		pages = os.DirFS(dir)
	}

	handler, err := server.New(c, server.Deps{
		Auth:        authService,
		Sessions:    stores.Sessions,
		Profiles:    stores.Profiles,
		CostCenters: stores.CostCenters,
		Pages:       pages,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(httpServer)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

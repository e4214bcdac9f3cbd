package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/haru-search/internal/api"
	"github.com/dshills/haru-search/internal/storage"
)

func newServeCmd(open opener) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP search API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if addr != "" {
				a.cfg.HTTP.Addr = addr
			}
			return runServe(cmd.Context(), a)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	handler := api.NewAPIHandler(a.searcher, a.history, a.limiter, a.logger)
	srv := &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  a.cfg.ReadTimeout(),
		WriteTimeout: a.cfg.WriteTimeout(),
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", srv.Addr, "version", version, "build_mode", storage.BuildMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("could not listen on %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.logger.Info("http server stopped")
	return nil
}

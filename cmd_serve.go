package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/d1nch8g/chime/logger"
	"github.com/d1nch8g/chime/server"
)

var listenAddr string

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the playback HTTP control API",
		Example: `  chime serve
  chime serve --addr 127.0.0.1:9090`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVarP(&listenAddr, "addr", "a", "", "Listen address (default CHIME_LISTEN_ADDR or :8080)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.ListenAddr
	if listenAddr != "" {
		addr = listenAddr
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: server.SetupRouter(server.NewAPI(a.session, logger.Component("api"))),
	}

	ctx, cancel := signalContext()
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info().Str("addr", addr).Msg("control API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Log.Info().Msg("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}

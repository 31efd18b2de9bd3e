package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/paramind/paramind/internal/api"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(cmd)
			if err != nil {
				return err
			}
			defer eng.close()

			if addr == "" {
				addr = eng.cfg.ListenAddr
			}

			server := api.NewServer(eng.controller, eng.executor, eng.agg, eng.log)
			httpSrv := &http.Server{
				Addr:    addr,
				Handler: server.Router(),
			}

			errCh := make(chan error, 1)
			go func() {
				eng.log.Info("http api listening", "addr", addr)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpSrv.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}
